package fuzzy

import "unicode/utf8"

// Normalize maps a UTF-8 string onto the internal single-byte alphabet used
// by the index and the distance scorer. ASCII upper-case letters are folded
// to lower case, other ASCII bytes pass through unchanged, and every
// non-ASCII code point is reduced to one of 31 overflow codes. Distinct
// code points may collide in the overflow range; colliding names still score
// correctly relative to each other because queries pass through the same
// reduction. Invalid UTF-8 bytes are skipped.
func Normalize(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			i++
			continue
		}
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, byte(r)+'a'-'A')
		case r <= 0x7F:
			out = append(out, byte(r))
		default:
			out = append(out, byte(1+r%31))
		}
		i += size
	}
	return string(out)
}
