package dataset

import "github.com/huichen/murmur"

// DuplicateSet tracks full line texts so repeated lines can be skipped at
// load time. Lines are bucketed by murmur3 fingerprint and verified by
// exact comparison inside a bucket, so a fingerprint collision can never
// drop a distinct line. The set is released after loading finishes.
type DuplicateSet struct {
	buckets map[uint32][]string
	count   int
}

// NewDuplicateSet returns an empty set.
func NewDuplicateSet() *DuplicateSet {
	return &DuplicateSet{buckets: make(map[uint32][]string)}
}

// Seen reports whether line was recorded before, recording it if not.
func (s *DuplicateSet) Seen(line string) bool {
	h := murmur.Murmur3([]byte(line))
	for _, prev := range s.buckets[h] {
		if prev == line {
			return true
		}
	}
	s.buckets[h] = append(s.buckets[h], line)
	s.count++
	return false
}

// Len returns the number of distinct lines recorded.
func (s *DuplicateSet) Len() int {
	return s.count
}
