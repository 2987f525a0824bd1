package fuzzy

import "sort"

// bucket is the posting list for one n-gram token: entry ids grouped by
// name length, plus a running element count used for oversize pruning.
type bucket struct {
	byLength map[uint16][]uint32
	elements uint64
}

func newBucket() *bucket {
	return &bucket{byLength: make(map[uint16][]uint32)}
}

func (b *bucket) add(id uint32, length uint16) {
	b.byLength[length] = append(b.byLength[length], id)
	b.elements++
}

// invertedIndex maps n-gram tokens to their posting buckets.
type invertedIndex map[Token]*bucket

func (idx invertedIndex) add(tokens []Token, id uint32, length uint16) {
	for _, t := range tokens {
		bk := idx[t]
		if bk == nil {
			bk = newBucket()
			idx[t] = bk
		}
		bk.add(id, length)
	}
}

// prune removes every bucket holding more than max elements. A pruned token
// becomes invisible to queries, dropping common-ngram noise that would
// otherwise dominate candidate sets. Returns the number of buckets removed.
func (idx invertedIndex) prune(max uint64) int {
	pruned := 0
	for t, bk := range idx {
		if bk.elements > max {
			delete(idx, t)
			pruned++
		}
	}
	return pruned
}

// candidates unions the posting lists of every bucket matching a query
// token, across all length partitions, and returns the ids in ascending
// order. Ids are positions in the sorted primary table, so the order is
// both deterministic and alphabetical.
func (idx invertedIndex) candidates(tokens []Token) []uint32 {
	set := make(map[uint32]struct{})
	for _, t := range tokens {
		bk := idx[t]
		if bk == nil {
			continue
		}
		for _, ids := range bk.byLength {
			for _, id := range ids {
				set[id] = struct{}{}
			}
		}
	}
	out := make([]uint32, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
