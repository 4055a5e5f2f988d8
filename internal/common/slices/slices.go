package slices

import (
	"fmt"
)

// Batch splits s into consecutive slices of at most size elements, preserving order.
// The batches share the backing array of s. An empty s yields no batches.
func Batch[S ~[]E, E any](s S, size int) []S {
	if size < 1 {
		panic(fmt.Sprintf("size is %d but must be at least 1", size))
	}
	batches := make([]S, 0, (len(s)+size-1)/size)
	for start := 0; start < len(s); start += size {
		end := start + size
		if end > len(s) {
			end = len(s)
		}
		batches = append(batches, s[start:end:end])
	}
	return batches
}

// Unique returns the elements of s in order of first occurrence, without duplicates.
func Unique[S ~[]E, E comparable](s S) S {
	if s == nil {
		return nil
	}
	seen := make(map[E]bool, len(s))
	rv := make(S, 0, len(s))
	for _, e := range s {
		if seen[e] {
			continue
		}
		seen[e] = true
		rv = append(rv, e)
	}
	return rv
}
