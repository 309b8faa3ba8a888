// Package merge combines key-ordered sequences such as behavior samples.
package merge

import (
	"cmp"
	"slices"
)

// Sorted merges b into a and returns a new slice ordered ascending by key.
//
// a is the prior state and must already be sorted with unique keys. b must be
// sorted by the caller. When a key is present in both, the element from a is
// kept and the one from b dropped. Neither input is modified.
func Sorted[T any](a, b []T, key func(T) int64) []T {
	out := make([]T, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ka, kb := key(a[i]), key(b[j])
		switch {
		case ka < kb:
			out = append(out, a[i])
			i++
		case ka > kb:
			out = appendNew(out, b[j], key)
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	for ; j < len(b); j++ {
		out = appendNew(out, b[j], key)
	}
	return out
}

// appendNew appends v unless its key repeats the last key in out.
func appendNew[T any](out []T, v T, key func(T) int64) []T {
	if n := len(out); n > 0 && key(out[n-1]) == key(v) {
		return out
	}
	return append(out, v)
}

// SortByKey returns a copy of s stably sorted ascending by key, so elements
// sharing a key keep their arrival order.
func SortByKey[T any](s []T, key func(T) int64) []T {
	out := slices.Clone(s)
	slices.SortStableFunc(out, func(x, y T) int {
		return cmp.Compare(key(x), key(y))
	})
	return out
}

// Dedup drops every element of a sorted slice whose key equals the key of the
// element before it. The first element for each key wins.
func Dedup[T any](s []T, key func(T) int64) []T {
	out := make([]T, 0, len(s))
	for _, v := range s {
		out = appendNew(out, v, key)
	}
	return out
}

// KeepLast returns the newest n elements of a sorted slice.
func KeepLast[T any](s []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(s) <= n {
		return s
	}
	return slices.Clone(s[len(s)-n:])
}
