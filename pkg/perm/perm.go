package perm

import (
	"iter"
	"slices"
)

// Seq returns the sequence [0, 1, 2, ..., n-1]. For n <= 0 it returns an
// empty slice.
func Seq(n int) []int {
	result := make([]int, max(n, 0))
	for i := range result {
		result[i] = i
	}
	return result
}

// Factorial returns n!. For n <= 1, Factorial returns 1.
//
// Factorials grow extremely fast: 21! overflows a 64-bit int.
func Factorial(n int) int {
	result := 1
	for i := 2; i <= n; i++ {
		result *= i
	}
	return result
}

// All iterates over the permutations of [0, 1, ..., n-1] using Heap's
// algorithm. The yielded slice is reused between iterations; clone it to keep
// it. n = 0 yields one empty permutation.
func All(n int) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		perm := Seq(n)
		if !yield(perm) || n <= 1 {
			return
		}
		state := make([]int, n)
		for i := 0; i < n; {
			if state[i] < i {
				if i&1 == 0 {
					perm[0], perm[i] = perm[i], perm[0]
				} else {
					perm[state[i]], perm[i] = perm[i], perm[state[i]]
				}
				if !yield(perm) {
					return
				}
				state[i]++
				i = 0
			} else {
				state[i] = 0
				i++
			}
		}
	}
}

// Generate returns permutations of [0, 1, ..., n-1] in the order of All.
//
// If limit > 0, Generate returns at most limit permutations; otherwise it
// returns all n!. Each returned slice is a separate allocation. For n >= 13
// the result runs into billions of entries, so always pass a limit.
func Generate(n, limit int) [][]int {
	capacity := Factorial(min(n, 12))
	if limit > 0 {
		capacity = min(capacity, limit)
	}
	result := make([][]int, 0, capacity)
	for p := range All(n) {
		result = append(result, slices.Clone(p))
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result
}

// IsConsecutive reports whether the elements of subset occupy adjacent
// positions in perm. Subsets of size 0 or 1 are always consecutive; a subset
// element missing from perm makes the result false.
func IsConsecutive(perm, subset []int) bool {
	if len(subset) <= 1 {
		return true
	}

	want := make(map[int]bool, len(subset))
	for _, e := range subset {
		want[e] = true
	}

	lo, hi, found := -1, -1, 0
	for i, e := range perm {
		if want[e] {
			if lo < 0 {
				lo = i
			}
			hi = i
			found++
		}
	}
	return found == len(want) && hi-lo+1 == found
}

// Satisfies reports whether perm keeps every constraint consecutive.
func Satisfies(perm []int, constraints [][]int) bool {
	for _, c := range constraints {
		if !IsConsecutive(perm, c) {
			return false
		}
	}
	return true
}
