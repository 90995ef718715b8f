// Package versioning holds the ordering rules shared by every versioned record
// (content versions and question versions alike).
package versioning

import (
	"cmp"
	"slices"
)

// Numbered is anything carrying a per-parent version number.
type Numbered interface {
	Number() int
}

// Next returns the number to assign to a new record: one past the highest number seen,
// never below floor+1. floor is the parent's high-water mark, so numbers freed by
// removed records are never handed out again.
func Next[T Numbered](items []T, floor int) int {
	highest := floor
	for _, it := range items {
		highest = max(highest, it.Number())
	}
	return highest + 1
}

// SortDesc orders items newest first.
func SortDesc[T Numbered](items []T) {
	slices.SortStableFunc(items, func(a, b T) int {
		return cmp.Compare(b.Number(), a.Number())
	})
}

// Latest returns the highest-numbered item.
func Latest[T Numbered](items []T) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	best := items[0]
	for _, it := range items[1:] {
		if it.Number() > best.Number() {
			best = it
		}
	}
	return best, true
}

// Current returns the highest-numbered item matching preferred, falling back to the
// highest-numbered item of any kind.
func Current[T Numbered](items []T, preferred func(T) bool) (T, bool) {
	var (
		best  T
		found bool
	)
	for _, it := range items {
		if !preferred(it) {
			continue
		}
		if !found || it.Number() > best.Number() {
			best, found = it, true
		}
	}
	if found {
		return best, true
	}
	return Latest(items)
}
