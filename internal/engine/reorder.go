package engine

import "dashboard/internal/domain"

// Reorder returns a copy of seq with the element at from moved to index to.
// All other elements keep their relative order. Out-of-range indexes return
// an unchanged copy.
func Reorder[T any](seq []T, from, to int) []T {
	out := make([]T, len(seq))
	copy(out, seq)
	if from == to || !inRange(from, len(seq)) || !inRange(to, len(seq)) {
		return out
	}
	moved := out[from]
	if from < to {
		copy(out[from:to], out[from+1:to+1])
	} else {
		copy(out[to+1:from+1], out[to:from])
	}
	out[to] = moved
	return out
}

// ReorderFilterOptions moves an option and renumbers every Position to
// match the new slice order.
func ReorderFilterOptions(opts []domain.FilterOption, from, to int) []domain.FilterOption {
	out := Reorder(opts, from, to)
	renumberOptions(out)
	return out
}

func renumberOptions(opts []domain.FilterOption) {
	for i := range opts {
		opts[i].Position = i
	}
}
