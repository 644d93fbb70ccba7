package sanitizer

import "slices"

// NormalizeSeats returns a sorted copy of seats without duplicates. Non-positive
// numbers are kept so validation can still reject them.
func NormalizeSeats(seats []int) []int {
	if len(seats) == 0 {
		return []int{}
	}

	out := slices.Clone(seats)
	slices.Sort(out)
	return slices.Compact(out)
}

// MergeSeats returns the sorted union of a and b.
func MergeSeats(a, b []int) []int {
	return NormalizeSeats(append(slices.Clone(a), b...))
}

// RemoveSeats returns from without any seat in remove, preserving order.
func RemoveSeats(from, remove []int) []int {
	out := make([]int, 0, len(from))
	for _, s := range from {
		if !slices.Contains(remove, s) {
			out = append(out, s)
		}
	}
	return out
}
