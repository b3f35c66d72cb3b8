// Package lcs computes the longest common subsequence of two slices under
// a caller-supplied equality predicate.
package lcs

// Longest returns the longest common subsequence of a and b under eq.
// Elements of the result are taken from a. When several subsequences tie
// in length, the one reached by preferring earlier elements of a is
// returned, so repeated calls over the same inputs are stable.
func Longest[T any](a, b []T, eq func(T, T) bool) []T {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}

	// table[i][j] holds the LCS length of a[i:] and b[j:].
	table := make([][]int, len(a)+1)
	for i := range table {
		table[i] = make([]int, len(b)+1)
	}

	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if eq(a[i], b[j]) {
				table[i][j] = table[i+1][j+1] + 1

				continue
			}

			table[i][j] = table[i+1][j]
			if table[i][j+1] > table[i][j] {
				table[i][j] = table[i][j+1]
			}
		}
	}

	out := make([]T, 0, table[0][0])

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case eq(a[i], b[j]):
			out = append(out, a[i])
			i++
			j++
		case table[i+1][j] >= table[i][j+1]:
			i++
		default:
			j++
		}
	}

	return out
}
