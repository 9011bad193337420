// Package natcmp implements the natural version comparison used to sort
// catalog entries by id and to compare LoaderInfo marker versions during
// installation. Both call sites need byte-for-byte the same ordering, so
// the algorithm lives in one place rather than being duplicated.
package natcmp

// Compare orders two strings the way gummiboot's version comparator does:
// alternating runs of non-digits and digits are compared against each
// other, non-digit runs code-unit by code-unit under a weighting where a
// missing code unit (NUL) sorts first, ASCII digits count as zero,
// lowercase letters sort by code-unit value, and everything else sorts
// after letters; digit runs are compared numerically after skipping
// leading zeros on each side, with a longer remaining digit run always
// sorting larger. When both strings are exhausted without a difference,
// the original strings are compared lexicographically, so "v007" sorts
// before "v7". It returns a negative number if a < b, zero if a == b, and
// positive if a > b.
func Compare(a, b string) int {
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		for (i < len(a) && !isDigit(a[i])) || (j < len(b) && !isDigit(b[j])) {
			var ca, cb byte
			if i < len(a) {
				ca = a[i]
			}
			if j < len(b) {
				cb = b[j]
			}
			if wa, wb := weight(ca), weight(cb); wa != wb {
				return wa - wb
			}
			if i < len(a) {
				i++
			}
			if j < len(b) {
				j++
			}
		}

		for i < len(a) && a[i] == '0' {
			i++
		}
		for j < len(b) && b[j] == '0' {
			j++
		}

		digitDiff := 0
		for i < len(a) && j < len(b) && isDigit(a[i]) && isDigit(b[j]) {
			if digitDiff == 0 && a[i] != b[j] {
				digitDiff = int(a[i]) - int(b[j])
			}
			i++
			j++
		}
		iHasMore := i < len(a) && isDigit(a[i])
		jHasMore := j < len(b) && isDigit(b[j])
		if iHasMore && !jHasMore {
			return 1
		}
		if jHasMore && !iHasMore {
			return -1
		}
		if digitDiff != 0 {
			return digitDiff
		}
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// weight orders a code unit the way the comparator's non-digit run
// requires: NUL (including a position past the end of the string) first,
// digits as zero (so they never differentiate two non-digit runs),
// lowercase letters by code-unit value, everything else after letters.
func weight(c byte) int {
	switch {
	case c == 0:
		return -1
	case isDigit(c):
		return 0
	case c >= 'a' && c <= 'z':
		return int(c)
	default:
		return int(c) + 0x10000
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// Less reports whether a sorts strictly before b under Compare, for use
// directly with sort.Slice.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}
