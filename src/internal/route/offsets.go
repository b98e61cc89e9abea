package route

import "sort"

// selectOffsets returns the distinct in-range offsets in ascending order.
func selectOffsets(offsets []int, length int) []int {
	seen := make(map[int]bool, len(offsets))
	result := make([]int, 0, len(offsets))
	for _, i := range offsets {
		if i < 0 || i >= length || seen[i] {
			continue
		}
		seen[i] = true
		result = append(result, i)
	}
	sort.Ints(result)
	return result
}

// removeOffsets returns items without the elements at the given offsets.
func removeOffsets[T any](items []T, offsets []int) []T {
	selected := selectOffsets(offsets, len(items))
	if len(selected) == 0 {
		return items
	}

	result := make([]T, 0, len(items)-len(selected))
	next := 0
	for i, item := range items {
		if next < len(selected) && selected[next] == i {
			next++
			continue
		}
		result = append(result, item)
	}
	return result
}

// moveOffsets moves the elements at offsets (keeping their relative order) so
// that they end up right before the element that was at position to. A
// destination equal to len(items) moves them to the end.
func moveOffsets[T any](items []T, offsets []int, to int) []T {
	selected := selectOffsets(offsets, len(items))
	if len(selected) == 0 {
		return items
	}
	if to < 0 {
		to = 0
	}
	if to > len(items) {
		to = len(items)
	}

	moved := make([]T, 0, len(selected))
	rest := make([]T, 0, len(items)-len(selected))
	insertAt := to
	next := 0
	for i, item := range items {
		if next < len(selected) && selected[next] == i {
			moved = append(moved, item)
			next++
			if i < to {
				insertAt--
			}
			continue
		}
		rest = append(rest, item)
	}

	result := make([]T, 0, len(items))
	result = append(result, rest[:insertAt]...)
	result = append(result, moved...)
	result = append(result, rest[insertAt:]...)
	return result
}
