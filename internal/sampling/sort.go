package sampling

import (
	"fmt"
	"slices"
)

// SortSamples orders a clip. items[0] is the key sample. KeyFirst returns the
// items unchanged; Temporal stable-sorts by frame index with a missing index
// counted as 0.
func SortSamples[T any](order FrameOrder, items []T, frameIndex func(T) (int, bool)) ([]T, error) {
	switch order {
	case KeyFirst:
		return items, nil
	case Temporal:
		sorted := slices.Clone(items)
		slices.SortStableFunc(sorted, func(a, b T) int {
			return indexOrZero(frameIndex, a) - indexOrZero(frameIndex, b)
		})
		return sorted, nil
	default:
		return nil, fmt.Errorf("unsupported frame order %s", order)
	}
}

func indexOrZero[T any](frameIndex func(T) (int, bool), item T) int {
	if idx, ok := frameIndex(item); ok {
		return idx
	}
	return 0
}
