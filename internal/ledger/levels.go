package ledger

import (
	"fmt"
	"sort"
)

// DefaultLevels are the point totals at which each level starts.
var DefaultLevels = Levels{0, 100, 300, 600, 1000, 1500, 2500, 4000}

// Levels is an ascending list of level thresholds. Level n starts at Levels[n-1].
type Levels []int64

// NewLevels validates thresholds and falls back to DefaultLevels when empty.
func NewLevels(thresholds []int64) (Levels, error) {
	if len(thresholds) == 0 {
		return DefaultLevels, nil
	}
	if !sort.SliceIsSorted(thresholds, func(i, j int) bool { return thresholds[i] < thresholds[j] }) {
		return nil, fmt.Errorf("level thresholds must be ascending: %v", thresholds)
	}
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i] == thresholds[i-1] {
			return nil, fmt.Errorf("duplicate level threshold %d", thresholds[i])
		}
	}
	return Levels(thresholds), nil
}

// For returns the level reached with total points. It never decreases as total grows.
func (l Levels) For(total int64) int {
	level := sort.Search(len(l), func(i int) bool { return l[i] > total })
	if level == 0 {
		return 1
	}
	return level
}
