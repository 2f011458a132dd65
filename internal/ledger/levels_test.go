package ledger

import "testing"

func TestLevelsFor(t *testing.T) {
	cases := []struct {
		total int64
		want  int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{299, 2},
		{300, 3},
		{3999, 7},
		{4000, 8},
		{1_000_000, 8},
	}
	for _, tc := range cases {
		if got := DefaultLevels.For(tc.total); got != tc.want {
			t.Fatalf("total %d: expected level %d, got %d", tc.total, tc.want, got)
		}
	}
}

func TestLevelsNeverBelowOne(t *testing.T) {
	levels, err := NewLevels([]int64{50, 200})
	if err != nil {
		t.Fatalf("new levels: %v", err)
	}
	if got := levels.For(10); got != 1 {
		t.Fatalf("expected level 1 below first threshold, got %d", got)
	}
	if got := levels.For(200); got != 2 {
		t.Fatalf("expected level 2, got %d", got)
	}
}

func TestNewLevelsValidates(t *testing.T) {
	if levels, err := NewLevels(nil); err != nil || len(levels) != len(DefaultLevels) {
		t.Fatalf("expected defaults, got %v err=%v", levels, err)
	}
	if _, err := NewLevels([]int64{0, 300, 100}); err == nil {
		t.Fatalf("expected error for unsorted thresholds")
	}
	if _, err := NewLevels([]int64{0, 100, 100}); err == nil {
		t.Fatalf("expected error for duplicate thresholds")
	}
}
