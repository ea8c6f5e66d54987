package fighter

import (
	"testing"

	"github.com/ayusman/cornerman/internal/detector"
)

// box returns a person detection with the given area, placed at x.
func box(x, area float64) detector.Detection {
	return detector.PersonAt(x, 0, x+area/100, 100)
}

func TestLargestSelector_PicksTwoLargestDescending(t *testing.T) {
	dets := []detector.Detection{
		box(0, 500),
		box(100, 10000),
		box(300, 7000),
	}

	pair, ok := LargestSelector{}.Select(dets)
	if !ok {
		t.Fatal("expected a pair")
	}

	if got := pair[0].Box.Area(); got != 10000 {
		t.Errorf("Fighter 1 area = %f, want 10000", got)
	}
	if got := pair[1].Box.Area(); got != 7000 {
		t.Errorf("Fighter 2 area = %f, want 7000", got)
	}
}

func TestLargestSelector_IgnoresOtherClasses(t *testing.T) {
	chair := box(0, 50000)
	chair.ClassID = 56

	dets := []detector.Detection{chair, box(100, 2000), box(300, 3000)}

	pair, ok := LargestSelector{}.Select(dets)
	if !ok {
		t.Fatal("expected a pair")
	}
	if pair[0].Box.Area() != 3000 || pair[1].Box.Area() != 2000 {
		t.Errorf("expected people only, got areas %f and %f", pair[0].Box.Area(), pair[1].Box.Area())
	}
}

func TestLargestSelector_FewerThanTwoPeople(t *testing.T) {
	referee := box(0, 4000)
	cage := box(0, 90000)
	cage.ClassID = 60

	tests := []struct {
		name string
		dets []detector.Detection
	}{
		{"none", nil},
		{"one person", []detector.Detection{referee}},
		{"one person one object", []detector.Detection{referee, cage}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := (LargestSelector{}).Select(tt.dets); ok {
				t.Error("expected no pair")
			}
		})
	}
}

// Labels follow size rank, not identity. When the fighters' boxes swap
// size between frames, the slot labels swap with them.
func TestLargestSelector_LabelsFollowSizeRank(t *testing.T) {
	sel := LargestSelector{}

	a := box(0, 9000)
	b := box(500, 6000)
	pair, _ := sel.Select([]detector.Detection{a, b})
	if pair[0].Box.XMin != 0 {
		t.Fatalf("frame 1: expected box at x=0 as Fighter 1")
	}

	// Same two people, sizes swapped (a went to the ground).
	a = box(0, 5000)
	b = box(500, 8000)
	pair, _ = sel.Select([]detector.Detection{a, b})
	if pair[0].Box.XMin != 500 {
		t.Errorf("frame 2: expected box at x=500 as Fighter 1 after size swap")
	}
}

func TestCentroidSelector_KeepsSlotsAcrossSizeSwap(t *testing.T) {
	sel := &CentroidSelector{}

	pair, ok := sel.Select([]detector.Detection{box(0, 9000), box(500, 6000)})
	if !ok {
		t.Fatal("expected a pair")
	}
	if pair[0].Box.XMin != 0 {
		t.Fatalf("first frame should rank by size")
	}

	pair, ok = sel.Select([]detector.Detection{box(10, 5000), box(490, 8000)})
	if !ok {
		t.Fatal("expected a pair")
	}
	if pair[0].Box.XMin != 10 || pair[1].Box.XMin != 490 {
		t.Errorf("expected slots kept by position, got x=%f and x=%f", pair[0].Box.XMin, pair[1].Box.XMin)
	}

	fresh := &CentroidSelector{}
	pair, _ = fresh.Select([]detector.Detection{box(10, 5000), box(490, 8000)})
	if pair[0].Box.XMin != 490 {
		t.Errorf("a new selector should rank by size, got Fighter 1 at x=%f", pair[0].Box.XMin)
	}
}

func TestCentroidSelector_FewerThanTwoKeepsState(t *testing.T) {
	sel := &CentroidSelector{}
	sel.Select([]detector.Detection{box(0, 9000), box(500, 6000)})

	if _, ok := sel.Select([]detector.Detection{box(0, 9000)}); ok {
		t.Fatal("expected no pair")
	}

	pair, _ := sel.Select([]detector.Detection{box(10, 5000), box(490, 8000)})
	if pair[0].Box.XMin != 10 {
		t.Errorf("expected previous pair to still anchor slots")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		mode    string
		want    string
		wantErr bool
	}{
		{ModeLargest, "largest", false},
		{"", "largest", false},
		{ModeCentroid, "centroid", false},
		{"kalman", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			sel, err := New(tt.mode)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			switch sel.(type) {
			case LargestSelector:
				if tt.want != "largest" {
					t.Errorf("got LargestSelector for %q", tt.mode)
				}
			case *CentroidSelector:
				if tt.want != "centroid" {
					t.Errorf("got CentroidSelector for %q", tt.mode)
				}
			default:
				t.Errorf("unexpected selector type %T", sel)
			}
		})
	}
}
