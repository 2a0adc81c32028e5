package telemetry

import (
	"math"
	"testing"
)

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_NonFiniteOnce(t *testing.T) {
	bd := NewBookmarkDetector(10)

	bookmarks := bd.Check(TickStats{Tick: 10, NonFinite: 4})
	if !hasBookmark(bookmarks, BookmarkNonFinite) {
		t.Fatal("expected non_finite bookmark")
	}

	bookmarks = bd.Check(TickStats{Tick: 20, NonFinite: 8})
	if hasBookmark(bookmarks, BookmarkNonFinite) {
		t.Error("non_finite should only be reported once")
	}
}

func TestBookmarkDetector_DivergenceSpike(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(TickStats{Tick: int64(i * 60), MeanAbsDivergence: 1e-4, MaxSpeed: 1})
	}

	bookmarks := bd.Check(TickStats{Tick: 300, MeanAbsDivergence: 1e-3, MaxSpeed: 1})
	if !hasBookmark(bookmarks, BookmarkDivergenceSpike) {
		t.Error("expected divergence_spike bookmark")
	}
}

func TestBookmarkDetector_NoSpikeOnSteadyFlow(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 10; i++ {
		bookmarks := bd.Check(TickStats{
			Tick:              int64(i * 60),
			DensityTotal:      100,
			KineticEnergy:     1,
			MaxSpeed:          2,
			MeanAbsDivergence: 1e-4,
		})
		if len(bookmarks) != 0 {
			t.Fatalf("sample %d: unexpected bookmarks %v", i, bookmarks)
		}
	}
}

func TestBookmarkDetector_SpeedSpike(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 4; i++ {
		bd.Check(TickStats{Tick: int64(i), MaxSpeed: 1})
	}

	bookmarks := bd.Check(TickStats{Tick: 4, MaxSpeed: 10})
	if !hasBookmark(bookmarks, BookmarkSpeedSpike) {
		t.Error("expected speed_spike bookmark")
	}
}

func TestBookmarkDetector_DensityLoss(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 3; i++ {
		bd.Check(TickStats{Tick: int64(i), DensityTotal: 100})
	}

	bookmarks := bd.Check(TickStats{Tick: 3, DensityTotal: 40})
	if !hasBookmark(bookmarks, BookmarkDensityLoss) {
		t.Fatal("expected density_loss bookmark")
	}

	// Peak was reset to 40, so a small further drop is quiet.
	bookmarks = bd.Check(TickStats{Tick: 4, DensityTotal: 35})
	if hasBookmark(bookmarks, BookmarkDensityLoss) {
		t.Error("density_loss should not re-trigger until the next halving")
	}
}

func TestBookmarkDetector_Quiescent(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Never moved: no bookmark however long it stays still.
	for i := 0; i < 5; i++ {
		if hasBookmark(bd.Check(TickStats{Tick: int64(i)}), BookmarkQuiescent) {
			t.Fatal("quiescent reported for a flow that never moved")
		}
	}

	bd.Check(TickStats{Tick: 5, KineticEnergy: 1})

	var fired int
	for i := 6; i < 12; i++ {
		if hasBookmark(bd.Check(TickStats{Tick: int64(i), KineticEnergy: QuiescentEnergy / 10}), BookmarkQuiescent) {
			fired++
		}
	}
	if fired != 1 {
		t.Errorf("quiescent fired %d times, want 1", fired)
	}
}

func TestBookmarkDetector_NaNStatsDoNotPanic(t *testing.T) {
	bd := NewBookmarkDetector(5)
	nan := math.NaN()
	for i := 0; i < 8; i++ {
		bd.Check(TickStats{Tick: int64(i), DensityTotal: nan, MaxSpeed: nan, MeanAbsDivergence: nan, NonFinite: 1})
	}
}
