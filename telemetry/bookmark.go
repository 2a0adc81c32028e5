package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkNonFinite       BookmarkType = "non_finite"
	BookmarkDivergenceSpike BookmarkType = "divergence_spike"
	BookmarkSpeedSpike      BookmarkType = "speed_spike"
	BookmarkDensityLoss     BookmarkType = "density_loss"
	BookmarkQuiescent       BookmarkType = "quiescent"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `json:"type"`
	Tick        int64        `json:"tick"`
	Description string       `json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector watches sampled TickStats for moments worth keeping:
// numerical blowups, sudden loss of incompressibility, and the flow
// settling down.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []TickStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	nonFiniteSeen  bool
	densityPeak    float64
	quiescentCount int // consecutive samples below the energy floor
	wasMoving      bool
}

// QuiescentEnergy is the kinetic energy below which the flow counts as
// settled.
const QuiescentEnergy = 1e-6

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5
	}
	return &BookmarkDetector{
		history:     make([]TickStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats TickStats) []Bookmark {
	var bookmarks []Bookmark

	// Non-finite cells never recover, so report only the first sighting.
	if stats.NonFinite > 0 && !bd.nonFiniteSeen {
		bd.nonFiniteSeen = true
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkNonFinite,
			Tick:        stats.Tick,
			Description: fmt.Sprintf("%d non-finite cells", stats.NonFinite),
		})
	}

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkDivergenceSpike(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkSpeedSpike(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkDensityLoss(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}
	if b := bd.checkQuiescent(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)

	if stats.DensityTotal > bd.densityPeak {
		bd.densityPeak = stats.DensityTotal
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats TickStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []TickStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkDivergenceSpike(stats TickStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.MeanAbsDivergence
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	if stats.MeanAbsDivergence > avg*4.0 && stats.MeanAbsDivergence > 1e-4 {
		return &Bookmark{
			Type:        BookmarkDivergenceSpike,
			Tick:        stats.Tick,
			Description: fmt.Sprintf("Mean |div| %.2e is %.1fx average (%.2e)", stats.MeanAbsDivergence, stats.MeanAbsDivergence/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkSpeedSpike(stats TickStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.MaxSpeed
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	if stats.MaxSpeed > avg*5.0 {
		return &Bookmark{
			Type:        BookmarkSpeedSpike,
			Tick:        stats.Tick,
			Description: fmt.Sprintf("Max speed %.3f is %.1fx average (%.3f)", stats.MaxSpeed, stats.MaxSpeed/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkDensityLoss(stats TickStats) *Bookmark {
	if bd.densityPeak == 0 {
		return nil
	}

	drop := 1.0 - stats.DensityTotal/bd.densityPeak
	if drop > 0.5 {
		oldPeak := bd.densityPeak
		// Reset so a slow drain reports once per halving.
		bd.densityPeak = stats.DensityTotal
		return &Bookmark{
			Type:        BookmarkDensityLoss,
			Tick:        stats.Tick,
			Description: fmt.Sprintf("Density fell %.0f%% from peak %.3f to %.3f", drop*100, oldPeak, stats.DensityTotal),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkQuiescent(stats TickStats) *Bookmark {
	if stats.KineticEnergy >= QuiescentEnergy {
		bd.quiescentCount = 0
		bd.wasMoving = true
		return nil
	}
	if !bd.wasMoving {
		return nil
	}

	bd.quiescentCount++
	if bd.quiescentCount < 3 {
		return nil
	}
	bd.wasMoving = false
	bd.quiescentCount = 0
	return &Bookmark{
		Type:        BookmarkQuiescent,
		Tick:        stats.Tick,
		Description: fmt.Sprintf("Kinetic energy %.2e below %.0e for 3 samples", stats.KineticEnergy, QuiescentEnergy),
	}
}
