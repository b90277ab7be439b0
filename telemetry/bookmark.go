package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkExtinction     BookmarkType = "extinction"
	BookmarkGrassDepleted  BookmarkType = "grass_depleted"
	BookmarkRabbitCrash    BookmarkType = "rabbit_crash"
	BookmarkStarvationWave BookmarkType = "starvation_wave"
	BookmarkStableMeadow   BookmarkType = "stable_meadow"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	recentRabbitPeak   int
	stableWindowsCount int
	prev               *WindowStats
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 4 {
		historySize = 4 // minimum for stability detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.prev != nil {
		bookmarks = append(bookmarks, bd.checkExtinction(stats)...)
		if b := bd.checkGrassDepleted(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}
	if b := bd.checkRabbitCrash(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if stats.Starvations >= 3 {
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkStarvationWave,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d agents starved in one window", stats.Starvations),
		})
	}
	if b := bd.checkStable(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	if stats.Rabbits > bd.recentRabbitPeak {
		bd.recentRabbitPeak = stats.Rabbits
	}
	prev := stats
	bd.prev = &prev

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkExtinction(stats WindowStats) []Bookmark {
	var out []Bookmark
	if bd.prev.Rabbits > 0 && stats.Rabbits == 0 {
		out = append(out, Bookmark{
			Type:        BookmarkExtinction,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Rabbits died out (was %d)", bd.prev.Rabbits),
		})
	}
	if bd.prev.Foxes > 0 && stats.Foxes == 0 {
		out = append(out, Bookmark{
			Type:        BookmarkExtinction,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Foxes died out (was %d)", bd.prev.Foxes),
		})
	}
	return out
}

func (bd *BookmarkDetector) checkGrassDepleted(stats WindowStats) *Bookmark {
	if bd.prev.Grass == 0 || stats.Grass > 0 || stats.Rabbits == 0 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkGrassDepleted,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Grass gone with %d rabbits foraging", stats.Foraging),
	}
}

func (bd *BookmarkDetector) checkRabbitCrash(stats WindowStats) *Bookmark {
	if bd.recentRabbitPeak == 0 {
		return nil
	}

	dropPercent := 1.0 - float64(stats.Rabbits)/float64(bd.recentRabbitPeak)
	if dropPercent > 0.30 && stats.Rabbits <= bd.recentRabbitPeak-3 {
		oldPeak := bd.recentRabbitPeak
		bd.recentRabbitPeak = stats.Rabbits

		return &Bookmark{
			Type:        BookmarkRabbitCrash,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Rabbits crashed %.0f%% from peak %d to %d", dropPercent*100, oldPeak, stats.Rabbits),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkStable(stats WindowStats) *Bookmark {
	if stats.Rabbits == 0 || stats.Grass == 0 {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	// Coefficient of variation over the last three windows plus this one.
	rabbits := []float64{float64(stats.Rabbits)}
	grass := []float64{float64(stats.Grass)}
	for _, h := range history[len(history)-3:] {
		rabbits = append(rabbits, float64(h.Rabbits))
		grass = append(grass, float64(h.Grass))
	}
	rm, rs := stat.PopMeanStdDev(rabbits, nil)
	gm, gs := stat.PopMeanStdDev(grass, nil)

	if rs/rm < 0.2 && gs/gm < 0.2 {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == 5 { // trigger exactly once
		return &Bookmark{
			Type:        BookmarkStableMeadow,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Stable meadow with %d rabbits, %d grass over 5 windows", stats.Rabbits, stats.Grass),
		}
	}

	return nil
}
