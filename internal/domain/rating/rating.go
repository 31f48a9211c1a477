// Package rating replays the event log into ELO ratings.
//
// The engine is a pure fold over an ordered slice of events. It keeps no
// state between calls, so deleting any historical record is handled by
// simply replaying the shortened log.
package rating

import (
	"math"
	"strings"

	"github.com/okian/ladder/internal/domain/model"
)

// Default engine parameters.
const (
	DefaultRating   = 1000.0
	DefaultKSingles = 24.0
	DefaultKDoubles = 36.0
	DefaultScale    = 400.0

	// DefaultNewPlayerMarker prefixes the reason of an adjustment that
	// registers a new player. The new-player form writes it and the replay
	// matches on it; the two must change together.
	DefaultNewPlayerMarker = "Přidání hráče"
)

// DefaultSeeds returns the starting ratings of the founding players.
func DefaultSeeds() map[string]float64 {
	return map[string]float64{
		"Tobi":  1200,
		"Kuba":  1100,
		"Jirka": 1040,
		"Kávič": 1040,
		"Ríša":  1030,
		"Novas": 1030,
	}
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithSeeds replaces the seed table. The map is copied.
func WithSeeds(seeds map[string]float64) Option {
	return func(e *Engine) {
		if seeds == nil {
			return
		}
		e.seeds = make(map[string]float64, len(seeds))
		for name, r := range seeds {
			if name = strings.TrimSpace(name); name != "" {
				e.seeds[name] = r
			}
		}
	}
}

// WithDefaultRating sets the rating given to players missing from the seed table.
func WithDefaultRating(r float64) Option {
	return func(e *Engine) {
		if r > 0 {
			e.defaultRating = r
		}
	}
}

// WithKFactors sets the K-factors for singles and doubles.
func WithKFactors(singles, doubles float64) Option {
	return func(e *Engine) {
		if singles > 0 {
			e.kSingles = singles
		}
		if doubles > 0 {
			e.kDoubles = doubles
		}
	}
}

// WithScale sets the logistic scale of the expected-score formula.
func WithScale(scale float64) Option {
	return func(e *Engine) {
		if scale > 0 {
			e.scale = scale
		}
	}
}

// WithNewPlayerMarker sets the reason prefix that marks a new-player adjustment.
func WithNewPlayerMarker(marker string) Option {
	return func(e *Engine) {
		if marker != "" {
			e.marker = marker
		}
	}
}

// Engine computes ranking snapshots. It is immutable after construction and
// safe for concurrent use.
type Engine struct {
	seeds         map[string]float64
	defaultRating float64
	kSingles      float64
	kDoubles      float64
	scale         float64
	marker        string
}

// NewEngine creates an engine with the default parameters and applies opts.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		seeds:         DefaultSeeds(),
		defaultRating: DefaultRating,
		kSingles:      DefaultKSingles,
		kDoubles:      DefaultKDoubles,
		scale:         DefaultScale,
		marker:        DefaultNewPlayerMarker,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DefaultRating returns the rating of an unseeded player.
func (e *Engine) DefaultRating() float64 { return e.defaultRating }

// NewPlayerMarker returns the reason prefix of new-player adjustments.
func (e *Engine) NewPlayerMarker() string { return e.marker }

// ExpectedScore is the logistic ELO expectation of a side rated ra against rb.
func ExpectedScore(ra, rb, scale float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (rb-ra)/scale))
}

// ComputeRecords parses stored records and replays them.
func (e *Engine) ComputeRecords(records []model.Record) Snapshot {
	return e.Compute(model.ParseAll(records))
}

// Compute replays events in order and returns the resulting snapshot.
func (e *Engine) Compute(events []model.Event) Snapshot {
	st := newState(e.seeds)
	for i := range events {
		ev := &events[i]
		switch ev.Type {
		case model.TypeAdjust:
			e.applyAdjust(st, ev)
		case model.TypeSingles:
			e.applyMatch(st, ev, e.kSingles)
		case model.TypeDoubles:
			e.applyMatch(st, ev, e.kDoubles)
		default:
			// friendlies and unknown types are history only
		}
	}
	return st.snapshot()
}

func (e *Engine) applyAdjust(st *state, ev *model.Event) {
	p := ev.Player
	if p == "" {
		return
	}
	st.seed(p, e.defaultRating)
	st.rating[p] += ev.Delta
	if strings.HasPrefix(strings.TrimSpace(ev.Reason), e.marker) {
		st.baseline[p] = st.rating[p]
		st.lastDelta[p] = 0
	} else {
		st.lastDelta[p] = ev.Delta
	}
	st.lastDate[p] = ev.DateText
}

func (e *Engine) applyMatch(st *state, ev *model.Event, k float64) {
	if len(ev.TeamA) == 0 || len(ev.TeamB) == 0 {
		return
	}
	for _, p := range ev.TeamA {
		st.seed(p, e.defaultRating)
	}
	for _, p := range ev.TeamB {
		st.seed(p, e.defaultRating)
	}

	ra := st.mean(ev.TeamA)
	rb := st.mean(ev.TeamB)
	ea := ExpectedScore(ra, rb, e.scale)
	sa := 0.0
	if ev.Winner == model.WinnerA {
		sa = 1.0
	}
	delta := k * (sa - ea)

	perA := delta / float64(len(ev.TeamA))
	perB := -delta / float64(len(ev.TeamB))
	for _, p := range ev.TeamA {
		st.touch(p, perA, ev.DateText)
	}
	for _, p := range ev.TeamB {
		st.touch(p, perB, ev.DateText)
	}
}
