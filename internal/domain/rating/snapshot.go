package rating

import (
	"sort"
)

// state is the mutable accumulator of a single replay. It never leaves Compute.
type state struct {
	rating    map[string]float64
	baseline  map[string]float64
	lastDate  map[string]string
	lastDelta map[string]float64
	played    map[string]struct{}
}

func newState(seeds map[string]float64) *state {
	st := &state{
		rating:    make(map[string]float64, len(seeds)),
		baseline:  make(map[string]float64, len(seeds)),
		lastDate:  make(map[string]string),
		lastDelta: make(map[string]float64),
		played:    make(map[string]struct{}),
	}
	for name, r := range seeds {
		st.rating[name] = r
		st.baseline[name] = r
	}
	return st
}

func (st *state) seed(p string, r float64) {
	if _, ok := st.rating[p]; ok {
		return
	}
	st.rating[p] = r
	st.baseline[p] = r
}

func (st *state) mean(team []string) float64 {
	sum := 0.0
	for _, p := range team {
		sum += st.rating[p]
	}
	return sum / float64(len(team))
}

func (st *state) touch(p string, delta float64, date string) {
	st.rating[p] += delta
	st.lastDelta[p] = delta
	st.lastDate[p] = date
	st.played[p] = struct{}{}
}

func (st *state) snapshot() Snapshot {
	total := make(map[string]float64, len(st.rating))
	for p, r := range st.rating {
		total[p] = r - st.baseline[p]
	}
	return Snapshot{
		rating:     st.rating,
		lastDate:   st.lastDate,
		totalDelta: total,
		lastDelta:  st.lastDelta,
		played:     st.played,
	}
}

// Snapshot is the immutable result of a replay. Accessors return copies.
type Snapshot struct {
	rating     map[string]float64
	lastDate   map[string]string
	totalDelta map[string]float64
	lastDelta  map[string]float64
	played     map[string]struct{}
}

// Standing is one player's row of a snapshot.
type Standing struct {
	Player     string
	Rating     float64
	LastDate   string
	TotalDelta float64
	LastDelta  float64
	Played     bool
}

// Len returns the number of rated players.
func (s Snapshot) Len() int { return len(s.rating) }

// Has reports whether the player has a rating entry.
func (s Snapshot) Has(p string) bool {
	_, ok := s.rating[p]
	return ok
}

// Rating returns the current rating of p and whether p is known.
func (s Snapshot) Rating(p string) (float64, bool) {
	r, ok := s.rating[p]
	return r, ok
}

// LastDate returns the date text of the last event touching p ("" if none).
func (s Snapshot) LastDate(p string) string { return s.lastDate[p] }

// TotalDelta returns rating minus baseline for p.
func (s Snapshot) TotalDelta(p string) float64 { return s.totalDelta[p] }

// LastDelta returns p's change from their most recent event.
func (s Snapshot) LastDelta(p string) float64 { return s.lastDelta[p] }

// Played reports whether p took part in at least one rated match.
func (s Snapshot) Played(p string) bool {
	_, ok := s.played[p]
	return ok
}

// Ratings returns a copy of the rating map.
func (s Snapshot) Ratings() map[string]float64 { return copyFloats(s.rating) }

// TotalDeltas returns a copy of the total-change map.
func (s Snapshot) TotalDeltas() map[string]float64 { return copyFloats(s.totalDelta) }

// LastDeltas returns a copy of the last-change map.
func (s Snapshot) LastDeltas() map[string]float64 { return copyFloats(s.lastDelta) }

// LastDates returns a copy of the last-event-date map.
func (s Snapshot) LastDates() map[string]string {
	out := make(map[string]string, len(s.lastDate))
	for k, v := range s.lastDate {
		out[k] = v
	}
	return out
}

// ActivePlayers returns the sorted names of players with a rated match.
func (s Snapshot) ActivePlayers() []string {
	out := make([]string, 0, len(s.played))
	for p := range s.played {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Players returns all rated player names in alphabetical order.
func (s Snapshot) Players() []string {
	out := make([]string, 0, len(s.rating))
	for p := range s.rating {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Standings returns every player ordered by rating descending. Equal ratings
// are ordered alphabetically by name.
func (s Snapshot) Standings() []Standing {
	out := make([]Standing, 0, len(s.rating))
	for p, r := range s.rating {
		out = append(out, Standing{
			Player:     p,
			Rating:     r,
			LastDate:   s.lastDate[p],
			TotalDelta: s.totalDelta[p],
			LastDelta:  s.lastDelta[p],
			Played:     s.Played(p),
		})
	}
	SortStandings(out)
	return out
}

// SortStandings orders rows by rating descending, then name ascending.
func SortStandings(rows []Standing) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Rating != rows[j].Rating {
			return rows[i].Rating > rows[j].Rating
		}
		return rows[i].Player < rows[j].Player
	})
}

func copyFloats(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
