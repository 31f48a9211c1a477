// Package forms validates user input and turns it into log records.
//
// Nothing here touches storage: a builder either returns a complete
// model.Record ready to append or an error wrapping ErrValidation.
package forms

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/internal/domain/rating"
)

// Sentinel kinds for form errors.
var (
	ErrValidation      = errors.New("validation failed")
	ErrDuplicatePlayer = errors.New("players must not repeat")
	ErrPlayerExists    = errors.New("player already exists")
)

// Kind is a user-facing match kind.
type Kind string

// Match kinds accepted by the match form.
const (
	KindSingles         Kind = "singles"
	KindDoubles         Kind = "doubles"
	KindFriendlySingles Kind = "friendly_singles"
	KindFriendlyDoubles Kind = "friendly_doubles"
)

// kindLabels maps display labels to kinds.
var kindLabels = map[string]Kind{
	"singles":            KindSingles,
	"doubles":            KindDoubles,
	"friendly (singles)": KindFriendlySingles,
	"friendly (doubles)": KindFriendlyDoubles,
	"friendly_singles":   KindFriendlySingles,
	"friendly_doubles":   KindFriendlyDoubles,
}

// ParseKind accepts either the internal type string or the display label.
func ParseKind(s string) (Kind, error) {
	k, ok := kindLabels[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: unknown match kind %q", ErrValidation, s)
	}
	return k, nil
}

// EventType maps the kind to the stored type string.
func (k Kind) EventType() model.EventType {
	switch k {
	case KindDoubles:
		return model.TypeDoubles
	case KindFriendlySingles:
		return model.TypeFriendlySingles
	case KindFriendlyDoubles:
		return model.TypeFriendlyDoubles
	default:
		return model.TypeSingles
	}
}

// TeamSize is the number of players per side.
func (k Kind) TeamSize() int {
	if k == KindDoubles || k == KindFriendlyDoubles {
		return 2
	}
	return 1
}

// MatchInput is the match-entry form.
type MatchInput struct {
	Date   time.Time
	Kind   Kind
	TeamA  []string
	TeamB  []string
	Winner string
	Score  string
	Sets   string
}

// AdjustmentInput is the manual adjustment form.
type AdjustmentInput struct {
	Date   time.Time
	Player string
	Delta  int
	Reason string
}

// NewPlayerInput is the new-player form.
type NewPlayerInput struct {
	Date           time.Time
	Name           string
	StartingRating int
}

// Builder builds records. The zero value is not usable; see NewBuilder.
type Builder struct {
	marker        string
	defaultRating float64
	now           func() time.Time
}

// NewBuilder returns a builder that writes the engine's new-player marker
// and default rating, so the form and the replay cannot drift apart.
func NewBuilder(engine *rating.Engine, now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{
		marker:        engine.NewPlayerMarker(),
		defaultRating: engine.DefaultRating(),
		now:           now,
	}
}

func (b *Builder) date(d time.Time) string {
	if d.IsZero() {
		d = b.now()
	}
	return model.FormatDate(d)
}

// Match validates a match form.
func (b *Builder) Match(in MatchInput) (model.Record, error) {
	size := in.Kind.TeamSize()
	if _, ok := kindLabels[string(in.Kind)]; !ok {
		return model.Record{}, fmt.Errorf("%w: unknown match kind %q", ErrValidation, in.Kind)
	}
	teamA, err := cleanTeam("A", in.TeamA, size)
	if err != nil {
		return model.Record{}, err
	}
	teamB, err := cleanTeam("B", in.TeamB, size)
	if err != nil {
		return model.Record{}, err
	}
	seen := make(map[string]struct{}, 2*size)
	for _, p := range append(append([]string{}, teamA...), teamB...) {
		if _, dup := seen[p]; dup {
			return model.Record{}, fmt.Errorf("%w: %w: %s", ErrValidation, ErrDuplicatePlayer, p)
		}
		seen[p] = struct{}{}
	}
	winner := strings.ToUpper(strings.TrimSpace(in.Winner))
	if winner != model.WinnerA && winner != model.WinnerB {
		return model.Record{}, fmt.Errorf("%w: winner must be A or B", ErrValidation)
	}
	return model.Record{
		Date:   b.date(in.Date),
		Type:   string(in.Kind.EventType()),
		TeamA:  model.JoinTeam(teamA...),
		TeamB:  model.JoinTeam(teamB...),
		Winner: winner,
		Score:  strings.TrimSpace(in.Score),
		Sets:   strings.TrimSpace(in.Sets),
	}, nil
}

// Adjustment validates a manual rating correction.
func (b *Builder) Adjustment(in AdjustmentInput) (model.Record, error) {
	player := strings.TrimSpace(in.Player)
	if err := checkName(player); err != nil {
		return model.Record{}, err
	}
	return model.Record{
		Date:   b.date(in.Date),
		Type:   string(model.TypeAdjust),
		TeamA:  player,
		TeamB:  strconv.Itoa(in.Delta),
		Reason: strings.TrimSpace(in.Reason),
	}, nil
}

// NewPlayer validates a registration against the currently known players.
func (b *Builder) NewPlayer(in NewPlayerInput, known []string) (model.Record, error) {
	name := strings.TrimSpace(in.Name)
	if err := checkName(name); err != nil {
		return model.Record{}, err
	}
	for _, k := range known {
		if k == name {
			return model.Record{}, fmt.Errorf("%w: %w: %s", ErrValidation, ErrPlayerExists, name)
		}
	}
	if in.StartingRating <= 0 {
		return model.Record{}, fmt.Errorf("%w: starting rating must be positive", ErrValidation)
	}
	delta := in.StartingRating - int(b.defaultRating)
	return model.Record{
		Date:   b.date(in.Date),
		Type:   string(model.TypeAdjust),
		TeamA:  name,
		TeamB:  strconv.Itoa(delta),
		Reason: fmt.Sprintf("%s(%d ELO)", b.marker, in.StartingRating),
	}, nil
}

func cleanTeam(side string, names []string, size int) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if err := checkName(n); err != nil {
			return nil, fmt.Errorf("team %s: %w", side, err)
		}
		out = append(out, n)
	}
	if len(out) != size {
		return nil, fmt.Errorf("%w: team %s needs %d player(s), got %d", ErrValidation, side, size, len(out))
	}
	return out, nil
}

// checkName rejects empty names and names that would corrupt the team cell.
func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: player name is required", ErrValidation)
	}
	if strings.Contains(name, model.TeamSeparator) {
		return fmt.Errorf("%w: player name must not contain %q", ErrValidation, model.TeamSeparator)
	}
	return nil
}
