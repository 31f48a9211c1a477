// Package types contains the presentation types shared by the service and its adapters.
package types

import (
	"fmt"
	"math"

	"github.com/okian/ladder/internal/domain/model"
)

// RankingRow is one line of the ranking table.
type RankingRow struct {
	Rank       int     `json:"rank"`
	Player     string  `json:"player"`
	Rating     float64 `json:"rating"`
	LastPlayed string  `json:"last_played,omitempty"`
	TotalDelta float64 `json:"total_delta"`
	LastDelta  float64 `json:"last_delta"`
	Change     string  `json:"change"`
	Champion   bool    `json:"champion,omitempty"`
}

// Ranking splits players into active and inactive groups.
type Ranking struct {
	Champion string       `json:"champion,omitempty"`
	Active   []RankingRow `json:"active"`
	Inactive []RankingRow `json:"inactive"`
	AsOf     string       `json:"as_of"`
}

// HistoryEntry is a log record together with its position.
type HistoryEntry struct {
	Position int          `json:"position"`
	Friendly bool         `json:"friendly,omitempty"`
	Record   model.Record `json:"record"`
}

// RoundRating rounds a rating to two decimals for display.
func RoundRating(r float64) float64 {
	return math.Round(r*100) / 100
}

// ChangeLabel renders "total (last)" as signed integers, e.g. "+12 (-3)".
func ChangeLabel(total, last float64) string {
	return fmt.Sprintf("%+d (%+d)", int(math.Round(total)), int(math.Round(last)))
}
