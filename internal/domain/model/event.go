// Package model contains domain models passed between layers.
package model

import (
	"strconv"
	"strings"
	"time"
)

// EventType is the value of the "type" column of a log record.
type EventType string

// Known event types. Anything else is kept verbatim and ignored by the replay.
const (
	TypeSingles         EventType = "singles"
	TypeDoubles         EventType = "doubles"
	TypeFriendlySingles EventType = "friendly_singles"
	TypeFriendlyDoubles EventType = "friendly_doubles"
	TypeAdjust          EventType = "adjust"
)

// Winner values stored in the "winner" column.
const (
	WinnerA = "A"
	WinnerB = "B"
)

// TeamSeparator joins doubles partners inside team_a/team_b.
const TeamSeparator = "+"

// Column names of the log, in storage order.
const (
	ColDate   = "date"
	ColType   = "type"
	ColTeamA  = "team_a"
	ColTeamB  = "team_b"
	ColWinner = "winner"
	ColScore  = "score"
	ColSets   = "sets"
	ColReason = "reason"
)

// Columns is the fixed field order of every stored record.
var Columns = []string{ColDate, ColType, ColTeamA, ColTeamB, ColWinner, ColScore, ColSets, ColReason}

// IsMatch reports whether the type is a rated match.
func (t EventType) IsMatch() bool { return t == TypeSingles || t == TypeDoubles }

// IsFriendly reports whether the type is an unrated friendly match.
func (t EventType) IsFriendly() bool {
	return t == TypeFriendlySingles || t == TypeFriendlyDoubles
}

// Record is one row of the event log exactly as stored. All fields are text.
type Record struct {
	Date   string `json:"date"`
	Type   string `json:"type"`
	TeamA  string `json:"team_a"`
	TeamB  string `json:"team_b"`
	Winner string `json:"winner"`
	Score  string `json:"score"`
	Sets   string `json:"sets"`
	Reason string `json:"reason"`
}

// RecordFromMap builds a Record from a loosely keyed row. Missing keys become "".
func RecordFromMap(row map[string]string) Record {
	return Record{
		Date:   row[ColDate],
		Type:   row[ColType],
		TeamA:  row[ColTeamA],
		TeamB:  row[ColTeamB],
		Winner: row[ColWinner],
		Score:  row[ColScore],
		Sets:   row[ColSets],
		Reason: row[ColReason],
	}
}

// RecordFromValues maps positional values in Columns order. Short rows are padded with "".
func RecordFromValues(values []string) Record {
	row := make(map[string]string, len(Columns))
	for i, col := range Columns {
		if i < len(values) {
			row[col] = values[i]
		}
	}
	return RecordFromMap(row)
}

// Map returns the record keyed by column name.
func (r Record) Map() map[string]string {
	values := r.Values()
	m := make(map[string]string, len(Columns))
	for i, col := range Columns {
		m[col] = values[i]
	}
	return m
}

// Values returns the record fields in Columns order.
func (r Record) Values() []string {
	return []string{r.Date, r.Type, r.TeamA, r.TeamB, r.Winner, r.Score, r.Sets, r.Reason}
}

// Event is the typed view of a Record. It is produced once at the read
// boundary so the replay never touches raw text.
type Event struct {
	Type     EventType
	DateText string
	Date     time.Time // zero when DateText does not parse
	TeamA    []string
	TeamB    []string
	Winner   string
	Score    string
	Sets     string
	Reason   string

	// Adjust-only fields.
	Player string
	Delta  float64
}

// Parse converts a stored record into an Event.
func Parse(r Record) Event {
	e := Event{
		Type:     EventType(strings.TrimSpace(r.Type)),
		DateText: strings.TrimSpace(r.Date),
		Winner:   strings.TrimSpace(r.Winner),
		Score:    r.Score,
		Sets:     r.Sets,
		Reason:   r.Reason,
	}
	if d, ok := ParseDate(e.DateText); ok {
		e.Date = d
	}
	if e.Type == TypeAdjust {
		e.Player = strings.TrimSpace(r.TeamA)
		e.Delta = ParseDelta(r.TeamB)
		return e
	}
	e.TeamA = SplitTeam(r.TeamA)
	e.TeamB = SplitTeam(r.TeamB)
	return e
}

// ParseAll parses records preserving order.
func ParseAll(records []Record) []Event {
	events := make([]Event, len(records))
	for i, r := range records {
		events[i] = Parse(r)
	}
	return events
}

// ParseDelta parses an adjustment delta. It never fails: empty, malformed,
// NaN or infinite input yields 0.
func ParseDelta(text string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || v != v || v > maxDelta || v < -maxDelta {
		return 0
	}
	return v
}

const maxDelta = 1e12

// SplitTeam splits a team cell on TeamSeparator, trimming and dropping empty names.
func SplitTeam(cell string) []string {
	parts := strings.Split(cell, TeamSeparator)
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

// JoinTeam is the inverse of SplitTeam.
func JoinTeam(names ...string) string {
	return strings.Join(names, TeamSeparator)
}
