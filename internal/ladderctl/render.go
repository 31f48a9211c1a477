package ladderctl

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/okian/ladder/internal/domain/types"
)

const crown = "👑 "

// PrintRanking writes both ranking groups as aligned tables.
func PrintRanking(w io.Writer, r types.Ranking) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Ranking as of %s\n\n", r.AsOf)
	fmt.Fprintln(tw, "ACTIVE")
	writeRows(tw, r.Active)
	fmt.Fprintln(tw, "\nINACTIVE")
	writeRows(tw, r.Inactive)
	return tw.Flush()
}

func writeRows(tw *tabwriter.Writer, rows []types.RankingRow) {
	if len(rows) == 0 {
		fmt.Fprintln(tw, "  (none)")
		return
	}
	fmt.Fprintln(tw, "#\tPLAYER\tELO\tLAST PLAYED\tCHANGE")
	for _, row := range rows {
		name := row.Player
		if row.Champion {
			name = crown + name
		}
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\t%s\n", row.Rank, name, row.Rating, row.LastPlayed, row.Change)
	}
}

// PrintHistory writes the log newest-first with positions.
func PrintHistory(w io.Writer, entries []types.HistoryEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "POS\tDATE\tTYPE\tTEAM A\tTEAM B\tWINNER\tSCORE\tSETS\tREASON")
	for _, e := range entries {
		r := e.Record
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Position, r.Date, r.Type, r.TeamA, r.TeamB, r.Winner, r.Score, r.Sets, r.Reason)
	}
	return tw.Flush()
}

// PrintPlayers writes one name per line.
func PrintPlayers(w io.Writer, players []string) error {
	_, err := io.WriteString(w, strings.Join(players, "\n")+"\n")
	return err
}
