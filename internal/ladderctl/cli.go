package ladderctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/pkg/logger"
)

// ErrUsage is returned for unknown commands or bad flags.
var ErrUsage = errors.New("usage error")

// Defaults for the global flags.
const (
	DefaultURL     = "http://localhost:9080"
	DefaultTimeout = 10 * time.Second
)

// Run executes one command. args excludes the program name.
func Run(ctx context.Context, args []string, stdout io.Writer) error {
	global := flag.NewFlagSet("ladderctl", flag.ContinueOnError)
	global.SetOutput(stdout)
	baseURL := global.String("url", envOr("LADDER_URL", DefaultURL), "Base URL of the service")
	timeout := global.Duration("timeout", DefaultTimeout, "HTTP request timeout")
	global.Usage = func() { ShowHelp(stdout) }
	if err := global.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if global.NArg() == 0 {
		ShowHelp(stdout)
		return ErrUsage
	}

	client := NewClient(*baseURL, *timeout)
	l := logger.Get().Named("ladderctl")
	cmd, rest := global.Arg(0), global.Args()[1:]

	switch cmd {
	case "ranking":
		r, err := client.Ranking(ctx)
		if err != nil {
			return err
		}
		return PrintRanking(stdout, r)
	case "history":
		h, err := client.History(ctx)
		if err != nil {
			return err
		}
		return PrintHistory(stdout, h)
	case "players":
		p, err := client.Players(ctx)
		if err != nil {
			return err
		}
		return PrintPlayers(stdout, p)
	case "match":
		return runMatch(ctx, client, rest, stdout)
	case "adjust":
		return runAdjust(ctx, client, rest, stdout)
	case "add-player":
		return runAddPlayer(ctx, client, rest, stdout)
	case "delete":
		return runDelete(ctx, client, rest, stdout)
	case "import":
		return runImport(ctx, client, rest, stdout, l)
	case "help":
		ShowHelp(stdout)
		return nil
	default:
		ShowHelp(stdout)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func runMatch(ctx context.Context, c *Client, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("match", flag.ContinueOnError)
	fs.SetOutput(stdout)
	req := MatchRequest{}
	fs.StringVar(&req.Kind, "kind", "singles", "singles, doubles, friendly_singles or friendly_doubles")
	fs.StringVar(&req.Date, "date", "", "Match date dd.mm.yyyy (default today)")
	teamA := fs.String("a", "", "Team A, players joined with +")
	teamB := fs.String("b", "", "Team B, players joined with +")
	fs.StringVar(&req.Winner, "winner", "", "A or B")
	fs.StringVar(&req.Score, "score", "", "Set score, e.g. 2:1")
	fs.StringVar(&req.Sets, "sets", "", "Games per set, e.g. 6,4,6")
	fs.StringVar(&req.RequestID, "id", "", "Request id for safe retries")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	req.TeamA = model.SplitTeam(*teamA)
	req.TeamB = model.SplitTeam(*teamB)
	res, err := c.PostMatch(ctx, req)
	if err != nil {
		return err
	}
	return printWrite(stdout, res)
}

func runAdjust(ctx context.Context, c *Client, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("adjust", flag.ContinueOnError)
	fs.SetOutput(stdout)
	req := AdjustmentRequest{}
	fs.StringVar(&req.Player, "player", "", "Player to adjust")
	fs.IntVar(&req.Delta, "delta", 0, "Signed rating change")
	fs.StringVar(&req.Reason, "reason", "", "Why the correction was made")
	fs.StringVar(&req.Date, "date", "", "Date dd.mm.yyyy (default today)")
	fs.StringVar(&req.RequestID, "id", "", "Request id for safe retries")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	res, err := c.PostAdjustment(ctx, req)
	if err != nil {
		return err
	}
	return printWrite(stdout, res)
}

func runAddPlayer(ctx context.Context, c *Client, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("add-player", flag.ContinueOnError)
	fs.SetOutput(stdout)
	req := PlayerRequest{}
	fs.StringVar(&req.Name, "name", "", "Player name")
	fs.IntVar(&req.StartingRating, "rating", 1000, "Starting rating")
	fs.StringVar(&req.Date, "date", "", "Date dd.mm.yyyy (default today)")
	fs.StringVar(&req.RequestID, "id", "", "Request id for safe retries")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	res, err := c.PostPlayer(ctx, req)
	if err != nil {
		return err
	}
	return printWrite(stdout, res)
}

func runDelete(ctx context.Context, c *Client, args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: delete takes exactly one position", ErrUsage)
	}
	position, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: position must be a number", ErrUsage)
	}
	if err := c.Delete(ctx, position); err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "deleted record at position %d\n", position)
	return err
}

func runImport(ctx context.Context, c *Client, args []string, stdout io.Writer, l logger.Logger) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: import takes exactly one CSV file", ErrUsage)
	}
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer func() { _ = f.Close() }()

	stats, err := Import(ctx, c, f, l)
	l.Info(ctx, "import finished",
		logger.Int("rows", stats.Rows),
		logger.Int("created", stats.Created),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("skipped", stats.Skipped),
	)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "imported %d rows: %d created, %d duplicate, %d skipped\n",
		stats.Rows, stats.Created, stats.Duplicates, stats.Skipped)
	return err
}

func printWrite(w io.Writer, res WriteResponse) error {
	if res.Duplicate {
		_, err := fmt.Fprintln(w, "duplicate request; nothing recorded")
		return err
	}
	if res.Record == nil {
		_, err := fmt.Fprintln(w, res.Status)
		return err
	}
	r := res.Record
	_, err := fmt.Fprintf(w, "%s: %s %s %s vs %s\n", res.Status, r.Date, r.Type, r.TeamA, r.TeamB)
	return err
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// ShowHelp prints usage information.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `ladderctl - client for the ladder ELO service

Usage:
  ladderctl [-url URL] [-timeout D] <command> [flags]

Commands:
  ranking                       Show active and inactive players
  history                       Show every record newest-first with positions
  players                       List known players
  match -a P1[+P2] -b P3[+P4] -winner A|B [-kind K] [-date D] [-score S] [-sets S]
  adjust -player P -delta N [-reason R] [-date D]
  add-player -name P [-rating N] [-date D]
  delete POSITION               Remove the record at POSITION (first record is 2)
  import FILE.csv               Append every row of a CSV log in order

Environment:
  LADDER_URL                    Default for -url (http://localhost:9080)
`)
}
