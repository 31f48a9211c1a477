package ladderctl

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/pkg/logger"
)

// importNamespace scopes the request ids derived from CSV rows.
var importNamespace = uuid.MustParse("6f1c2a4e-8a3d-4c55-9a3e-2b7f0d9c1e21")

// ImportStats summarises an import run.
type ImportStats struct {
	Rows       int
	Created    int
	Duplicates int
	Skipped    int
}

// Import reads a CSV log in the stored column layout and appends every row in
// order. Each row gets a request id derived from its content and line, so
// re-running the same file within the server's dedupe window appends nothing.
// Rows of unknown type and rows the server rejects as invalid are skipped.
func Import(ctx context.Context, c *Client, r io.Reader, l logger.Logger) (ImportStats, error) {
	var stats ImportStats
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		return stats, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}

	for line := 2; ; line++ {
		values, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, fmt.Errorf("line %d: %w", line, err)
		}
		stats.Rows++

		row := make(map[string]string, len(model.Columns))
		for _, col := range model.Columns {
			if i, ok := cols[col]; ok && i < len(values) {
				row[col] = values[i]
			}
		}
		rec := model.RecordFromMap(row)
		id := uuid.NewSHA1(importNamespace, []byte(fmt.Sprintf("%d|%s", line, strings.Join(rec.Values(), "|")))).String()

		res, err := importRecord(ctx, c, id, rec)
		var apiErr *APIError
		if errors.Is(err, errSkip) || (errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest) {
			stats.Skipped++
			l.Warn(ctx, "skipping row", logger.Int("line", line), logger.String("type", rec.Type), logger.Error(err))
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("line %d: %w", line, err)
		}
		if res.Duplicate {
			stats.Duplicates++
		} else {
			stats.Created++
		}
	}
}

var errSkip = errors.New("unsupported row")

func importRecord(ctx context.Context, c *Client, id string, rec model.Record) (WriteResponse, error) {
	ev := model.Parse(rec)
	switch {
	case ev.Type == model.TypeAdjust:
		return c.PostAdjustment(ctx, AdjustmentRequest{
			RequestID: id,
			Date:      rec.Date,
			Player:    strings.TrimSpace(rec.TeamA),
			Delta:     int(math.Round(ev.Delta)),
			Reason:    rec.Reason,
		})
	case ev.Type.IsMatch() || ev.Type.IsFriendly():
		return c.PostMatch(ctx, MatchRequest{
			RequestID: id,
			Date:      rec.Date,
			Kind:      string(ev.Type),
			TeamA:     ev.TeamA,
			TeamB:     ev.TeamB,
			Winner:    rec.Winner,
			Score:     rec.Score,
			Sets:      rec.Sets,
		})
	default:
		return WriteResponse{}, errSkip
	}
}
