// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
//
// Every query reads the whole event log and replays it; the service keeps no
// rating state between calls.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/ladder/internal/adapters/eventlog"
	"github.com/okian/ladder/internal/domain/activity"
	"github.com/okian/ladder/internal/domain/dedupe"
	"github.com/okian/ladder/internal/domain/forms"
	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/internal/domain/rating"
	"github.com/okian/ladder/internal/domain/types"
	"github.com/okian/ladder/pkg/logger"
	"github.com/okian/ladder/pkg/metrics"
)

// Service implements the API dependencies for the ladder.
type Service struct {
	mu sync.RWMutex

	events     eventlog.Log
	engine     *rating.Engine
	classifier *activity.Classifier
	builder    *forms.Builder
	deduper    dedupe.Deduper

	now        func() time.Time
	window     time.Duration
	dedupeSize int
	dedupeTTL  time.Duration

	started bool
	logger  logger.Logger
}

// WriteResult reports what a write did.
type WriteResult struct {
	Record model.Record
	// Duplicate is set when the request id was already handled; nothing was appended.
	Duplicate bool
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithEventLog sets the event log backend. Defaults to an in-memory log.
func WithEventLog(l eventlog.Log) Option {
	return func(s *Service) {
		if l != nil {
			s.events = l
		}
	}
}

// WithEngine sets the rating engine.
func WithEngine(e *rating.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithClock sets the time source used for default dates and activity.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithActivityWindow sets how long a rated match keeps a player active.
func WithActivityWindow(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.window = window
		}
	}
}

// WithDedupeSize sets the size of the request id cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDedupeTTL sets how long a request id is remembered.
func WithDedupeTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.dedupeTTL = ttl
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		now:        time.Now,
		window:     activity.DefaultWindow,
		dedupeSize: 10_000,
		dedupeTTL:  24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.events == nil {
		s.events = eventlog.NewMemoryLog()
	}
	if s.engine == nil {
		s.engine = rating.NewEngine()
	}
	s.classifier = activity.NewClassifier(
		activity.WithWindow(s.window),
		activity.WithClock(s.now),
	)
	s.builder = forms.NewBuilder(s.engine, s.now)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
		dedupe.WithTTL(s.dedupeTTL),
		dedupe.WithClock(s.now),
	)
	return s
}

// Start checks that the event log is readable and publishes its size.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting ladder service...", logger.String("store", s.events.Kind()))

	records, err := s.events.ReadAll(ctx)
	if err != nil {
		metrics.RecordLogError("read")
		return fmt.Errorf("%w: %w", ErrLogUnavailable, err)
	}
	metrics.UpdateLogRecords(len(records))

	s.started = true
	s.logger.Info(ctx, "ladder service started",
		logger.String("store", s.events.Kind()),
		logger.Int("records", len(records)),
		logger.Duration("activityWindow", s.window),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop closes the event log.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping ladder service...")
	if err := s.events.Close(); err != nil {
		s.logger.Warn(context.Background(), "failed to close event log", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "ladder service stopped")
}

// replay reads the log and folds it into a snapshot.
func (s *Service) replay(ctx context.Context) (rating.Snapshot, []model.Record, error) {
	records, err := s.events.ReadAll(ctx)
	if err != nil {
		metrics.RecordLogError("read")
		s.logger.Error(ctx, "failed to read event log", logger.Error(err))
		return rating.Snapshot{}, nil, fmt.Errorf("%w: %w", ErrLogUnavailable, err)
	}

	start := time.Now()
	snap := s.engine.ComputeRecords(records)
	elapsed := time.Since(start)

	metrics.RecordReplay(float64(elapsed.Microseconds())/1000, snap.Len())
	metrics.UpdateLogRecords(len(records))
	s.logger.Debug(ctx, "replayed event log",
		logger.Int("records", len(records)),
		logger.Int("players", snap.Len()),
		logger.Duration("took", elapsed),
	)
	return snap, records, nil
}

// Ranking replays the log and splits players into active and inactive groups.
// The top active player is flagged as champion.
func (s *Service) Ranking(ctx context.Context) (types.Ranking, error) {
	snap, _, err := s.replay(ctx)
	if err != nil {
		return types.Ranking{}, err
	}

	today := s.classifier.Now()
	out := types.Ranking{
		AsOf:     model.FormatDate(today),
		Active:   []types.RankingRow{},
		Inactive: []types.RankingRow{},
	}
	for _, st := range snap.Standings() {
		row := types.RankingRow{
			Player:     st.Player,
			Rating:     types.RoundRating(st.Rating),
			LastPlayed: st.LastDate,
			TotalDelta: st.TotalDelta,
			LastDelta:  st.LastDelta,
			Change:     types.ChangeLabel(st.TotalDelta, st.LastDelta),
		}
		if s.classifier.ClassifyAt(st.LastDate, st.Played, today) == activity.Active {
			row.Rank = len(out.Active) + 1
			out.Active = append(out.Active, row)
		} else {
			row.Rank = len(out.Inactive) + 1
			out.Inactive = append(out.Inactive, row)
		}
	}
	if len(out.Active) > 0 {
		out.Active[0].Champion = true
		out.Champion = out.Active[0].Player
	}

	metrics.UpdateActivePlayers(len(out.Active))
	return out, nil
}

// History returns every record newest-first with its position.
func (s *Service) History(ctx context.Context) ([]types.HistoryEntry, error) {
	records, err := s.events.ReadAll(ctx)
	if err != nil {
		metrics.RecordLogError("read")
		return nil, fmt.Errorf("%w: %w", ErrLogUnavailable, err)
	}

	out := make([]types.HistoryEntry, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		out = append(out, types.HistoryEntry{
			Position: eventlog.FirstPosition + i,
			Friendly: model.EventType(strings.TrimSpace(r.Type)).IsFriendly(),
			Record:   r,
		})
	}
	return out, nil
}

// Players returns every player known to the replay, sorted by name.
func (s *Service) Players(ctx context.Context) ([]string, error) {
	snap, _, err := s.replay(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Players(), nil
}

// RecordMatch validates and appends a match.
func (s *Service) RecordMatch(ctx context.Context, requestID string, in forms.MatchInput) (WriteResult, error) {
	return s.write(ctx, "match", requestID, func() (model.Record, error) {
		return s.builder.Match(in)
	})
}

// RecordAdjustment validates and appends a manual rating correction.
func (s *Service) RecordAdjustment(ctx context.Context, requestID string, in forms.AdjustmentInput) (WriteResult, error) {
	return s.write(ctx, "adjustment", requestID, func() (model.Record, error) {
		return s.builder.Adjustment(in)
	})
}

// RegisterPlayer validates a new player against the replay and appends the
// baseline adjustment.
func (s *Service) RegisterPlayer(ctx context.Context, requestID string, in forms.NewPlayerInput) (WriteResult, error) {
	return s.write(ctx, "player", requestID, func() (model.Record, error) {
		known, err := s.Players(ctx)
		if err != nil {
			return model.Record{}, err
		}
		return s.builder.NewPlayer(in, known)
	})
}

// write runs build and appends its record once per request id.
func (s *Service) write(ctx context.Context, form, requestID string, build func() (model.Record, error)) (WriteResult, error) {
	if requestID != "" && s.deduper.SeenAndRecord(ctx, requestID) {
		metrics.RecordDuplicateWrite()
		s.logger.Debug(ctx, "duplicate request, skipping",
			logger.String("form", form),
			logger.String("requestID", requestID),
		)
		return WriteResult{Duplicate: true}, nil
	}
	forget := func() {
		if requestID != "" {
			s.deduper.Unrecord(ctx, requestID)
		}
	}

	rec, err := build()
	if err != nil {
		forget()
		if errors.Is(err, forms.ErrValidation) {
			metrics.RecordValidationError(form)
			s.logger.Debug(ctx, "rejected form", logger.String("form", form), logger.Error(err))
		}
		return WriteResult{}, err
	}

	if err := s.events.Append(ctx, rec); err != nil {
		forget()
		metrics.RecordLogError("append")
		s.logger.Error(ctx, "failed to append record",
			logger.String("form", form),
			logger.Error(err),
		)
		return WriteResult{}, fmt.Errorf("%w: %w", ErrLogUnavailable, err)
	}

	metrics.RecordAppend(rec.Type)
	s.logger.Info(ctx, "record appended",
		logger.String("form", form),
		logger.String("type", rec.Type),
		logger.String("teamA", rec.TeamA),
		logger.String("teamB", rec.TeamB),
	)
	return WriteResult{Record: rec}, nil
}

// DeleteRecord removes the record at position. Callers must re-query.
func (s *Service) DeleteRecord(ctx context.Context, position int) error {
	if err := s.events.DeleteAt(ctx, position); err != nil {
		if errors.Is(err, eventlog.ErrPositionOutOfRange) {
			return fmt.Errorf("%w: %w", ErrRecordNotFound, err)
		}
		metrics.RecordLogError("delete")
		s.logger.Error(ctx, "failed to delete record", logger.Int("position", position), logger.Error(err))
		return fmt.Errorf("%w: %w", ErrLogUnavailable, err)
	}
	metrics.RecordDelete()
	s.logger.Info(ctx, "record deleted", logger.Int("position", position))
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        started,
		"store":          s.events.Kind(),
		"activityWindow": s.window.String(),
		"dedupeSize":     s.dedupeSize,
		"requestIDs":     s.deduper.Size(),
	}

	snap, records, err := s.replay(ctx)
	if err != nil {
		stats["error"] = err.Error()
		return stats
	}
	active := 0
	today := s.classifier.Now()
	for _, st := range snap.Standings() {
		if s.classifier.ClassifyAt(st.LastDate, st.Played, today) == activity.Active {
			active++
		}
	}
	stats["records"] = len(records)
	stats["players"] = snap.Len()
	stats["activePlayers"] = active
	metrics.UpdateActivePlayers(active)
	return stats
}
