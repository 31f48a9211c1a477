package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/ladder/internal/adapters/eventlog"
	"github.com/okian/ladder/internal/adapters/http/live"
	"github.com/okian/ladder/internal/config"
	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestWiring(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		ctx := context.Background()
		cfg := config.New()

		convey.Convey("When opening the event log", func() {
			events, err := openEventLog(ctx, cfg)

			convey.Convey("Then the memory backend is used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(events.Kind(), convey.ShouldEqual, eventlog.KindMemory)
			})
		})

		convey.Convey("When the sqlite store is configured", func() {
			cfg.Store = "sqlite"
			cfg.SQLitePath = filepath.Join(t.TempDir(), "ladder.db")
			events, err := openEventLog(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = events.Close() }()

			convey.Convey("Then a sqlite log is opened", func() {
				convey.So(events.Kind(), convey.ShouldEqual, eventlog.KindSQLite)
			})
		})

		convey.Convey("When the bolt store is configured", func() {
			cfg.Store = "bolt"
			cfg.BoltPath = filepath.Join(t.TempDir(), "ladder.bolt")
			events, err := openEventLog(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = events.Close() }()

			convey.Convey("Then a bolt log is opened", func() {
				convey.So(events.Kind(), convey.ShouldEqual, eventlog.KindBolt)
			})
		})

		convey.Convey("When building the engine from custom values", func() {
			cfg.SeedRatings = map[string]float64{"Ann": 1400}
			cfg.DefaultRating = 900
			engine := newEngine(cfg)

			convey.Convey("Then the seeds and default are applied", func() {
				snap := engine.ComputeRecords(nil)
				convey.So(snap.Players(), convey.ShouldResemble, []string{"Ann"})
				convey.So(engine.DefaultRating(), convey.ShouldEqual, 900.0)
			})
		})

		convey.Convey("When serving the full router", func() {
			events := eventlog.NewMemoryLog(model.Record{
				Date: model.FormatDate(time.Now()), Type: "singles", TeamA: "Tobi", TeamB: "Kuba", Winner: "A",
			})
			svc := newService(cfg, events, logger.Get())
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()
			hub := live.NewHub(svc)
			defer func() { _ = hub.Close() }()
			h := newRouter(svc, hub, logger.Get())

			get := func(path string) *httptest.ResponseRecorder {
				w := httptest.NewRecorder()
				h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				return w
			}

			convey.Convey("Then business and docs routes answer", func() {
				convey.So(get("/ranking").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get("/openapi.yaml").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get("/api-docs").Code, convey.ShouldEqual, http.StatusOK)
			})

			convey.Convey("And the live feed refuses plain HTTP", func() {
				convey.So(get("/live").Code, convey.ShouldEqual, http.StatusBadRequest)
			})

			convey.Convey("And the champion is today's winner", func() {
				convey.So(get("/ranking").Body.String(), convey.ShouldContainSubstring, `"champion":"Tobi"`)
			})

			convey.Convey("And unknown routes are 404", func() {
				convey.So(get("/leaderboard").Code, convey.ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then a single update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("And the loop returns when the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx)
				close(done)
			}()
			stopped := false
			select {
			case <-done:
				stopped = true
			case <-time.After(2 * time.Second):
			}
			convey.So(stopped, convey.ShouldBeTrue)
		})
	})
}
