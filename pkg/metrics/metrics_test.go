package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("ladder"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"store": "memory"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then its collectors are registered", func() {
				So(manager, ShouldNotBeNil)
				manager.recordsDeleted.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Appends show up in the custom registry", func() {
			RecordAppend("singles")
			RecordReplay(1.5, 7)
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			names := map[string]bool{}
			for _, f := range families {
				names[f.GetName()] = true
			}
			So(names["ladder_elo_records_appended_total"], ShouldBeTrue)
			So(names["ladder_elo_players"], ShouldBeTrue)
		})

		Convey("Gauges and counters accept updates without panicking", func() {
			So(func() {
				RecordDelete()
				RecordDuplicateWrite()
				RecordValidationError("match")
				RecordLogError("read")
				UpdateLogRecords(3)
				UpdateActivePlayers(2)
				UpdateLiveClients(1)
				RecordLiveBroadcast()
				RecordHTTPRequest("ranking", "GET", "200")
				RecordHTTPRequestDuration("ranking", "GET", "200", 3)
				RecordErrorByEndpoint("ranking", "GET", "server_error")
				RecordErrorByType("server_error", "high")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(4)
				RecordSystemGCPauseTime(0.2)
			}, ShouldNotPanic)
		})

		Convey("The registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
