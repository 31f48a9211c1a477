package ladderctl_test

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/ladder/internal/adapters/eventlog"
	"github.com/okian/ladder/internal/adapters/http/api"
	service "github.com/okian/ladder/internal/app"
	"github.com/okian/ladder/internal/ladderctl"
	"github.com/okian/ladder/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithOutput(&bytes.Buffer{})); err != nil {
		panic(err)
	}
}

var today = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func newTestServer() *httptest.Server {
	svc := service.New(
		service.WithEventLog(eventlog.NewMemoryLog()),
		service.WithClock(func() time.Time { return today }),
	)
	return httptest.NewServer(api.NewServer(svc).Routes())
}

const sampleCSV = `date,type,team_a,team_b,winner,score,sets,reason
10.10.2026,singles,Jirka,Kávič,A,2:0,"6,3",
11.10.2026,adjust,Petr,150,,,,Přidání hráče(1150 ELO)
12.10.2026,friendly_doubles,Tobi+Kuba,Jirka+Novas,B,,,
13.10.2026,unknown,Tobi,Kuba,A,,,
14.10.2026,adjust,,5,,,,missing player
`

func TestClient(t *testing.T) {
	Convey("Given a running ladder service", t, func() {
		srv := newTestServer()
		defer srv.Close()
		ctx := context.Background()
		c := ladderctl.NewClient(srv.URL+"/", time.Second)

		Convey("When posting a match", func() {
			res, err := c.PostMatch(ctx, ladderctl.MatchRequest{
				Kind: "singles", TeamA: []string{"Tobi"}, TeamB: []string{"Kuba"}, Winner: "A",
			})

			Convey("Then it is created and visible in history", func() {
				So(err, ShouldBeNil)
				So(res.Status, ShouldEqual, "created")
				So(res.Record.Date, ShouldEqual, "17.10.2026")
				h, err := c.History(ctx)
				So(err, ShouldBeNil)
				So(h, ShouldHaveLength, 1)
				So(h[0].Position, ShouldEqual, 2)
			})

			Convey("And it can be deleted by position", func() {
				So(c.Delete(ctx, 2), ShouldBeNil)
				h, _ := c.History(ctx)
				So(h, ShouldBeEmpty)
			})
		})

		Convey("When the server rejects a request", func() {
			_, err := c.PostMatch(ctx, ladderctl.MatchRequest{
				Kind: "singles", TeamA: []string{"Tobi"}, TeamB: []string{"Kuba"}, Winner: "C",
			})

			Convey("Then an APIError with the status is returned", func() {
				var apiErr *ladderctl.APIError
				So(errors.As(err, &apiErr), ShouldBeTrue)
				So(apiErr.Status, ShouldEqual, 400)
				So(apiErr.Code, ShouldEqual, "validation_error")
				So(errors.Is(err, ladderctl.ErrAPI), ShouldBeTrue)
			})
		})

		Convey("When deleting a missing position", func() {
			err := c.Delete(ctx, 40)

			Convey("Then a 404 is reported", func() {
				var apiErr *ladderctl.APIError
				So(errors.As(err, &apiErr), ShouldBeTrue)
				So(apiErr.Status, ShouldEqual, 404)
			})
		})
	})
}

func TestImport(t *testing.T) {
	Convey("Given a running service and a CSV log", t, func() {
		srv := newTestServer()
		defer srv.Close()
		ctx := context.Background()
		c := ladderctl.NewClient(srv.URL, time.Second)

		Convey("When importing it", func() {
			stats, err := ladderctl.Import(ctx, c, strings.NewReader(sampleCSV), logger.Get())

			Convey("Then supported rows are appended in order", func() {
				So(err, ShouldBeNil)
				So(stats, ShouldResemble, ladderctl.ImportStats{Rows: 5, Created: 3, Skipped: 2})
				h, _ := c.History(ctx)
				So(h, ShouldHaveLength, 3)
				So(h[2].Record.Type, ShouldEqual, "singles")
				So(h[1].Record.Reason, ShouldEqual, "Přidání hráče(1150 ELO)")
				So(h[0].Friendly, ShouldBeTrue)
			})

			Convey("And the new player keeps the starting rating", func() {
				r, err := c.Ranking(ctx)
				So(err, ShouldBeNil)
				found := false
				for _, row := range append(r.Active, r.Inactive...) {
					if row.Player == "Petr" {
						found = true
						So(row.Rating, ShouldEqual, 1150.0)
					}
				}
				So(found, ShouldBeTrue)
			})

			Convey("And importing again appends nothing", func() {
				again, err := ladderctl.Import(ctx, c, strings.NewReader(sampleCSV), logger.Get())
				So(err, ShouldBeNil)
				So(again.Duplicates, ShouldEqual, 3)
				So(again.Created, ShouldEqual, 0)
			})
		})

		Convey("When the file is empty", func() {
			stats, err := ladderctl.Import(ctx, c, strings.NewReader(""), logger.Get())
			So(err, ShouldBeNil)
			So(stats.Rows, ShouldEqual, 0)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given the command line entry point", t, func() {
		srv := newTestServer()
		defer srv.Close()
		ctx := context.Background()
		var out bytes.Buffer
		run := func(args ...string) error {
			out.Reset()
			return ladderctl.Run(ctx, append([]string{"-url", srv.URL}, args...), &out)
		}

		Convey("When recording and listing", func() {
			So(run("match", "-a", "Jirka", "-b", "Kávič", "-winner", "A"), ShouldBeNil)
			So(out.String(), ShouldContainSubstring, "created")

			So(run("ranking"), ShouldBeNil)
			So(out.String(), ShouldContainSubstring, "👑 Jirka")
			So(out.String(), ShouldContainSubstring, "1052.00")

			So(run("history"), ShouldBeNil)
			So(out.String(), ShouldContainSubstring, "Jirka")

			So(run("players"), ShouldBeNil)
			So(out.String(), ShouldContainSubstring, "Kávič\n")
		})

		Convey("When adjusting, registering and deleting", func() {
			So(run("adjust", "-player", "Kuba", "-delta", "-4", "-reason", "typo"), ShouldBeNil)
			So(run("add-player", "-name", "Eva", "-rating", "990"), ShouldBeNil)
			So(run("delete", "2"), ShouldBeNil)
			So(out.String(), ShouldContainSubstring, "position 2")
		})

		Convey("When importing a file", func() {
			path := filepath.Join(t.TempDir(), "log.csv")
			So(os.WriteFile(path, []byte(sampleCSV), 0o600), ShouldBeNil)
			So(run("import", path), ShouldBeNil)
			So(out.String(), ShouldContainSubstring, "3 created")
		})

		Convey("When the command is wrong", func() {
			So(errors.Is(run("dance"), ladderctl.ErrUsage), ShouldBeTrue)
			So(errors.Is(run(), ladderctl.ErrUsage), ShouldBeTrue)
			So(errors.Is(run("delete", "x"), ladderctl.ErrUsage), ShouldBeTrue)
			So(errors.Is(run("import"), ladderctl.ErrUsage), ShouldBeTrue)
		})
	})
}
