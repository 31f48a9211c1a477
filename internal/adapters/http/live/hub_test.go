package live_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/ladder/internal/adapters/http/live"
	"github.com/okian/ladder/internal/domain/types"
	"github.com/okian/ladder/pkg/logger"
)

func init() {
	if err := logger.Init(logger.WithOutput(&bytes.Buffer{})); err != nil {
		panic(err)
	}
}

type fakeSource struct {
	mu      sync.Mutex
	ranking types.Ranking
	err     error
}

func (f *fakeSource) Ranking(context.Context) (types.Ranking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ranking, f.err
}

func (f *fakeSource) set(champion string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ranking = types.Ranking{Champion: champion, AsOf: "17.10.2026"}
	f.err = err
}

func dial(url string) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http")+"/live", nil)
	So(err, ShouldBeNil)
	return conn
}

func next(conn *websocket.Conn) live.Message {
	So(conn.SetReadDeadline(time.Now().Add(2*time.Second)), ShouldBeNil)
	_, data, err := conn.ReadMessage()
	So(err, ShouldBeNil)
	var msg live.Message
	So(json.Unmarshal(data, &msg), ShouldBeNil)
	return msg
}

func TestHub(t *testing.T) {
	Convey("Given a hub behind a router", t, func() {
		src := &fakeSource{}
		src.set("Tobi", nil)
		hub := live.NewHub(src)
		r := chi.NewRouter()
		hub.Register(r)
		srv := httptest.NewServer(r)
		defer srv.Close()
		defer func() { _ = hub.Close() }()

		Convey("When nobody is subscribed", func() {
			Convey("Then Notify is a no-op", func() {
				So(func() { hub.Notify(context.Background()) }, ShouldNotPanic)
				So(hub.Len(), ShouldEqual, 0)
			})
		})

		Convey("When a subscriber connects", func() {
			conn := dial(srv.URL)
			defer func() { _ = conn.Close() }()
			first := next(conn)

			Convey("Then it receives the current ranking", func() {
				So(first.Type, ShouldEqual, live.TypeRanking)
				So(first.Ranking.Champion, ShouldEqual, "Tobi")
				So(hub.Len(), ShouldEqual, 1)
			})

			Convey("And it receives every update after Notify", func() {
				src.set("Kuba", nil)
				hub.Notify(context.Background())
				So(next(conn).Ranking.Champion, ShouldEqual, "Kuba")
			})

			Convey("And a failing source is reported as an error message", func() {
				src.set("", errors.New("log down"))
				hub.Notify(context.Background())
				msg := next(conn)
				So(msg.Type, ShouldEqual, live.TypeError)
				So(msg.Error, ShouldContainSubstring, "log down")
				So(msg.Ranking, ShouldBeNil)
			})

			Convey("And closing the hub disconnects it", func() {
				So(hub.Close(), ShouldBeNil)
				So(hub.Len(), ShouldEqual, 0)
				So(conn.SetReadDeadline(time.Now().Add(2*time.Second)), ShouldBeNil)
				_, _, err := conn.ReadMessage()
				So(websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived), ShouldBeTrue)
			})
		})

		Convey("When the hub is closed before a subscriber connects", func() {
			So(hub.Close(), ShouldBeNil)
			conn := dial(srv.URL)
			defer func() { _ = conn.Close() }()

			Convey("Then the connection is closed straight away", func() {
				So(conn.SetReadDeadline(time.Now().Add(2*time.Second)), ShouldBeNil)
				_, _, err := conn.ReadMessage()
				So(websocket.IsCloseError(err, websocket.CloseGoingAway), ShouldBeTrue)
				So(hub.Len(), ShouldEqual, 0)
			})
		})

		Convey("When a plain HTTP request hits the endpoint", func() {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest("GET", "/live", nil))

			Convey("Then the upgrade is refused", func() {
				So(rec.Code, ShouldEqual, 400)
			})
		})
	})
}
