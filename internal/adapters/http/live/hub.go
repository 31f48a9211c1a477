// Package live pushes ranking updates to websocket subscribers.
package live

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/okian/ladder/internal/domain/types"
	"github.com/okian/ladder/pkg/logger"
	"github.com/okian/ladder/pkg/metrics"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4 * 1024
	defaultSendBuffer = 16
)

// Message types written to subscribers.
const (
	TypeRanking = "ranking"
	TypeError   = "error"
)

// RankingSource computes the current ranking.
type RankingSource interface {
	Ranking(ctx context.Context) (types.Ranking, error)
}

// Message is the envelope of every update.
type Message struct {
	Type    string         `json:"type"`
	Ranking *types.Ranking `json:"ranking,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type subscriber struct {
	id   string
	send chan []byte
}

// Hub tracks subscribers and fans ranking updates out to them.
// A subscriber receives the current ranking on connect and again after
// every Notify.
type Hub struct {
	source     RankingSource
	logger     logger.Logger
	upgrader   websocket.Upgrader
	sendBuffer int

	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

// NewHub creates a hub reading rankings from source.
func NewHub(source RankingSource, opts ...Option) *Hub {
	h := &Hub{
		source: source,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sendBuffer: defaultSendBuffer,
		subs:       make(map[*subscriber]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("live")
	}
	return h
}

// Register attaches GET /live to r.
func (h *Hub) Register(r chi.Router) {
	r.Get("/live", h.HandleLive)
}

// HandleLive upgrades the request and subscribes the connection.
func (h *Hub) HandleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}

	sub := &subscriber{id: uuid.NewString(), send: make(chan []byte, h.sendBuffer)}
	sub.send <- h.snapshot(r.Context())
	if !h.add(sub) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	h.logger.Debug(r.Context(), "subscriber connected", logger.String("id", sub.id))

	go h.writePump(conn, sub)
	go h.readPump(conn, sub)
}

// Notify recomputes the ranking and pushes it to every subscriber.
// Subscribers whose buffer is full are disconnected.
func (h *Hub) Notify(ctx context.Context) {
	if h.Len() == 0 {
		return
	}
	msg := h.snapshot(ctx)

	h.mu.Lock()
	for sub := range h.subs {
		select {
		case sub.send <- msg:
		default:
			h.dropLocked(sub)
			h.logger.Warn(ctx, "dropping slow subscriber", logger.String("id", sub.id))
		}
	}
	n := len(h.subs)
	h.mu.Unlock()

	metrics.RecordLiveBroadcast()
	metrics.UpdateLiveClients(n)
}

// Len returns the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.subs {
		h.dropLocked(sub)
	}
	metrics.UpdateLiveClients(0)
	return nil
}

func (h *Hub) snapshot(ctx context.Context) []byte {
	msg := Message{Type: TypeRanking}
	ranking, err := h.source.Ranking(ctx)
	if err != nil {
		h.logger.Warn(ctx, "ranking unavailable for subscribers", logger.Error(err))
		msg = Message{Type: TypeError, Error: err.Error()}
	} else {
		msg.Ranking = &ranking
	}
	data, err := json.Marshal(msg)
	if err != nil {
		// Ranking holds only strings and numbers.
		return []byte(`{"type":"error"}`)
	}
	return data
}

func (h *Hub) add(sub *subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.subs[sub] = struct{}{}
	metrics.UpdateLiveClients(len(h.subs))
	return true
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(sub)
	metrics.UpdateLiveClients(len(h.subs))
}

// dropLocked closes the send channel once; h.mu must be held.
func (h *Hub) dropLocked(sub *subscriber) {
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.send)
}

// readPump discards client messages and keeps the read deadline fresh.
func (h *Hub) readPump(conn *websocket.Conn, sub *subscriber) {
	defer func() {
		h.remove(sub)
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug(context.Background(), "subscriber read failed",
					logger.String("id", sub.id), logger.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
