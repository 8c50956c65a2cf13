package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/domain"
	"github.com/jengryg/doppelkopf-srv-sub002/internal/middleware"
)

// Subprotocol clients must request when opening the game feed.
const Subprotocol = "game"

const (
	writeTimeout     = 3 * time.Second
	subscriberBuffer = 16
)

// Hub fans game updates out to the websocket connections watching a game.
type Hub struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[chan []byte]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]map[chan []byte]struct{})}
}

// Subscribe registers a listener for gameID. The returned func unregisters it.
func (h *Hub) Subscribe(gameID uuid.UUID) (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)
	h.mu.Lock()
	if h.subs[gameID] == nil {
		h.subs[gameID] = make(map[chan []byte]struct{})
	}
	h.subs[gameID][ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[gameID], ch)
		if len(h.subs[gameID]) == 0 {
			delete(h.subs, gameID)
		}
	}
}

// Broadcast sends msg to every listener of gameID. Slow listeners whose buffer is full
// miss the message.
func (h *Hub) Broadcast(gameID uuid.UUID, msg any) int {
	data, err := json.Marshal(msg)
	if err != nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	sent := 0
	for ch := range h.subs[gameID] {
		select {
		case ch <- data:
			sent++
		default:
		}
	}
	return sent
}

// GameWSHandler upgrades the connection and streams update messages for the game in the
// path until the client goes away. Clients re-fetch the game view on each message.
func (s *Server) GameWSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.principal(w, r); !ok {
			return
		}
		gameID, ok := pathID(w, r)
		if !ok {
			return
		}
		err := s.engine.View(r.Context(), func(reg *domain.Registry) error {
			_, err := reg.Game(r.Context(), gameID)
			return err
		})
		if err != nil {
			s.writeError(w, err)
			return
		}

		updates, unsubscribe := s.hub.Subscribe(gameID)
		defer unsubscribe()

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{Subprotocol},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			s.logger.Warnf("websocket accept error for game %s: %v", gameID, err)
			return
		}
		defer c.CloseNow()

		if c.Subprotocol() != Subprotocol {
			c.Close(websocket.StatusPolicyViolation, "client must use the 'game' subprotocol")
			return
		}

		middleware.LogWebSocketConnect(s.logger, r.RemoteAddr, gameID.String())

		// the feed is one way; CloseRead cancels ctx once the client disconnects
		ctx := c.CloseRead(r.Context())
		err = stream(ctx, c, updates)
		middleware.LogWebSocketDisconnect(s.logger, r.RemoteAddr, gameID.String(), err)
	}
}

func stream(ctx context.Context, c *websocket.Conn, updates <-chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-updates:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}
