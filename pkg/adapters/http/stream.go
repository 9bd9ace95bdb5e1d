package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/registry"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// upgrader applies the same origin policy as the JSON routes.
// Requests without an Origin header come from non-browser clients and pass.
func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.allowedOrigin(origin) != ""
		},
	}
}

// Message is a frame of a session stream.
type Message struct {
	Type     string               `json:"type"` // "snapshot" or "diff"
	Snapshot *domain.Snapshot     `json:"snapshot,omitempty"`
	Diff     *domain.SnapshotDiff `json:"diff,omitempty"`
}

// watch emits the current snapshot, then a diff for every published change, until ctx ends.
// Notifications are coalesced; each diff covers everything since the previous message.
func watch(ctx context.Context, store registry.Session) <-chan Message {
	out := make(chan Message)
	signal := make(chan struct{}, 1)
	unsubscribe := store.Subscribe(func() {
		select {
		case signal <- struct{}{}:
		default:
		}
	})

	go func() {
		defer close(out)
		defer unsubscribe()

		last := store.View()
		select {
		case out <- Message{Type: "snapshot", Snapshot: last}:
		case <-ctx.Done():
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-signal:
			}

			cur := store.View()
			diff := domain.Diff(last, cur)
			last = cur
			if diff == nil {
				continue
			}
			select {
			case out <- Message{Type: "diff", Diff: diff}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// StreamSession handles GET /sessions/{id}/stream (WebSocket).
func (s *Server) StreamSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.Sessions.Get(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "session_id", id, "err", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Drain client frames so close and ping control messages are processed.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.logger.Info("stream opened", "session_id", id)
	for msg := range watch(ctx, sess.Store) {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			s.logger.Debug("stream write failed", "session_id", id, "err", err)
			cancel()
			break
		}
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	s.logger.Info("stream closed", "session_id", id)
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.Sessions.Get(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for msg := range watch(r.Context(), sess.Store) {
		data, err := json.Marshal(msg)
		if err != nil {
			s.logger.Error("event encode failed", "session_id", id, "err", err)
			continue
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, data)
		flusher.Flush()
	}
	s.logger.Debug("sse client disconnected", "session_id", id)
}
