package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/T44VI/raittiusseuranhakubot/internal/identity"
	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Message is the wire frame pushed to websocket subscribers.
type Message struct {
	Type string `json:"type"` // "announce", "direct" or "retract"
	Ref  string `json:"ref"`
	Text string `json:"text,omitempty"`
}

// Hub is a websocket-backed Channel. Subscribers receive channel-wide
// announcements plus messages addressed to their own user ID. Live
// announcements are replayed to new subscribers so a late join still
// sees the current board.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*websocket.Conn]struct{}
	live map[string]string // announce ref -> text, until retracted
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[*websocket.Conn]struct{}),
		live: make(map[string]string),
	}
}

// Send delivers text to the recipient and returns a message reference.
// A hub send never fails: with no subscribers the message is still
// considered delivered (broadcasts stay replayable until retracted).
func (h *Hub) Send(ctx context.Context, recipient, text string) (string, error) {
	ref := uuid.NewString()

	msgType := "direct"
	if recipient == Broadcast {
		msgType = "announce"
		h.mu.Lock()
		h.live[ref] = text
		h.mu.Unlock()
	}

	h.deliver(ctx, recipient, Message{Type: msgType, Ref: ref, Text: text})
	return ref, nil
}

// Delete retracts a previously sent message.
func (h *Hub) Delete(ctx context.Context, recipient, ref string) error {
	h.mu.Lock()
	delete(h.live, ref)
	h.mu.Unlock()

	h.deliver(ctx, recipient, Message{Type: "retract", Ref: ref})
	return nil
}

// LiveAnnouncements returns the refs of announcements not yet retracted.
func (h *Hub) LiveAnnouncements() map[string]string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]string, len(h.live))
	for ref, text := range h.live {
		out[ref] = text
	}
	return out
}

func (h *Hub) deliver(ctx context.Context, recipient string, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal notify frame", "error", err)
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.subs[recipient]))
	for conn := range h.subs[recipient] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
			// Expected when clients disconnect abruptly.
			slog.Debug("notify write failed", "recipient", recipient, "error", err)
		}
	}
}

func (h *Hub) register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, key := range []string{Broadcast, userID} {
		if _, ok := h.subs[key]; !ok {
			h.subs[key] = make(map[*websocket.Conn]struct{})
		}
		h.subs[key][conn] = struct{}{}
	}
}

func (h *Hub) unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, key := range []string{Broadcast, userID} {
		delete(h.subs[key], conn)
		if len(h.subs[key]) == 0 {
			delete(h.subs, key)
		}
	}
}

// ServeHTTP upgrades the connection and streams announcements until the
// client goes away. The identity middleware must run before this handler.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "subscription ended"); closeErr != nil {
			slog.Debug("WebSocket close failed", "error", closeErr)
		}
	}()

	ctx := r.Context()

	// Replay announcements that are still live.
	for ref, text := range h.LiveAnnouncements() {
		payload, err := json.Marshal(Message{Type: "announce", Ref: ref, Text: text})
		if err != nil {
			continue
		}
		if err := ws.Write(ctx, websocket.MessageText, payload); err != nil {
			return
		}
	}

	h.register(userID, ws)
	defer h.unregister(userID, ws)
	slog.Info("Announcement subscriber connected", "user_id", userID)

	// Subscribers only listen; drain until the connection drops.
	for {
		if _, _, err := ws.Read(ctx); err != nil {
			slog.Info("Announcement subscriber disconnected", "user_id", userID)
			return
		}
	}
}
