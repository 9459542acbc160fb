package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event types pushed to open pages.
const (
	EventTypeNavigate = "navigate"
	EventTypePing     = "ping"
)

const sessionChannelPrefix = "gather_events:"

// SessionEvent is the payload broadcast over Redis and WebSocket.
type SessionEvent struct {
	Type      string    `json:"type"`
	SessionID string    `json:"-"`
	Path      string    `json:"path,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

type wireEvent struct {
	SessionEvent
	SessionID string `json:"session_id"`
}

// EventHub fans session events published on any instance out to the
// local subscribers of that session.
type EventHub struct {
	rdb *redis.Client

	mu   sync.RWMutex
	subs map[string]map[chan SessionEvent]struct{}

	started sync.Once
}

func NewEventHub(rdb *redis.Client) *EventHub {
	return &EventHub{rdb: rdb, subs: make(map[string]map[chan SessionEvent]struct{})}
}

// Subscribe registers a local listener for sessionID. The returned
// function must be called to release it.
func (h *EventHub) Subscribe(sessionID string) (<-chan SessionEvent, func()) {
	ch := make(chan SessionEvent, 8)

	h.mu.Lock()
	set, ok := h.subs[sessionID]
	if !ok {
		set = make(map[chan SessionEvent]struct{})
		h.subs[sessionID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[sessionID], ch)
			if len(h.subs[sessionID]) == 0 {
				delete(h.subs, sessionID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// fanOut delivers event to local subscribers without blocking.
func (h *EventHub) fanOut(event SessionEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[event.SessionID] {
		select {
		case ch <- event:
		default:
			log.Printf("session event dropped for slow subscriber")
		}
	}
}

// PublishNavigate tells pages open for sessionID to go to path.
func (h *EventHub) PublishNavigate(ctx context.Context, sessionID, path string) error {
	return h.Publish(ctx, SessionEvent{Type: EventTypeNavigate, SessionID: sessionID, Path: path})
}

// Publish sends event through Redis so every instance sees it.
func (h *EventHub) Publish(ctx context.Context, event SessionEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(wireEvent{SessionEvent: event, SessionID: event.SessionID})
	if err != nil {
		return err
	}
	return h.rdb.Publish(ctx, sessionChannelPrefix+event.SessionID, data).Err()
}

// Start ensures a single shared Redis listener per instance.
func (h *EventHub) Start(ctx context.Context) {
	h.started.Do(func() {
		go h.run(ctx)
	})
}

func (h *EventHub) run(ctx context.Context) {
	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := h.rdb.PSubscribe(ctx, sessionChannelPrefix+"*")
			defer pubsub.Close()

			log.Println("✅ Session event subscriber started")

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Printf("Redis subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event wireEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("failed to unmarshal session event: %v", err)
					continue
				}
				event.SessionEvent.SessionID = event.SessionID
				if event.SessionID == "" {
					event.SessionEvent.SessionID = strings.TrimPrefix(msg.Channel, sessionChannelPrefix)
				}
				h.fanOut(event.SessionEvent)
			}
		}()
	}
}
