package services

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	hubWriteWait  = 10 * time.Second
	hubSendBuffer = 16
)

// Event is pushed to every connected admin console.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	At      time.Time   `json:"at"`
}

type hubClient interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// hubPeer owns the writes to one connection. Only its pump goroutine
// touches conn after registration.
type hubPeer struct {
	conn hubClient
	send chan Event
}

// EventHub fans events out to admin websocket connections. A console that
// stops reading is dropped once its buffer fills; it never blocks the others.
type EventHub struct {
	mu        sync.Mutex
	clients   map[hubClient]*hubPeer
	ch        chan Event
	writeWait time.Duration
}

func NewEventHub() *EventHub {
	return &EventHub{
		clients:   map[hubClient]*hubPeer{},
		ch:        make(chan Event, 64),
		writeWait: hubWriteWait,
	}
}

func (h *EventHub) Run(ctx context.Context) {
	for {
		select {
		case event := <-h.ch:
			h.deliver(event)
		case <-ctx.Done():
			h.mu.Lock()
			for conn, peer := range h.clients {
				h.dropLocked(conn, peer)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *EventHub) deliver(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, peer := range h.clients {
		select {
		case peer.send <- event:
		default:
			h.dropLocked(conn, peer)
		}
	}
}

// Publish never blocks; events are dropped when the buffer is full.
func (h *EventHub) Publish(eventType string, payload interface{}) {
	select {
	case h.ch <- Event{Type: eventType, Payload: payload, At: time.Now().UTC()}:
	default:
	}
}

func (h *EventHub) Add(conn *websocket.Conn) {
	h.add(conn)
}

func (h *EventHub) Remove(conn *websocket.Conn) {
	h.remove(conn)
}

func (h *EventHub) add(c hubClient) {
	peer := &hubPeer{conn: c, send: make(chan Event, hubSendBuffer)}
	h.mu.Lock()
	h.clients[c] = peer
	h.mu.Unlock()
	go h.pump(peer)
}

func (h *EventHub) pump(peer *hubPeer) {
	for event := range peer.send {
		_ = peer.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
		if err := peer.conn.WriteJSON(event); err != nil {
			h.remove(peer.conn)
			return
		}
	}
}

func (h *EventHub) remove(c hubClient) {
	h.mu.Lock()
	if peer, ok := h.clients[c]; ok {
		h.dropLocked(c, peer)
	}
	h.mu.Unlock()
}

// dropLocked must be called with h.mu held.
func (h *EventHub) dropLocked(c hubClient, peer *hubPeer) {
	delete(h.clients, c)
	close(peer.send)
	_ = c.Close()
}

func (h *EventHub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
