// Package websocket streams completed-request audit entries to connected
// admin consoles as they happen.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"

	"saas-backoffice/internal/event"
)

type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	bus        event.Bus
}

func NewHub(bus event.Bus) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		bus:        bus,
	}
}

// Run fans audit events out to clients until ctx is cancelled. A client
// that cannot keep up is dropped.
func (h *Hub) Run(ctx context.Context) {
	events, unsubscribe := h.bus.Subscribe()
	defer func() {
		unsubscribe()
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unregister:
			h.drop(client)
		case e, ok := <-events:
			if !ok {
				return
			}
			if e.Type != event.TypeRequestCompleted {
				continue
			}

			message, err := json.Marshal(e)
			if err != nil {
				slog.Error("live feed: failed to marshal event", "error", err.Error())
				continue
			}

			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					slog.Warn("live feed: dropping slow client", "remote", client.remote)
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}
