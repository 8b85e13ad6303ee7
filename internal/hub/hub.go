package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"mowmap/internal/domain"
)

// Client is one websocket subscriber. Send is drained by the connection's
// write loop; the hub never blocks on it.
type Client struct {
	ID     string
	Send   chan []byte
	mowers map[string]struct{}
	mu     sync.RWMutex
}

// NewClient creates a client with a send buffer of bufferSize messages.
func NewClient(id string, bufferSize int) *Client {
	return &Client{
		ID:     id,
		Send:   make(chan []byte, bufferSize),
		mowers: make(map[string]struct{}),
	}
}

func (c *Client) HasMower(mowerID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.mowers[mowerID]
	return ok
}

func (c *Client) addMowers(mowerIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range mowerIDs {
		c.mowers[id] = struct{}{}
	}
}

func (c *Client) removeMowers(mowerIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range mowerIDs {
		delete(c.mowers, id)
	}
}

// Mowers returns the client's current subscription set.
func (c *Client) Mowers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	mowers := make([]string, 0, len(c.mowers))
	for id := range c.mowers {
		mowers = append(mowers, id)
	}
	return mowers
}

// Hub fans mower events out to websocket clients subscribed per mower id.
type Hub struct {
	mu           sync.RWMutex
	clients      map[*Client]struct{}
	mowerClients map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan []domain.Event

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:      make(map[*Client]struct{}),
		mowerClients: make(map[string]map[*Client]struct{}),
		register:     make(chan *Client, 16),
		unregister:   make(chan *Client, 16),
		broadcast:    make(chan []domain.Event, 256),
		logger:       logger,
	}
}

// Run owns the client set until ctx is canceled, then closes every
// client's send channel.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("client registered", "client_id", client.ID, "total", h.ClientCount())

		case client := <-h.unregister:
			h.removeClient(client)

		case events := <-h.broadcast:
			h.fanoutEvents(events)
		}
	}
}

// Subscribe attaches a client to the given mower ids.
func (h *Hub) Subscribe(client *Client, mowerIDs []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.addMowers(mowerIDs)

	for _, mowerID := range mowerIDs {
		if h.mowerClients[mowerID] == nil {
			h.mowerClients[mowerID] = make(map[*Client]struct{})
		}
		h.mowerClients[mowerID][client] = struct{}{}
	}
}

// Unsubscribe detaches a client from the given mower ids.
func (h *Hub) Unsubscribe(client *Client, mowerIDs []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.removeMowers(mowerIDs)

	for _, mowerID := range mowerIDs {
		if h.mowerClients[mowerID] != nil {
			delete(h.mowerClients[mowerID], client)
			if len(h.mowerClients[mowerID]) == 0 {
				delete(h.mowerClients, mowerID)
			}
		}
	}
}

// Broadcast queues events for fanout. When the hub cannot keep up the
// batch is dropped; subscribers catch up on the next snapshot.
func (h *Hub) Broadcast(events []domain.Event) {
	if len(events) == 0 {
		return
	}
	select {
	case h.broadcast <- events:
	default:
		h.logger.Warn("broadcast channel full, dropping events", "count", len(events))
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// EventMessage is the wire frame pushed to subscribers.
type EventMessage struct {
	Type    string       `json:"type"`
	Payload EventPayload `json:"payload"`
}

type EventPayload struct {
	Events []domain.Event `json:"events"`
}

func (h *Hub) fanoutEvents(events []domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clientEvents := make(map[*Client][]domain.Event)

	for _, ev := range events {
		if clients, ok := h.mowerClients[ev.MowerID]; ok {
			for client := range clients {
				clientEvents[client] = append(clientEvents[client], ev)
			}
		}
	}

	for client, evs := range clientEvents {
		data, err := json.Marshal(EventMessage{Type: "events", Payload: EventPayload{Events: evs}})
		if err != nil {
			continue
		}

		select {
		case client.Send <- data:
		default:
			h.logger.Debug("client send buffer full", "client_id", client.ID)
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}

	for _, mowerID := range client.Mowers() {
		if h.mowerClients[mowerID] != nil {
			delete(h.mowerClients[mowerID], client)
			if len(h.mowerClients[mowerID]) == 0 {
				delete(h.mowerClients, mowerID)
			}
		}
	}

	delete(h.clients, client)
	close(client.Send)
	h.logger.Debug("client unregistered", "client_id", client.ID, "total", len(h.clients))
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.Send)
	}
	h.clients = make(map[*Client]struct{})
	h.mowerClients = make(map[string]map[*Client]struct{})
}
