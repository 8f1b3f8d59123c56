package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/ikkim/handmade-storefront/pkg/logger"
)

const (
	// maximum client messages per second
	maxMessagesPerSecond = 10

	// Message types
	TypeCartUpdated = "cart_updated"
	TypeSync        = "sync"
)

// Event is what the hub pushes to browsers
type Event struct {
	Type string      `json:"type"`
	Cart interface{} `json:"cart"`
}

// ClientMessage is a message sent by the browser
type ClientMessage struct {
	Type string `json:"type"`
}

// SnapshotFunc returns the current cart view of a session
type SnapshotFunc func(sessionID string) interface{}

// Client is one open websocket of a cart session
type Client struct {
	Hub           *Hub
	Conn          *Conn
	SessionID     string
	Send          chan []byte
	MessageCount  int
	LastResetTime time.Time
	RateMu        sync.Mutex

	// set under Hub.mu once Send is closed
	closed bool
}

func NewClient(hub *Hub, conn *Conn, sessionID string) *Client {
	return &Client{
		Hub:       hub,
		Conn:      conn,
		SessionID: sessionID,
		Send:      make(chan []byte, 16),
	}
}

// Hub fans cart updates out to every open surface of a session
type Hub struct {
	// sessionID -> open clients (drawer, cart page, other tabs)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	done       chan struct{}
	stopOnce   sync.Once

	snapshot SnapshotFunc

	mu sync.RWMutex
}

type BroadcastMessage struct {
	SessionID string
	Message   []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *BroadcastMessage, 1024),
		done:       make(chan struct{}),
	}
}

// SetSnapshotFunc installs the source used to answer sync requests
func (h *Hub) SetSnapshotFunc(fn SnapshotFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshot = fn
}

// Run processes registrations and broadcasts until Stop is called
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			total := len(h.clients[client.SessionID])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"cart_session":   client.SessionID,
				"total_surfaces": total,
			})

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients[message.SessionID] {
				select {
				case client.Send <- message.Message:
				default:
					go h.Unregister(client)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"cart_session": message.SessionID,
					})
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	clientList, ok := h.clients[client.SessionID]
	if !ok {
		h.mu.Unlock()
		return
	}

	newList := make([]*Client, 0, len(clientList))
	found := false
	for _, c := range clientList {
		if c == client {
			found = true
			continue
		}
		newList = append(newList, c)
	}
	if len(newList) == 0 {
		delete(h.clients, client.SessionID)
	} else {
		h.clients[client.SessionID] = newList
	}
	if found && !client.closed {
		client.closed = true
		close(client.Send)
	}
	h.mu.Unlock()

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"cart_session":       client.SessionID,
		"remaining_surfaces": len(newList),
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sessionID, clientList := range h.clients {
		for _, c := range clientList {
			if !c.closed {
				c.closed = true
				close(c.Send)
			}
		}
		delete(h.clients, sessionID)
	}
	logger.Info("WebSocket hub stopped")
}

// Stop ends Run and closes every client
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

// SendToSession queues message for every client of sessionID. It never
// blocks; when the queue is full the message is dropped.
func (h *Hub) SendToSession(sessionID string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Error("Failed to marshal message", err)
		return err
	}

	select {
	case h.broadcast <- &BroadcastMessage{SessionID: sessionID, Message: data}:
	default:
		logger.Warn("Broadcast channel full, message dropped", map[string]interface{}{
			"cart_session": sessionID,
		})
	}
	return nil
}

// PublishCart pushes a cart_updated event to a session
func (h *Hub) PublishCart(sessionID string, cart interface{}) {
	h.SendToSession(sessionID, Event{Type: TypeCartUpdated, Cart: cart})
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SessionSurfaces is the number of open clients of a session
func (h *Hub) SessionSurfaces(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// HandleClientMessage answers a "sync" request with the current cart,
// sent to the asking client only
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"cart_session": client.SessionID,
			"count":        count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"cart_session": client.SessionID,
			"error":        err.Error(),
		})
		return
	}

	if msg.Type != TypeSync {
		return
	}

	h.mu.RLock()
	snapshot := h.snapshot
	h.mu.RUnlock()
	if snapshot == nil {
		return
	}

	data, err := json.Marshal(Event{Type: TypeCartUpdated, Cart: snapshot(client.SessionID)})
	if err != nil {
		logger.Error("Failed to marshal message", err)
		return
	}
	h.reply(client, data)
}

// reply queues data for client alone. It never blocks and never sends
// on a closed queue.
func (h *Hub) reply(client *Client, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if client.closed {
		return
	}
	select {
	case client.Send <- data:
	default:
		logger.Warn("Client send buffer full, sync reply dropped", map[string]interface{}{
			"cart_session": client.SessionID,
		})
	}
}
