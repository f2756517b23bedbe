package api

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// CaseEvent describes websocket payloads emitted across a case lifecycle.
// Events carry only identifiers and phase progress; the judgment itself is
// never broadcast because other sessions share the stream — clients fetch
// their own verdict from GET /api/cases/:id.
type CaseEvent struct {
	Type      string    `json:"type"`
	CaseID    string    `json:"case_id"`
	Phase     string    `json:"phase,omitempty"`
	Step      int       `json:"step,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// CaseNotifier keeps track of active websocket clients and broadcasts case events.
type CaseNotifier struct {
	mu         sync.Mutex
	clients    map[*wsClient]struct{}
	lastStatus *CaseEvent
}

// NewCaseNotifier constructs a notifier instance.
func NewCaseNotifier() *CaseNotifier {
	return &CaseNotifier{clients: make(map[*wsClient]struct{})}
}

// Register attaches a websocket connection and returns a client handle. The
// most recent status event is replayed so late joiners catch up.
func (n *CaseNotifier) Register(conn *websocket.Conn) *wsClient {
	client := &wsClient{conn: conn}
	n.mu.Lock()
	n.clients[client] = struct{}{}
	status := n.lastStatus
	n.mu.Unlock()

	if status != nil {
		_ = client.writeJSON(*status)
	}
	return client
}

// Unregister removes the websocket client from the notifier and closes the socket.
func (n *CaseNotifier) Unregister(client *wsClient) {
	if client == nil {
		return
	}
	n.mu.Lock()
	delete(n.clients, client)
	n.mu.Unlock()
	_ = client.conn.Close()
}

// Broadcast sends the supplied event to all registered websocket clients.
// Only progress events become the replayable status; a reset is terminal
// and must not be echoed to late joiners.
func (n *CaseNotifier) Broadcast(event CaseEvent) {
	event.Timestamp = time.Now().UTC()

	n.mu.Lock()
	if event.Type == "thinking" || event.Type == "verdict" {
		snapshot := event
		n.lastStatus = &snapshot
	}

	for client := range n.clients {
		if err := client.writeJSON(event); err != nil {
			delete(n.clients, client)
			_ = client.conn.Close()
		}
	}
	n.mu.Unlock()
}

// LastStatus returns a copy of the most recent status event, nil when none.
func (n *CaseNotifier) LastStatus() *CaseEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.lastStatus == nil {
		return nil
	}
	copy := *n.lastStatus
	return &copy
}

func (c *wsClient) writeJSON(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(payload)
}
