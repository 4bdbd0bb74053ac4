// Package sse fans autosave and publish events out to the browsers watching an editing session.
package sse

import (
	"encoding/json"
	"sync"

	"github.com/debemdeboas/inkwell/internal/editor"
)

type Client struct {
	Msg       chan string
	SessionID string
}

type SSEClients struct {
	clients map[*Client]bool
	mu      sync.RWMutex
}

func NewSSEClients() *SSEClients {
	return &SSEClients{
		clients: make(map[*Client]bool),
	}
}

// NewClient returns a client with a buffered channel, ready to Add.
func NewClient(sessionID string) *Client {
	return &Client{
		Msg:       make(chan string, 8),
		SessionID: sessionID,
	}
}

func (s *SSEClients) Add(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

func (s *SSEClients) Delete(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients[client] {
		delete(s.clients, client)
		close(client.Msg)
	}
}

func (s *SSEClients) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast sends msg to every client of the session. Slow clients miss it.
func (s *SSEClients) Broadcast(sessionID string, msg string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		if client.SessionID == sessionID {
			select {
			case client.Msg <- msg:
			default:
			}
		}
	}
}

type eventMessage struct {
	Event string `json:"event"`
	Error string `json:"error,omitempty"`
}

// EncodeEvent renders an editor event as the SSE data payload.
func EncodeEvent(ev editor.Event) string {
	msg := eventMessage{Event: string(ev.Kind)}
	if ev.Err != nil {
		msg.Error = ev.Err.Error()
	}
	data, _ := json.Marshal(msg)
	return string(data)
}

// Observer returns an editor.Observer that broadcasts a session's events.
func (s *SSEClients) Observer(sessionID string) editor.Observer {
	return editor.ObserverFunc(func(ev editor.Event) {
		s.Broadcast(sessionID, EncodeEvent(ev))
	})
}
