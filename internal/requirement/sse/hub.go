package sse

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Event represents a Server-Sent Event
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Event types and actions published by the requirement services.
const (
	EventRequirementUpdate = "requirement_update"
	EventTypeUpdate        = "type_update"

	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionStatus    = "status"
	ActionDeleted   = "deleted"
	ActionCommented = "commented"
)

// RequirementEvent describes a change to one requirement.
func RequirementEvent(id uint, action string) Event {
	return newEvent(EventRequirementUpdate, map[string]interface{}{
		"requirement_id": id,
		"action":         action,
	})
}

// TypeEvent describes a change to the type catalog.
func TypeEvent(id uint, action string) Event {
	return newEvent(EventTypeUpdate, map[string]interface{}{
		"type_id": id,
		"action":  action,
	})
}

func newEvent(eventType string, payload map[string]interface{}) Event {
	data, _ := json.Marshal(payload)
	return Event{EventType: eventType, Data: string(data)}
}

// Client represents a connected SSE client
type Client struct {
	ID     string
	Events chan Event
}

// Hub manages all SSE client connections
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

// NewHub creates a new SSE Hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("SSE client registered", zap.String("client_id", client.ID), zap.Int("total", len(h.clients)))
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("SSE client unregistered", zap.String("client_id", clientID), zap.Int("total", len(h.clients)))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to all connected clients. Slow clients miss events
// rather than blocking the sender.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("SSE client buffer full, skipping event", zap.String("client_id", client.ID))
		}
	}
}

// Publish delivers the event to this process's clients.
func (h *Hub) Publish(_ context.Context, event Event) {
	h.Broadcast(event)
}
