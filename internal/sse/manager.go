package sse

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/bingopot/internal/model"
)

// HubManager owns one hub per game and publishes game events to them
type HubManager struct {
	hubs   map[model.GameID]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.GameID]*Hub),
		logger: logger.With(slog.String("component", "sse")),
	}
}

// GetOrCreateHub returns the hub for a game, creating one if it doesn't exist
func (m *HubManager) GetOrCreateHub(gameID model.GameID) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[gameID]; ok {
		return hub
	}

	hub := NewHub(gameID, m.logger)
	m.hubs[gameID] = hub
	go hub.Run()
	return hub
}

// GetHub returns the hub for a game, or nil if nobody is listening
func (m *HubManager) GetHub(gameID model.GameID) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[gameID]
}

// RemoveHub removes and closes a hub
func (m *HubManager) RemoveHub(gameID model.GameID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[gameID]; ok {
		hub.Close()
		delete(m.hubs, gameID)
	}
}

// CleanupEmptyHubs removes hubs with no clients
func (m *HubManager) CleanupEmptyHubs() {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, hub := range m.hubs {
		if hub.ClientCount() == 0 {
			hub.Close()
			delete(m.hubs, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("sse empty hubs cleaned up", slog.Int("removed", removed))
	}
}

// Close shuts down every hub
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, id)
	}
}

// eventMessage is the JSON body of an SSE data field
type eventMessage struct {
	ID        string          `json:"id"`
	Type      model.EventType `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	GameID    model.GameID    `json:"game_id"`
	PlayerID  model.PlayerID  `json:"player_id,omitempty"`
	Payload   any             `json:"payload,omitempty"`
}

// Publish sends the event to everyone watching its game. Games nobody watches are skipped.
func (m *HubManager) Publish(ctx context.Context, event model.Event) {
	hub := m.GetHub(event.GameID)
	if hub == nil {
		return
	}

	data, err := json.Marshal(eventMessage{
		ID:        event.ID,
		Type:      event.Type,
		Timestamp: event.Timestamp,
		GameID:    event.GameID,
		PlayerID:  event.PlayerID,
		Payload:   event.Payload,
	})
	if err != nil {
		m.logger.Error("sse failed to encode event",
			slog.String("type", string(event.Type)),
			slog.String("error", err.Error()))
		return
	}

	hub.BroadcastEvent(event.ID, string(event.Type), string(data))
}
