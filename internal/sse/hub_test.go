package sse

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mcoot/bingopot/internal/model"
	"github.com/mcoot/bingopot/internal/testutil"
)

func TestFormatSSEMessage(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		eventName string
		data      string
		expected  string
	}{
		{
			name:      "single line data",
			eventName: "number_drawn",
			data:      `{"number":7}`,
			expected:  "event: number_drawn\ndata: {\"number\":7}\n\n",
		},
		{
			name:      "with id",
			id:        "abc",
			eventName: "player_won",
			data:      "x",
			expected:  "id: abc\nevent: player_won\ndata: x\n\n",
		},
		{
			name:      "multi-line data",
			eventName: "test",
			data:      "line1\nline2",
			expected:  "event: test\ndata: line1\ndata: line2\n\n",
		},
		{
			name:      "empty data",
			eventName: "ping",
			data:      "",
			expected:  "event: ping\ndata: \n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatSSEMessage(tt.id, tt.eventName, tt.data)
			if string(result) != tt.expected {
				t.Errorf("formatSSEMessage(%q, %q, %q)\ngot:  %q\nwant: %q",
					tt.id, tt.eventName, tt.data, string(result), tt.expected)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"hello", []string{"hello"}},
		{"line1\nline2", []string{"line1", "line2"}},
		{"line1\n", []string{"line1"}},
		{"", []string{""}},
		{"line1\r\nline2\r\n", []string{"line1", "line2"}},
	}

	for _, tt := range tests {
		result := splitLines(tt.input)
		if strings.Join(result, "|") != strings.Join(tt.expected, "|") || len(result) != len(tt.expected) {
			t.Errorf("splitLines(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := NewHub(1, testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient(hub, "player1")
	hub.Register(client)
	waitForClients(t, hub, 1)

	hub.BroadcastEvent("", "test-event", "test data")

	select {
	case msg := <-client.send:
		expected := "event: test-event\ndata: test data\n\n"
		if string(msg) != expected {
			t.Errorf("client received %q, want %q", string(msg), expected)
		}
	case <-time.After(time.Second):
		t.Error("client did not receive message")
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub(1, testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient(hub, "player1")
	hub.Register(client)
	waitForClients(t, hub, 1)

	hub.Unregister(client)
	waitForClients(t, hub, 0)
}

func TestHub_RegisterAfterCloseFails(t *testing.T) {
	hub := NewHub(1, testutil.NopLogger())
	go hub.Run()
	hub.Close()
	hub.Close()

	if hub.Register(NewClient(hub, "late")) {
		t.Error("Register succeeded on a closed hub")
	}
}

func TestHubManager_GetOrCreateHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()

	hub1 := manager.GetOrCreateHub(1)
	if hub1 != manager.GetOrCreateHub(1) {
		t.Error("GetOrCreateHub returned different hub for same game")
	}
	if hub1 == manager.GetOrCreateHub(2) {
		t.Error("GetOrCreateHub returned same hub for different game")
	}
	if manager.GetHub(3) != nil {
		t.Error("GetHub returned non-nil for game nobody watches")
	}
}

func TestHubManager_CleanupEmptyHubs(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()

	manager.GetOrCreateHub(1)
	active := manager.GetOrCreateHub(2)
	active.Register(NewClient(active, "player1"))
	waitForClients(t, active, 1)

	manager.CleanupEmptyHubs()

	if manager.GetHub(1) != nil {
		t.Error("Empty hub still exists after cleanup")
	}
	if manager.GetHub(2) == nil {
		t.Error("Active hub was removed during cleanup")
	}
}

func TestHubManager_PublishEncodesEvent(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()

	hub := manager.GetOrCreateHub(7)
	client := NewClient(hub, "")
	hub.Register(client)
	waitForClients(t, hub, 1)

	manager.Publish(context.Background(), model.Event{
		ID:      "evt-1",
		Type:    model.EventNumberDrawn,
		GameID:  7,
		Payload: model.NumberDrawnPayload{Number: 42, DrawCount: 3},
	})

	select {
	case msg := <-client.send:
		s := string(msg)
		if !strings.HasPrefix(s, "id: evt-1\nevent: number_drawn\ndata: ") {
			t.Fatalf("unexpected framing: %q", s)
		}
		body := strings.TrimSuffix(strings.TrimPrefix(s, "id: evt-1\nevent: number_drawn\ndata: "), "\n\n")
		var decoded struct {
			GameID  uint64 `json:"game_id"`
			Payload struct {
				Number    int `json:"number"`
				DrawCount int `json:"draw_count"`
			} `json:"payload"`
		}
		if err := json.Unmarshal([]byte(body), &decoded); err != nil {
			t.Fatalf("data is not JSON: %v", err)
		}
		if decoded.GameID != 7 || decoded.Payload.Number != 42 || decoded.Payload.DrawCount != 3 {
			t.Errorf("decoded %+v", decoded)
		}
	case <-time.After(time.Second):
		t.Error("client did not receive event")
	}
}

func TestHubManager_PublishWithoutWatchersIsNoop(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	manager.Publish(context.Background(), model.Event{Type: model.EventGameStarted, GameID: 99})
	if manager.GetHub(99) != nil {
		t.Error("Publish created a hub")
	}
}
