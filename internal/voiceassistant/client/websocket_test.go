package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func streamServer(t *testing.T, chunks []string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Errorf("read chat message: %v", err)
			return
		}
		if msg.Type != "chat" {
			t.Errorf("message type = %q, want chat", msg.Type)
		}

		for i, c := range chunks {
			payload, _ := json.Marshal(WSChunkPayload{
				Delta: c,
				Done:  i == len(chunks)-1,
			})
			if err := conn.WriteJSON(WSMessage{Type: "chunk", Payload: payload}); err != nil {
				return
			}
		}
	}))
}

func TestWSClientStreamsChunks(t *testing.T) {
	srv := streamServer(t, []string{"Hel", "lo ", "there.", ""})
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := NewWSClient(url, "test-model")
	defer c.Close()

	var parts []string
	doneSeen := false
	err := c.RespondStream(context.Background(),
		[]Message{{Role: "user", Content: "hi"}},
		func(chunk string, done bool) {
			parts = append(parts, chunk)
			if done {
				doneSeen = true
			}
		})
	if err != nil {
		t.Fatalf("RespondStream() error: %v", err)
	}
	if !doneSeen {
		t.Error("final chunk not flagged done")
	}
	if got := strings.Join(parts, ""); got != "Hello there." {
		t.Errorf("streamed text = %q, want %q", got, "Hello there.")
	}
}

func TestWSClientRespondCollectsStream(t *testing.T) {
	srv := streamServer(t, []string{"a", "b", "c"})
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := NewWSClient(url, "test-model")
	defer c.Close()

	reply, err := c.Respond(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("Respond() error: %v", err)
	}
	if reply != "abc" {
		t.Errorf("reply = %q, want abc", reply)
	}
}

func TestWSClientConnectFailure(t *testing.T) {
	c := NewWSClient("ws://127.0.0.1:1", "m")
	err := c.RespondStream(context.Background(),
		[]Message{{Role: "user", Content: "hi"}},
		func(string, bool) {})
	if err == nil {
		t.Error("RespondStream() succeeded against closed port, want error")
	}
}
