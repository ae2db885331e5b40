package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Iron-Ham/sidecar/internal/errors"
	"github.com/Iron-Ham/sidecar/internal/event"
)

// wsServer runs a one-connection websocket endpoint that pushes the
// given frames and then records anything the client sends back.
type wsServer struct {
	*httptest.Server
	received chan []byte
}

func newWSServer(t *testing.T, push ...[]byte) *wsServer {
	t.Helper()
	upgrader := websocket.Upgrader{}
	received := make(chan []byte, 16)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for _, frame := range push {
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		}
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- data
		}
	}))
	t.Cleanup(srv.Close)

	return &wsServer{Server: srv, received: received}
}

func (s *wsServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func TestClient_ReceivesFrames(t *testing.T) {
	srv := newWSServer(t, []byte(`{"type":"workflow.started"}`), []byte(`{"type":"assistant.message","content":"hi"}`))

	client := NewClient(Options{URL: srv.wsURL()})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	for i, want := range []string{`{"type":"workflow.started"}`, `{"type":"assistant.message","content":"hi"}`} {
		select {
		case got := <-client.Frames():
			if string(got) != want {
				t.Errorf("frame %d = %q, want %q", i, got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for frame %d", i)
		}
	}
}

func TestClient_Send(t *testing.T) {
	t.Run("delivers payload once connected", func(t *testing.T) {
		srv := newWSServer(t)
		bus := event.NewBus()

		connected := make(chan bool, 4)
		bus.Subscribe("connection.changed", func(ev event.Event) {
			connected <- ev.(event.ConnectionChangedEvent).Connected
		})

		client := NewClient(Options{URL: srv.wsURL(), Bus: bus})
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go client.Run(ctx)

		select {
		case ok := <-connected:
			if !ok {
				t.Fatal("first connection change should report connected")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for connection")
		}

		if err := client.Send([]byte(`{"type":"chat.message","text":"hi"}`)); err != nil {
			t.Fatalf("Send failed: %v", err)
		}

		select {
		case got := <-srv.received:
			if string(got) != `{"type":"chat.message","text":"hi"}` {
				t.Errorf("server received %q", got)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for server to receive payload")
		}
	})

	t.Run("fails fast while disconnected", func(t *testing.T) {
		client := NewClient(Options{URL: "ws://127.0.0.1:1/events"})

		err := client.Send([]byte(`{}`))
		if !errors.Is(err, errors.ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
	})
}

func TestClient_FramesClosedOnCancel(t *testing.T) {
	srv := newWSServer(t)

	client := NewClient(Options{URL: srv.wsURL()})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		client.Run(ctx)
		close(done)
	}()

	// Let the client establish the connection, then tear everything down.
	deadline := time.After(2 * time.Second)
	for client.Send([]byte(`{}`)) != nil {
		select {
		case <-deadline:
			t.Fatal("client never connected")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// Cancellation alone must tear down the live connection; the server
	// is still up and will never close its side.
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	// Run closes the channel on exit; drain whatever is left.
	for range client.Frames() {
	}
}

func TestClient_ReportsDialFailure(t *testing.T) {
	bus := event.NewBus()
	changes := make(chan event.ConnectionChangedEvent, 4)
	bus.Subscribe("connection.changed", func(ev event.Event) {
		changes <- ev.(event.ConnectionChangedEvent)
	})

	// Nothing listens on this port.
	client := NewClient(Options{
		URL:              "ws://127.0.0.1:1/events",
		ReconnectInitial: 10 * time.Millisecond,
		ReconnectMax:     20 * time.Millisecond,
		Bus:              bus,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	select {
	case ev := <-changes:
		if ev.Connected {
			t.Error("dial failure should report disconnected")
		}
		if ev.Err == "" {
			t.Error("dial failure should carry an error message")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for connection change")
	}
}
