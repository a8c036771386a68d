package status

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/philipparndt/arview/internal/platform/logger"
)

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogReporter(logger.NewWriter(&buf, "info", "text"))

	msg := Error("placement failed")
	msg.Session = "abc"
	r.Report(msg)

	out := buf.String()
	for _, want := range []string{"level=ERROR", "placement failed", "session=abc"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in %q", want, out)
		}
	}
}

func TestMulti(t *testing.T) {
	var got []string
	m := Multi{
		Func(func(m Message) { got = append(got, "a:"+m.Text) }),
		Nop{},
		Func(func(m Message) { got = append(got, "b:"+m.Text) }),
	}
	m.Report(Info("hi"))

	if len(got) != 2 || got[0] != "a:hi" || got[1] != "b:hi" {
		t.Errorf("Unexpected fan-out %v", got)
	}
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	return ws
}

func readMessage(t *testing.T, ws *websocket.Conn) Message {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	return msg
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients, have %d", n, h.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(logger.Discard())
	hub.Report(Info("before connect"))

	srv := httptest.NewServer(hub)
	defer srv.Close()

	ws := dial(t, srv)
	defer ws.Close()

	if msg := readMessage(t, ws); msg.Text != "before connect" {
		t.Errorf("Expected backlog message, got %q", msg.Text)
	}

	waitClients(t, hub, 1)
	msg := Info("session active")
	msg.State = "active"
	hub.Report(msg)

	got := readMessage(t, ws)
	if got.Text != "session active" || got.State != "active" || got.Level != LevelInfo {
		t.Errorf("Unexpected message %+v", got)
	}
	if hub.MessagesSent() != 1 {
		t.Errorf("Expected 1 broadcast delivery, got %d", hub.MessagesSent())
	}
}

func TestHubDropsClosedClients(t *testing.T) {
	hub := NewHub(logger.Discard())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	ws := dial(t, srv)
	waitClients(t, hub, 1)
	ws.Close()
	waitClients(t, hub, 0)
}

func TestHubBacklogPrecedesLiveMessages(t *testing.T) {
	const total = 2000
	hub := NewHub(logger.Discard())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	hub.Report(Info("msg-0"))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i < total; i++ {
			hub.Report(Info(fmt.Sprintf("msg-%d", i)))
		}
	}()

	ws := dial(t, srv)
	defer ws.Close()

	prev := -1
	for prev != total-1 {
		var n int
		msg := readMessage(t, ws)
		if _, err := fmt.Sscanf(msg.Text, "msg-%d", &n); err != nil {
			t.Fatalf("Unexpected message %q", msg.Text)
		}
		if prev >= 0 && n != prev+1 {
			t.Fatalf("Message %d arrived after %d", n, prev)
		}
		prev = n
	}
	<-done
}
