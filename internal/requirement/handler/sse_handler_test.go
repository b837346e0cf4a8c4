package handler

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-req/internal/requirement/sse"
	"github.com/bitfantasy/nimo-req/internal/requirement/testutil"
)

// readFrame reads one SSE frame (lines up to a blank line), skipping keepalives.
func readFrame(t *testing.T, r *bufio.Reader) []string {
	t.Helper()
	var lines []string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		if line == "" {
			if len(lines) > 0 {
				return lines
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		lines = append(lines, line)
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", msg)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSSEStream(t *testing.T) {
	hub := sse.NewHub(nil)
	router := testutil.SetupRouter()
	router.GET("/api/events", NewSSEHandler(hub).Stream)

	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	frame := readFrame(t, reader)
	if frame[0] != "event: connected" || !strings.Contains(frame[1], "client_id") {
		t.Fatalf("unexpected first frame %v", frame)
	}
	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.ClientCount())
	}

	hub.Broadcast(sse.RequirementEvent(5, sse.ActionStatus))
	frame = readFrame(t, reader)
	if len(frame) != 2 || frame[0] != "event: requirement_update" {
		t.Fatalf("unexpected event frame %v", frame)
	}
	if frame[1] != `data: {"action":"status","requirement_id":5}` {
		t.Fatalf("unexpected event data %q", frame[1])
	}

	cancel()
	waitFor(t, func() bool { return hub.ClientCount() == 0 }, "client to unregister")
}
