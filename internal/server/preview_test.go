package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/cornerman/internal/event"
	"github.com/ayusman/cornerman/internal/pose"
	"github.com/ayusman/cornerman/internal/round"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func TestHub_Frame(t *testing.T) {
	h := NewHub()

	if frame, seq := h.Frame(); frame != nil || seq != 0 {
		t.Errorf("expected empty hub, got %d bytes seq %d", len(frame), seq)
	}

	h.PublishFrame([]byte{0xff, 0xd8})
	h.PublishFrame([]byte{0xff, 0xd8, 0xff})

	frame, seq := h.Frame()
	if len(frame) != 3 || seq != 2 {
		t.Errorf("expected latest frame with seq 2, got %d bytes seq %d", len(frame), seq)
	}
}

func TestHub_Events(t *testing.T) {
	h := NewHub()

	msgs, unsubscribe := h.Subscribe()
	if h.Subscribers() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", h.Subscribers())
	}

	h.PublishEvent(event.Event{Kind: event.KindStrike, Fighter: 2, Sides: []pose.Side{pose.Left}, Frame: 30})

	select {
	case msg := <-msgs:
		var ev event.Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if ev.Kind != event.KindStrike || ev.Fighter != 2 || ev.Frame != 30 {
			t.Errorf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	if stats := h.Stats(); stats.Strikes != [2]int{0, 1} {
		t.Errorf("expected stats to count the strike, got %v", stats.Strikes)
	}

	unsubscribe()
	unsubscribe()
	if h.Subscribers() != 0 {
		t.Errorf("expected 0 subscribers, got %d", h.Subscribers())
	}
	if _, ok := <-msgs; ok {
		t.Error("expected channel closed after unsubscribe")
	}
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub()
	_, unsubscribe := h.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			h.PublishEvent(event.Event{Kind: event.KindStrike, Fighter: 1})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publishing blocked on a full subscriber")
	}

	if got := h.Stats().Strikes[0]; got != subscriberBuffer*3 {
		t.Errorf("expected %d strikes counted, got %d", subscriberBuffer*3, got)
	}
}

func TestServer_Stats(t *testing.T) {
	hub := NewHub()
	stats := *round.NewStatistics(2)
	stats.Takedowns = [2]int{1, 0}
	hub.PublishStats(stats)

	s := New(Config{Hub: hub})

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var got round.Statistics
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Round != 2 || got.Takedowns != [2]int{1, 0} {
		t.Errorf("unexpected stats %+v", got)
	}
}

func TestServer_Preview(t *testing.T) {
	hub := NewHub()
	jpeg := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}
	hub.PublishFrame(jpeg)

	ts := httptest.NewServer(New(Config{Hub: hub}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/preview", nil)
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET /api/preview error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Errorf("unexpected Content-Type %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	boundary, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read boundary: %v", err)
	}
	if boundary != "--frame\r\n" {
		t.Errorf("unexpected boundary %q", boundary)
	}
	partType, _ := r.ReadString('\n')
	if partType != "Content-Type: image/jpeg\r\n" {
		t.Errorf("unexpected part header %q", partType)
	}
	length, _ := r.ReadString('\n')
	if length != "Content-Length: 6\r\n" {
		t.Errorf("unexpected length header %q", length)
	}
}

func TestServer_Preview_MethodNotAllowed(t *testing.T) {
	s := New(Config{Hub: NewHub()})

	req := httptest.NewRequest(http.MethodPost, "/api/preview", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestServer_Events(t *testing.T) {
	hub := NewHub()
	ts := httptest.NewServer(New(Config{Hub: hub, Logger: zerolog.Nop()}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Wait for the handler to subscribe before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("handler never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.PublishEvent(event.Event{Kind: event.KindTakedown, Fighter: 1, Sides: []pose.Side{pose.Left}, Frame: 90})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var ev event.Event
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Kind != event.KindTakedown || ev.Fighter != 1 || ev.Frame != 90 {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestServer_Shutdown(t *testing.T) {
	s := New(Config{Logger: zerolog.Nop()})

	errc := make(chan error, 1)
	go func() { errc <- s.ListenAndServe("127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("ListenAndServe() error = %v, want nil after Shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ListenAndServe did not return")
	}
}
