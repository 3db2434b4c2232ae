package events

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"agentdeck/internal/config"
)

func streamConfig(url string) config.EventsConfig {
	return config.EventsConfig{URL: url, ReconnectInitialMS: 20, ReconnectMaxMS: 80}
}

func TestStreamDeliversEventsInArrivalOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("Accept=%q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fl := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"event\":\"todo_added\",\"data\":{\"todo\":{\"id\":\"t1\"}}}\n\n")
		fmt.Fprint(w, ": keepalive comment\n\n")
		fmt.Fprint(w, "data: {\"event\":\"todo_deleted\",\"data\":{\"todoId\":\"t1\"}}\n\n")
		fl.Flush()
	}))
	t.Cleanup(srv.Close)

	bus := NewBus()
	var names []string
	done := make(chan struct{})
	bus.Subscribe(func(ev Event) {
		names = append(names, ev.Name)
		if len(names) == 2 {
			close(done)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewStream(streamConfig(srv.URL), bus, t.Logf).Run(ctx)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timeout, got %v", names)
	}
	if names[0] != "todo_added" || names[1] != "todo_deleted" {
		t.Fatalf("order=%v", names)
	}
}

func TestStreamDropsMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: this is not json\n\n")
		fmt.Fprint(w, "data: {\"event\":\"heartbeat\",\"data\":{}}\n\n")
	}))
	t.Cleanup(srv.Close)

	bus := NewBus()
	got := make(chan string, 4)
	bus.Subscribe(func(ev Event) { got <- ev.Name })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewStream(streamConfig(srv.URL), bus, t.Logf).Run(ctx)

	select {
	case name := <-got:
		if name != "heartbeat" {
			t.Fatalf("first delivered event=%q", name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for event after malformed payload")
	}
}

func TestStreamMultiLineDataIsOnePayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"event\":\"todo_list\",\n")
		fmt.Fprint(w, "data: \"data\":{\"todos\":[]}}\n\n")
	}))
	t.Cleanup(srv.Close)

	bus := NewBus()
	got := make(chan Event, 1)
	bus.Subscribe(func(ev Event) { got <- ev })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewStream(streamConfig(srv.URL), bus, t.Logf).Run(ctx)

	select {
	case ev := <-got:
		if ev.Name != "todo_list" {
			t.Fatalf("name=%q", ev.Name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout")
	}
}

// After a refused connection the next attempt waits out the backoff delay
// instead of hammering the endpoint.
func TestStreamBacksOffBetweenFailedAttempts(t *testing.T) {
	var attempts atomic.Int64
	var last atomic.Int64
	gaps := make(chan time.Duration, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UnixNano()
		if prev := last.Swap(now); prev != 0 {
			gaps <- time.Duration(now - prev)
		}
		attempts.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	bus := NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := config.EventsConfig{URL: srv.URL, ReconnectInitialMS: 50, ReconnectMaxMS: 400}
	go NewStream(cfg, bus, t.Logf).Run(ctx)

	var observed []time.Duration
	for len(observed) < 2 {
		select {
		case g := <-gaps:
			observed = append(observed, g)
		case <-time.After(5 * time.Second):
			t.Fatalf("timeout after %d attempts", attempts.Load())
		}
	}
	// First retry waits >= initial delay, second >= doubled delay.
	if observed[0] < 50*time.Millisecond {
		t.Fatalf("first gap %v shorter than initial delay", observed[0])
	}
	if observed[1] < 100*time.Millisecond {
		t.Fatalf("second gap %v shows no doubling", observed[1])
	}
	if up, msg := bus.Connected(); up || msg == "" {
		t.Fatalf("connected=%v msg=%q", up, msg)
	}
}

// A successful open resets the backoff to the initial delay.
func TestStreamResetsBackoffAfterSuccessfulOpen(t *testing.T) {
	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n <= 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"event\":\"heartbeat\",\"data\":{}}\n\n")
	}))
	t.Cleanup(srv.Close)

	bus := NewBus()
	opened := make(chan struct{}, 1)
	bus.SubscribeState(func(connected bool, _ string) {
		if connected {
			select {
			case opened <- struct{}{}:
			default:
			}
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewStream(streamConfig(srv.URL), bus, t.Logf).Run(ctx)

	select {
	case <-opened:
	case <-time.After(5 * time.Second):
		t.Fatalf("stream never recovered, attempts=%d", attempts.Load())
	}
}

func TestStreamStopsOnContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	bus := NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewStream(streamConfig(srv.URL), bus, t.Logf).Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if up, _ := bus.Connected(); up {
		t.Fatal("still marked connected after shutdown")
	}
}
