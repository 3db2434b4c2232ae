package events

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"agentdeck/internal/config"
)

// Stream 维护到后端 /events 的单条 SSE 长连接，并把事件广播到 Bus。
// Stream owns the single long-lived SSE connection to the backend's /events
// endpoint and broadcasts decoded events onto the Bus.
//
// Reconnection is unbounded with exponential backoff: the delay starts at the
// configured initial value, doubles per failed attempt up to the cap, and
// resets after a successful open.
type Stream struct {
	url        string
	bus        *Bus
	httpClient *http.Client
	logf       func(format string, args ...any)

	initialDelay time.Duration
	maxDelay     time.Duration
}

func NewStream(cfg config.EventsConfig, bus *Bus, logf func(format string, args ...any)) *Stream {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Stream{
		url: cfg.URL,
		bus: bus,
		// Long-lived stream: no overall client timeout, the context governs
		// the connection lifetime.
		httpClient:   &http.Client{},
		logf:         logf,
		initialDelay: time.Duration(cfg.ReconnectInitialMS) * time.Millisecond,
		maxDelay:     time.Duration(cfg.ReconnectMaxMS) * time.Millisecond,
	}
}

// Run connects and keeps the stream alive until ctx is cancelled. Closing is
// driven entirely by the context; there is no separate Close.
func (s *Stream) Run(ctx context.Context) {
	delay := s.initialDelay
	for {
		opened, err := s.connectOnce(ctx)
		if ctx.Err() != nil {
			s.bus.SetConnected(false, "")
			return
		}

		msg := "connection closed"
		if err != nil {
			msg = err.Error()
			s.logf("event stream error: %v", err)
		}
		s.bus.SetConnected(false, msg)

		if opened {
			delay = s.initialDelay
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > s.maxDelay {
			delay = s.maxDelay
		}
	}
}

// connectOnce performs one connection attempt and drains it until the server
// closes or the context is cancelled. It reports whether the connection ever
// opened successfully.
func (s *Stream) connectOnce(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return false, fmt.Errorf("create stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("connect stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return false, fmt.Errorf("stream request failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	s.bus.SetConnected(true, "")

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 2*1024*1024)

	var dataLines []string
	flush := func() {
		if len(dataLines) == 0 {
			return
		}
		payload := strings.Join(dataLines, "\n")
		dataLines = nil
		ev, err := DecodeEnvelope([]byte(payload))
		if err != nil {
			// Malformed payloads are dropped; the stream itself stays up.
			s.logf("drop malformed event: %v", err)
			return
		}
		s.bus.Publish(ev)
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			flush()
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		if strings.HasPrefix(line, "data:") {
			part := strings.TrimPrefix(line, "data:")
			part = strings.TrimPrefix(part, " ")
			dataLines = append(dataLines, part)
		}
		// event:/id:/retry: fields are ignored; the backend carries the event
		// name inside the JSON envelope.
	}
	flush()

	if err := scanner.Err(); err != nil {
		return true, fmt.Errorf("read stream: %w", err)
	}
	return true, nil
}
