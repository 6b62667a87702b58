package handler

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tipgrid/tipgrid/internal/analytics"
)

type capturePublisher struct {
	events chan analytics.EventPayload
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{events: make(chan analytics.EventPayload, 1)}
}

func (p *capturePublisher) PublishAsync(event analytics.EventPayload) {
	p.events <- event
}

type staticGeo struct {
	location string
}

func (g staticGeo) Resolve(ctx context.Context, ip string) string {
	return g.location
}

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nilWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type nilWriter struct{}

func (nilWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestTrackEvent_AcceptsClick(t *testing.T) {
	t.Parallel()

	publisher := newCapturePublisher()
	h := NewTrackHandler(publisher, staticGeo{location: "Austin, Texas"}, silentLogger())

	body := `{
		"profile_id": "prof1",
		"type": "link_click",
		"link_type": "spotify",
		"link_url": "https://open.spotify.com/artist/abc",
		"visitor_id": "visitor42",
		"referrer": "https://instagram.com/page?utm_source=bio"
	}`
	req := httptest.NewRequest("POST", "/t/events", strings.NewReader(body))
	req.RemoteAddr = "203.0.113.7:54321"
	rec := httptest.NewRecorder()

	h.TrackEvent(rec, req)

	if rec.Code != 202 {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	select {
	case event := <-publisher.events:
		if event.ProfileID != "prof1" || event.Type != "link_click" {
			t.Errorf("unexpected event %+v", event)
		}
		if event.VisitorID != "visitor42" {
			t.Errorf("VisitorID = %q, want caller-supplied token", event.VisitorID)
		}
		if event.Referrer != "https://instagram.com/page" {
			t.Errorf("Referrer = %q, want query stripped", event.Referrer)
		}
		if event.Location != "Austin, Texas" {
			t.Errorf("Location = %q, want resolved location", event.Location)
		}
		if event.AcceptedAt == 0 {
			t.Error("AcceptedAt should be server-assigned")
		}
	case <-time.After(time.Second):
		t.Fatal("event was never published")
	}
}

func TestTrackEvent_VisitorFallback(t *testing.T) {
	t.Parallel()

	publisher := newCapturePublisher()
	h := NewTrackHandler(publisher, staticGeo{location: "Unknown"}, silentLogger())

	body := `{"profile_id": "prof1", "type": "profile_view"}`
	req := httptest.NewRequest("POST", "/t/events", strings.NewReader(body))
	req.RemoteAddr = "203.0.113.7:54321"
	req.Header.Set("User-Agent", "Mozilla/5.0")
	rec := httptest.NewRecorder()

	h.TrackEvent(rec, req)

	if rec.Code != 202 {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	select {
	case event := <-publisher.events:
		want := analytics.GenerateVisitorID("203.0.113.7", "Mozilla/5.0", time.Now().UTC())
		if event.VisitorID != want {
			t.Errorf("VisitorID = %q, want derived %q", event.VisitorID, want)
		}
		if event.Referrer != "direct" {
			t.Errorf("Referrer = %q, want direct", event.Referrer)
		}
	case <-time.After(time.Second):
		t.Fatal("event was never published")
	}
}

func TestTrackEvent_RejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{not json`},
		{"missing profile", `{"type": "profile_view"}`},
		{"unknown type", `{"profile_id": "p1", "type": "page_ping"}`},
		{"click without link type", `{"profile_id": "p1", "type": "link_click"}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			publisher := newCapturePublisher()
			h := NewTrackHandler(publisher, staticGeo{}, silentLogger())

			req := httptest.NewRequest("POST", "/t/events", strings.NewReader(tt.body))
			req.RemoteAddr = "203.0.113.7:54321"
			rec := httptest.NewRecorder()

			h.TrackEvent(rec, req)

			if rec.Code != 400 {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			select {
			case event := <-publisher.events:
				t.Errorf("invalid request must not publish, got %+v", event)
			case <-time.After(50 * time.Millisecond):
			}
		})
	}
}
