package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/tipgrid/tipgrid/internal/analytics"
	"github.com/tipgrid/tipgrid/internal/handler/dto"
)

// EventPublisher enqueues analytics events without blocking the caller.
type EventPublisher interface {
	PublishAsync(event analytics.EventPayload)
}

// GeoLookup resolves an IP address to a coarse location string.
type GeoLookup interface {
	Resolve(ctx context.Context, ip string) string
}

// TrackHandler accepts analytics events from public pages.
// Recording is fire-and-forget: the visitor's request never waits on
// Redis, Postgres or the geo lookup.
type TrackHandler struct {
	publisher EventPublisher
	geo       GeoLookup
	logger    *slog.Logger
}

// NewTrackHandler creates a new TrackHandler.
func NewTrackHandler(publisher EventPublisher, geo GeoLookup, logger *slog.Logger) *TrackHandler {
	return &TrackHandler{
		publisher: publisher,
		geo:       geo,
		logger:    logger.With("component", "handler.track"),
	}
}

// TrackEvent handles POST /t/events.
// Returns 202 on acceptance; the event lands in the summary asynchronously.
func (h *TrackHandler) TrackEvent(w http.ResponseWriter, r *http.Request) {
	var req dto.TrackEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	now := time.Now().UTC()
	ip := clientIP(r)
	userAgent := analytics.TruncateUserAgent(r.UserAgent())

	visitorID := req.VisitorID
	if visitorID == "" {
		visitorID = analytics.GenerateVisitorID(ip, userAgent, now)
	}

	referrer := req.Referrer
	if referrer == "" {
		referrer = r.Referer()
	}

	payload := analytics.EventPayload{
		ProfileID:  req.ProfileID,
		Type:       req.Type,
		LinkType:   req.LinkType,
		LinkURL:    req.LinkURL,
		VisitorID:  visitorID,
		Referrer:   analytics.SanitizeReferrer(referrer),
		UserAgent:  userAgent,
		AcceptedAt: now.UnixMilli(),
	}

	if err := analytics.ValidateEventPayload(payload); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_EVENT", err.Error())
		return
	}

	// Resolve location off the request path, then enqueue.
	go func() {
		payload.Location = h.geo.Resolve(context.Background(), ip)
		h.publisher.PublishAsync(payload)
	}()

	w.WriteHeader(http.StatusAccepted)
}

// clientIP extracts the caller's IP, stripping any port.
// Runs behind chi's RealIP middleware, so RemoteAddr is already the
// forwarded client address when proxied.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
