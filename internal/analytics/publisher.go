// Package analytics captures profile view and link click events and
// maintains the per-profile summary counters behind the dashboard.
package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tipgrid/tipgrid/internal/metrics"
)

const (
	// StreamKey is the Redis stream for profile analytics events.
	StreamKey = "stream:profile_events"

	// DeadLetterStreamKey is the Redis stream for poison messages.
	DeadLetterStreamKey = "stream:profile_events:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 100 * time.Millisecond
)

// EventPayload is the compressed event format for the Redis stream.
type EventPayload struct {
	ProfileID string `json:"pid"`
	Type      string `json:"ty"`            // "profile_view" or "link_click"
	LinkType  string `json:"lt,omitempty"`  // link clicks only
	LinkURL   string `json:"lu,omitempty"`  // link clicks only
	VisitorID string `json:"vid"`
	Referrer  string `json:"r,omitempty"`   // sanitized, truncated
	UserAgent string `json:"ua,omitempty"`  // truncated
	Location  string `json:"loc,omitempty"` // "City, Region" or "Unknown"
	AcceptedAt int64 `json:"t"`             // Unix milliseconds, server-assigned
}

// Publisher enqueues analytics events to the Redis stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new analytics event publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "analytics.publisher"),
		metrics: recorder,
	}
}

// Publish adds an event to the stream synchronously.
func (p *Publisher) Publish(ctx context.Context, event EventPayload) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	result, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true, // ~MAXLEN for performance
		ID:     "*",  // Auto-generate ID
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()

	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return result, nil
}

// PublishAsync publishes without blocking the caller. Recording is
// best-effort: errors are logged, never surfaced to the visitor.
func (p *Publisher) PublishAsync(event EventPayload) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, event)
		if err != nil {
			p.logger.Warn("failed to publish analytics event",
				"profile_id", event.ProfileID,
				"type", event.Type,
				"error", err,
			)
			p.metrics.IncEventPublished("dropped")
			return
		}

		p.logger.Debug("analytics event published",
			"profile_id", event.ProfileID,
			"type", event.Type,
			"stream_id", streamID,
		)
		p.metrics.IncEventPublished("success")
	}()
}

// GenerateVisitorID derives a privacy-safe visitor identifier when the
// client did not supply one. SHA256(IP + UserAgent + daily_salt)
// truncated to 16 hex chars; the salt rotates at midnight UTC so
// visitors cannot be tracked across days.
func GenerateVisitorID(ip, userAgent string, at time.Time) string {
	dailySalt := fmt.Sprintf("tipgrid:%s", at.UTC().Format("2006-01-02"))

	data := ip + userAgent + dailySalt
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:16]
}

// SanitizeReferrer cleans and truncates the referrer URL.
// Strips query parameters and fragments for privacy; empty referrers
// become "direct".
func SanitizeReferrer(ref string) string {
	if ref == "" {
		return "direct"
	}

	parsed, err := url.Parse(ref)
	if err != nil {
		return ""
	}

	parsed.RawQuery = ""
	parsed.Fragment = ""

	sanitized := parsed.String()
	if len(sanitized) > 500 {
		return sanitized[:500]
	}
	return sanitized
}

// TruncateUserAgent truncates user agent to max 500 chars.
func TruncateUserAgent(ua string) string {
	if len(ua) > 500 {
		return ua[:500]
	}
	return ua
}
