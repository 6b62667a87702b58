// Package model defines domain entities for the application.
package model

import "time"

// EventType identifies the kind of analytics event.
type EventType string

const (
	EventProfileView EventType = "profile_view"
	EventLinkClick   EventType = "link_click"
)

// IsValid checks if the event type is one of the known kinds.
func (t EventType) IsValid() bool {
	return t == EventProfileView || t == EventLinkClick
}

// AnalyticsEvent is one immutable record in a profile's event log.
type AnalyticsEvent struct {
	ID      string `json:"id"`       // ULID (time-sortable)
	EventID string `json:"event_id"` // Idempotency key (Redis stream ID)

	ProfileID string    `json:"profile_id"`
	Type      EventType `json:"type"`

	// Link click details (empty for profile views)
	LinkType string `json:"link_type,omitempty"` // "spotify", "venmo", etc.
	LinkURL  string `json:"link_url,omitempty"`

	// Visitor metadata
	VisitorID string `json:"visitor_id"`          // client token or daily salted hash
	Referrer  string `json:"referrer,omitempty"`  // truncated 500 chars
	UserAgent string `json:"user_agent,omitempty"` // truncated 500 chars
	Location  string `json:"location,omitempty"`  // "City, Region" or "Unknown"

	OccurredAt time.Time `json:"occurred_at"` // server-assigned at write acceptance
	CreatedAt  time.Time `json:"created_at"`  // DB insertion time
}

// PeriodStat holds view/click counters for one month or day bucket.
type PeriodStat struct {
	Views  int64 `json:"views"`
	Clicks int64 `json:"clicks"`
}

// AnalyticsSummary is the materialized aggregate for one profile.
// It is an eventually-consistent cache over the event log.
type AnalyticsSummary struct {
	ProfileID         string                `json:"profile_id"`
	TotalProfileViews int64                 `json:"total_profile_views"`
	TotalLinkClicks   int64                 `json:"total_link_clicks"`
	MonthlyStats      map[string]PeriodStat `json:"monthly_stats"` // "2026-08" -> counters
	DailyStats        map[string]PeriodStat `json:"daily_stats"`   // "2026-08-31" -> counters
	LinkStats         map[string]int64      `json:"link_stats"`    // link type -> clicks
	LastUpdated       time.Time             `json:"last_updated"`
}

// NewAnalyticsSummary returns a zero-state summary for a profile.
func NewAnalyticsSummary(profileID string) *AnalyticsSummary {
	return &AnalyticsSummary{
		ProfileID:    profileID,
		MonthlyStats: make(map[string]PeriodStat),
		DailyStats:   make(map[string]PeriodStat),
		LinkStats:    make(map[string]int64),
	}
}

// MonthlyPoint is one month's counters shaped for dashboard charts.
type MonthlyPoint struct {
	Month  string `json:"month"` // short label, e.g. "Aug"
	Views  int64  `json:"views"`
	Clicks int64  `json:"clicks"`
}

// TopLink is one link type's share of total clicks.
type TopLink struct {
	Link       string `json:"link"` // capitalized link type
	Clicks     int64  `json:"clicks"`
	Percentage int    `json:"percentage"` // rounded share of total clicks, 0-100
}

// DashboardView is the full analytics response for the owner dashboard.
type DashboardView struct {
	ProfileViews   int64            `json:"profile_views"`
	LinkClicks     int64            `json:"link_clicks"`
	ClickRate      float64          `json:"click_rate"` // percent, 1 decimal
	RecentActivity []AnalyticsEvent `json:"recent_activity"`
	MonthlyStats   []MonthlyPoint   `json:"monthly_stats"`
	TopLinks       []TopLink        `json:"top_links"`
}

// ZeroDashboardView returns the all-zero dashboard used when analytics
// are unavailable. Slices are non-nil so JSON renders empty arrays.
func ZeroDashboardView() *DashboardView {
	return &DashboardView{
		RecentActivity: []AnalyticsEvent{},
		MonthlyStats:   []MonthlyPoint{},
		TopLinks:       []TopLink{},
	}
}
