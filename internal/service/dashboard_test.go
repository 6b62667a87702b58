package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/tipgrid/tipgrid/internal/model"
)

type fakeAnalyticsReader struct {
	summary    *model.AnalyticsSummary
	summaryErr error
	events     []model.AnalyticsEvent
	eventsErr  error
}

func (f *fakeAnalyticsReader) GetAnalyticsSummary(ctx context.Context, profileID string) (*model.AnalyticsSummary, error) {
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	return f.summary, nil
}

func (f *fakeAnalyticsReader) GetRecentEvents(ctx context.Context, profileID string, limit int) ([]model.AnalyticsEvent, error) {
	if f.eventsErr != nil {
		return nil, f.eventsErr
	}
	return f.events, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nopWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestGetAnalyticsData_Derivations(t *testing.T) {
	t.Parallel()

	summary := model.NewAnalyticsSummary("prof1")
	summary.TotalProfileViews = 3
	summary.TotalLinkClicks = 1
	summary.MonthlyStats["2026-08"] = model.PeriodStat{Views: 3, Clicks: 1}
	summary.LinkStats["spotify"] = 1

	reader := &fakeAnalyticsReader{
		summary: summary,
		events: []model.AnalyticsEvent{
			{ID: "e1", Type: model.EventLinkClick, LinkType: "spotify"},
		},
	}

	view := NewDashboardService(reader, testLogger()).GetAnalyticsData(context.Background(), "prof1")

	if view.ProfileViews != 3 {
		t.Errorf("ProfileViews = %d, want 3", view.ProfileViews)
	}
	if view.LinkClicks != 1 {
		t.Errorf("LinkClicks = %d, want 1", view.LinkClicks)
	}
	if view.ClickRate != 33.3 {
		t.Errorf("ClickRate = %v, want 33.3", view.ClickRate)
	}
	if len(view.MonthlyStats) != 1 || view.MonthlyStats[0].Month != "Aug" {
		t.Errorf("MonthlyStats = %+v, want one point labeled Aug", view.MonthlyStats)
	}
	if len(view.TopLinks) != 1 {
		t.Fatalf("TopLinks = %+v, want one entry", view.TopLinks)
	}
	if view.TopLinks[0].Link != "Spotify" || view.TopLinks[0].Percentage != 100 {
		t.Errorf("TopLinks[0] = %+v, want Spotify at 100%%", view.TopLinks[0])
	}
	if len(view.RecentActivity) != 1 {
		t.Errorf("RecentActivity length = %d, want 1", len(view.RecentActivity))
	}
}

func TestGetAnalyticsData_ZeroStateOnError(t *testing.T) {
	t.Parallel()

	reader := &fakeAnalyticsReader{summaryErr: errors.New("database down")}

	view := NewDashboardService(reader, testLogger()).GetAnalyticsData(context.Background(), "prof1")

	if view.ProfileViews != 0 || view.LinkClicks != 0 || view.ClickRate != 0 {
		t.Errorf("expected zero counters, got %+v", view)
	}
	if view.RecentActivity == nil || view.MonthlyStats == nil || view.TopLinks == nil {
		t.Error("zero state slices must be non-nil so JSON renders empty arrays")
	}
}

func TestGetAnalyticsData_EventsErrorDegrades(t *testing.T) {
	t.Parallel()

	summary := model.NewAnalyticsSummary("prof1")
	summary.TotalProfileViews = 10

	reader := &fakeAnalyticsReader{
		summary:   summary,
		eventsErr: errors.New("timeout"),
	}

	view := NewDashboardService(reader, testLogger()).GetAnalyticsData(context.Background(), "prof1")

	if view.ProfileViews != 10 {
		t.Errorf("ProfileViews = %d, want 10", view.ProfileViews)
	}
	if view.RecentActivity == nil || len(view.RecentActivity) != 0 {
		t.Errorf("RecentActivity = %v, want empty slice", view.RecentActivity)
	}
}

func TestClickRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		views  int64
		clicks int64
		want   float64
	}{
		{"zero views", 0, 5, 0},
		{"one third", 3, 1, 33.3},
		{"exact half", 2, 1, 50},
		{"over 100 percent", 2, 5, 250},
		{"rounds to one decimal", 7, 2, 28.6},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := clickRate(tt.views, tt.clicks); got != tt.want {
				t.Errorf("clickRate(%d, %d) = %v, want %v", tt.views, tt.clicks, got, tt.want)
			}
		})
	}
}

func TestMonthlyChart_WindowAndOrder(t *testing.T) {
	t.Parallel()

	monthly := map[string]model.PeriodStat{}
	start := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		key := start.AddDate(0, i, 0).Format("2006-01")
		monthly[key] = model.PeriodStat{Views: int64(i + 1)}
	}

	points := monthlyChart(monthly)

	if len(points) != 6 {
		t.Fatalf("chart length = %d, want 6", len(points))
	}
	// Oldest two months (Nov, Dec 2025) fall outside the window
	if points[0].Month != "Jan" || points[0].Views != 3 {
		t.Errorf("first point = %+v, want Jan with 3 views", points[0])
	}
	if points[5].Month != "Jun" || points[5].Views != 8 {
		t.Errorf("last point = %+v, want Jun with 8 views", points[5])
	}
}

func TestTopLinks_RankingAndShare(t *testing.T) {
	t.Parallel()

	links := topLinks(map[string]int64{
		"spotify": 60,
		"venmo":   25,
		"youtube": 10,
		"tiktok":  3,
		"paypal":  1,
		"cashapp": 1,
	}, 100)

	if len(links) != 5 {
		t.Fatalf("length = %d, want 5 (capped)", len(links))
	}
	if links[0].Link != "Spotify" || links[0].Percentage != 60 {
		t.Errorf("top link = %+v, want Spotify at 60%%", links[0])
	}
	if links[1].Link != "Venmo" || links[1].Percentage != 25 {
		t.Errorf("second link = %+v, want Venmo at 25%%", links[1])
	}
	// Cashapp and paypal tie at 1 click; the alphabetical one survives the cap
	if links[4].Link != "Cashapp" {
		t.Errorf("fifth link = %+v, want Cashapp", links[4])
	}
}

func TestTopLinks_Empty(t *testing.T) {
	t.Parallel()

	links := topLinks(map[string]int64{}, 0)
	if len(links) != 0 {
		t.Errorf("expected empty result, got %+v", links)
	}
}

func TestTopLinks_ShareUsesLifetimeTotal(t *testing.T) {
	t.Parallel()

	// The per-link breakdown can lag behind the lifetime counter, for
	// example right after a partial summary rebuild. Shares must be
	// computed against the lifetime total so they agree with the
	// headline click count.
	links := topLinks(map[string]int64{
		"spotify": 40,
		"venmo":   10,
	}, 200)

	if len(links) != 2 {
		t.Fatalf("length = %d, want 2", len(links))
	}
	if links[0].Link != "Spotify" || links[0].Percentage != 20 {
		t.Errorf("top link = %+v, want Spotify at 20%%", links[0])
	}
	if links[1].Link != "Venmo" || links[1].Percentage != 5 {
		t.Errorf("second link = %+v, want Venmo at 5%%", links[1])
	}
}
