package service

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/tipgrid/tipgrid/internal/model"
)

const (
	// recentActivityLimit caps the dashboard activity feed.
	recentActivityLimit = 50

	// monthlyChartWindow is how many trailing months the chart shows.
	monthlyChartWindow = 6

	// topLinksLimit caps the top link breakdown.
	topLinksLimit = 5
)

// AnalyticsReader is the subset of repository methods the dashboard needs.
type AnalyticsReader interface {
	GetAnalyticsSummary(ctx context.Context, profileID string) (*model.AnalyticsSummary, error)
	GetRecentEvents(ctx context.Context, profileID string, limit int) ([]model.AnalyticsEvent, error)
}

// DashboardService derives owner-facing analytics views from stored summaries.
type DashboardService struct {
	reader AnalyticsReader
	logger *slog.Logger
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(reader AnalyticsReader, logger *slog.Logger) *DashboardService {
	return &DashboardService{
		reader: reader,
		logger: logger.With(slog.String("component", "dashboard_service")),
	}
}

// GetAnalyticsData assembles the full dashboard for a profile.
// A dashboard is informational; any read failure degrades to the zero
// state rather than erroring the whole page.
func (s *DashboardService) GetAnalyticsData(ctx context.Context, profileID string) *model.DashboardView {
	summary, err := s.reader.GetAnalyticsSummary(ctx, profileID)
	if err != nil {
		s.logger.Warn("analytics summary unavailable",
			slog.String("profile_id", profileID),
			slog.String("error", err.Error()),
		)
		return model.ZeroDashboardView()
	}

	view := &model.DashboardView{
		ProfileViews: summary.TotalProfileViews,
		LinkClicks:   summary.TotalLinkClicks,
		ClickRate:    clickRate(summary.TotalProfileViews, summary.TotalLinkClicks),
		MonthlyStats: monthlyChart(summary.MonthlyStats),
		TopLinks:     topLinks(summary.LinkStats, summary.TotalLinkClicks),
	}

	events, err := s.reader.GetRecentEvents(ctx, profileID, recentActivityLimit)
	if err != nil {
		s.logger.Warn("recent events unavailable",
			slog.String("profile_id", profileID),
			slog.String("error", err.Error()),
		)
		events = []model.AnalyticsEvent{}
	}
	if events == nil {
		events = []model.AnalyticsEvent{}
	}
	view.RecentActivity = events

	return view
}

// clickRate returns clicks per view as a percentage with one decimal.
func clickRate(views, clicks int64) float64 {
	if views == 0 {
		return 0
	}
	rate := float64(clicks) / float64(views) * 100
	return math.Round(rate*10) / 10
}

// monthlyChart shapes monthly buckets for the trend chart: chronological
// order, trailing window only, short month labels.
func monthlyChart(monthly map[string]model.PeriodStat) []model.MonthlyPoint {
	keys := make([]string, 0, len(monthly))
	for key := range monthly {
		keys = append(keys, key)
	}
	// Bucket keys are YYYY-MM so lexicographic order is chronological
	sort.Strings(keys)

	if len(keys) > monthlyChartWindow {
		keys = keys[len(keys)-monthlyChartWindow:]
	}

	points := make([]model.MonthlyPoint, 0, len(keys))
	for _, key := range keys {
		stat := monthly[key]
		points = append(points, model.MonthlyPoint{
			Month:  shortMonthLabel(key),
			Views:  stat.Views,
			Clicks: stat.Clicks,
		})
	}
	return points
}

// shortMonthLabel converts a bucket key like "2026-08" into "Aug".
// Unparseable keys pass through unchanged.
func shortMonthLabel(bucket string) string {
	t, err := time.Parse("2006-01", bucket)
	if err != nil {
		return bucket
	}
	return t.Format("Jan")
}

// topLinks ranks link types by click count with an integer share of the
// lifetime click total. The total comes from the summary counter, not from
// summing linkStats, so shares stay consistent with the headline number even
// when the per-link breakdown lags behind it.
func topLinks(linkStats map[string]int64, total int64) []model.TopLink {
	links := make([]model.TopLink, 0, len(linkStats))
	for linkType, clicks := range linkStats {
		percentage := 0
		if total > 0 {
			percentage = int(math.Round(float64(clicks) / float64(total) * 100))
		}
		links = append(links, model.TopLink{
			Link:       capitalize(linkType),
			Clicks:     clicks,
			Percentage: percentage,
		})
	}

	sort.Slice(links, func(i, j int) bool {
		if links[i].Clicks != links[j].Clicks {
			return links[i].Clicks > links[j].Clicks
		}
		return links[i].Link < links[j].Link
	})

	if len(links) > topLinksLimit {
		links = links[:topLinksLimit]
	}
	return links
}

// capitalize uppercases the first letter of a link type for display.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
