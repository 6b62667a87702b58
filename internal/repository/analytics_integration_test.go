//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/tipgrid/tipgrid/internal/model"
	"github.com/tipgrid/tipgrid/internal/testutil"
)

// ============================================================================
// Analytics Repository Integration Tests
// ============================================================================

func TestIntegrationAnalyticsRepository_StoreEventBatch_UpdatesSummary(t *testing.T) {
	ctx, repo := newAnalyticsTestEnv(t)

	profileID := testutil.UniqueID("profile")
	occurredAt := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

	view := testutil.NewTestEvent(t, profileID, model.EventProfileView)
	view.OccurredAt = occurredAt
	click := testutil.NewTestEvent(t, profileID, model.EventLinkClick)
	click.OccurredAt = occurredAt

	err := repo.StoreEventBatch(ctx, []*model.AnalyticsEvent{view, click})
	if err != nil {
		t.Fatalf("StoreEventBatch failed: %v", err)
	}

	summary, err := repo.GetAnalyticsSummary(ctx, profileID)
	if err != nil {
		t.Fatalf("GetAnalyticsSummary failed: %v", err)
	}

	if summary.TotalProfileViews != 1 {
		t.Errorf("TotalProfileViews = %d, want 1", summary.TotalProfileViews)
	}
	if summary.TotalLinkClicks != 1 {
		t.Errorf("TotalLinkClicks = %d, want 1", summary.TotalLinkClicks)
	}

	month := summary.MonthlyStats["2026-08"]
	if month.Views != 1 || month.Clicks != 1 {
		t.Errorf("MonthlyStats[2026-08] = %+v, want views 1 clicks 1", month)
	}
	day := summary.DailyStats["2026-08-15"]
	if day.Views != 1 || day.Clicks != 1 {
		t.Errorf("DailyStats[2026-08-15] = %+v, want views 1 clicks 1", day)
	}
	if summary.LinkStats["spotify"] != 1 {
		t.Errorf("LinkStats[spotify] = %d, want 1", summary.LinkStats["spotify"])
	}
}

func TestIntegrationAnalyticsRepository_StoreEventBatch_IdempotentRedelivery(t *testing.T) {
	ctx, repo := newAnalyticsTestEnv(t)

	profileID := testutil.UniqueID("profile")
	view := testutil.NewTestEvent(t, profileID, model.EventProfileView)
	click := testutil.NewTestEvent(t, profileID, model.EventLinkClick)
	batch := []*model.AnalyticsEvent{view, click}

	if err := repo.StoreEventBatch(ctx, batch); err != nil {
		t.Fatalf("StoreEventBatch (first) failed: %v", err)
	}

	// Redeliver the same stream messages, as happens after a worker
	// crash between store and ACK.
	if err := repo.StoreEventBatch(ctx, batch); err != nil {
		t.Fatalf("StoreEventBatch (redelivery) failed: %v", err)
	}

	summary, err := repo.GetAnalyticsSummary(ctx, profileID)
	if err != nil {
		t.Fatalf("GetAnalyticsSummary failed: %v", err)
	}

	if summary.TotalProfileViews != 1 {
		t.Errorf("TotalProfileViews = %d after redelivery, want 1", summary.TotalProfileViews)
	}
	if summary.TotalLinkClicks != 1 {
		t.Errorf("TotalLinkClicks = %d after redelivery, want 1", summary.TotalLinkClicks)
	}

	events, err := repo.GetRecentEvents(ctx, profileID, 10)
	if err != nil {
		t.Fatalf("GetRecentEvents failed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("event log has %d rows after redelivery, want 2", len(events))
	}
}

func TestIntegrationAnalyticsRepository_GetAnalyticsSummary_Empty(t *testing.T) {
	ctx, repo := newAnalyticsTestEnv(t)

	summary, err := repo.GetAnalyticsSummary(ctx, testutil.UniqueID("profile"))
	if err != nil {
		t.Fatalf("GetAnalyticsSummary failed: %v", err)
	}

	if summary.TotalProfileViews != 0 || summary.TotalLinkClicks != 0 {
		t.Errorf("expected zero totals, got %+v", summary)
	}
	if summary.MonthlyStats == nil || summary.DailyStats == nil || summary.LinkStats == nil {
		t.Error("summary maps should be non-nil for unknown profiles")
	}
}

func TestIntegrationAnalyticsRepository_GetRecentEvents_OrderAndLimit(t *testing.T) {
	ctx, repo := newAnalyticsTestEnv(t)

	profileID := testutil.UniqueID("profile")
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	batch := make([]*model.AnalyticsEvent, 0, 5)
	for i := 0; i < 5; i++ {
		event := testutil.NewTestEvent(t, profileID, model.EventProfileView)
		event.OccurredAt = base.Add(time.Duration(i) * time.Hour)
		batch = append(batch, event)
	}
	if err := repo.StoreEventBatch(ctx, batch); err != nil {
		t.Fatalf("StoreEventBatch failed: %v", err)
	}

	events, err := repo.GetRecentEvents(ctx, profileID, 3)
	if err != nil {
		t.Fatalf("GetRecentEvents failed: %v", err)
	}

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].OccurredAt.After(events[i-1].OccurredAt) {
			t.Errorf("events not in descending order: %v before %v",
				events[i-1].OccurredAt, events[i].OccurredAt)
		}
	}
	if !events[0].OccurredAt.Equal(base.Add(4 * time.Hour)) {
		t.Errorf("newest event first: got %v", events[0].OccurredAt)
	}
}

func TestIntegrationAnalyticsRepository_RebuildAnalyticsSummary(t *testing.T) {
	ctx, repo := newAnalyticsTestEnv(t)

	profileID := testutil.UniqueID("profile")
	view := testutil.NewTestEvent(t, profileID, model.EventProfileView)
	click := testutil.NewTestEvent(t, profileID, model.EventLinkClick)

	if err := repo.StoreEventBatch(ctx, []*model.AnalyticsEvent{view, click}); err != nil {
		t.Fatalf("StoreEventBatch failed: %v", err)
	}

	// Drift the counters away from the event log.
	_, err := repo.Pool().Exec(ctx,
		`UPDATE analytics_summaries SET total_profile_views = 999, total_link_clicks = 999 WHERE profile_id = $1`,
		profileID,
	)
	if err != nil {
		t.Fatalf("corrupt summary: %v", err)
	}

	if err := repo.RebuildAnalyticsSummary(ctx, profileID); err != nil {
		t.Fatalf("RebuildAnalyticsSummary failed: %v", err)
	}

	summary, err := repo.GetAnalyticsSummary(ctx, profileID)
	if err != nil {
		t.Fatalf("GetAnalyticsSummary failed: %v", err)
	}

	if summary.TotalProfileViews != 1 {
		t.Errorf("TotalProfileViews = %d after rebuild, want 1", summary.TotalProfileViews)
	}
	if summary.TotalLinkClicks != 1 {
		t.Errorf("TotalLinkClicks = %d after rebuild, want 1", summary.TotalLinkClicks)
	}
	if summary.LinkStats["spotify"] != 1 {
		t.Errorf("LinkStats[spotify] = %d after rebuild, want 1", summary.LinkStats["spotify"])
	}
}

// ============================================================================
// Test Environment
// ============================================================================

func newAnalyticsTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetAnalyticsSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset analytics schema: %v", err)
	}

	return ctx, repo
}
