package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tipgrid/tipgrid/internal/model"
)

// Period bucket key formats.
const (
	monthKeyFormat = "2006-01"
	dayKeyFormat   = "2006-01-02"
)

// Granularity values for analytics_period_stats rows.
const (
	granularityMonth = "month"
	granularityDay   = "day"
)

// summaryDelta accumulates counter increments for one profile across a batch.
type summaryDelta struct {
	views  int64
	clicks int64
	months map[string]*model.PeriodStat
	days   map[string]*model.PeriodStat
	links  map[string]int64
}

func newSummaryDelta() *summaryDelta {
	return &summaryDelta{
		months: make(map[string]*model.PeriodStat),
		days:   make(map[string]*model.PeriodStat),
		links:  make(map[string]int64),
	}
}

func (d *summaryDelta) add(event *model.AnalyticsEvent) {
	monthKey := event.OccurredAt.UTC().Format(monthKeyFormat)
	dayKey := event.OccurredAt.UTC().Format(dayKeyFormat)

	month := d.months[monthKey]
	if month == nil {
		month = &model.PeriodStat{}
		d.months[monthKey] = month
	}
	day := d.days[dayKey]
	if day == nil {
		day = &model.PeriodStat{}
		d.days[dayKey] = day
	}

	switch event.Type {
	case model.EventProfileView:
		d.views++
		month.Views++
		day.Views++
	case model.EventLinkClick:
		d.clicks++
		month.Clicks++
		day.Clicks++
		if event.LinkType != "" {
			d.links[event.LinkType]++
		}
	}
}

// StoreEventBatch persists a batch of analytics events and their summary
// increments in a single transaction. Events are deduplicated on event_id;
// counters only move for rows that were actually inserted, so redelivered
// stream messages never double count.
func (r *Repository) StoreEventBatch(ctx context.Context, events []*model.AnalyticsEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin event batch: %w", err)
	}
	defer tx.Rollback(ctx)

	deltas := make(map[string]*summaryDelta)

	insertQuery := `
		INSERT INTO analytics_events (
			id, event_id, profile_id, event_type, link_type, link_url,
			visitor_id, referrer, user_agent, location, occurred_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (event_id) DO NOTHING
	`

	for _, event := range events {
		tag, err := tx.Exec(ctx, insertQuery,
			event.ID,
			event.EventID,
			event.ProfileID,
			string(event.Type),
			nullableString(event.LinkType),
			nullableString(event.LinkURL),
			event.VisitorID,
			nullableString(event.Referrer),
			nullableString(event.UserAgent),
			nullableString(event.Location),
			event.OccurredAt,
		)
		if err != nil {
			return fmt.Errorf("insert event %s: %w", event.EventID, err)
		}

		// Skip duplicates so summary counters stay consistent with the log.
		if tag.RowsAffected() == 0 {
			continue
		}

		delta := deltas[event.ProfileID]
		if delta == nil {
			delta = newSummaryDelta()
			deltas[event.ProfileID] = delta
		}
		delta.add(event)
	}

	for profileID, delta := range deltas {
		if err := applySummaryDelta(ctx, tx, profileID, delta); err != nil {
			return fmt.Errorf("apply summary for profile %s: %w", profileID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit event batch: %w", err)
	}

	return nil
}

func applySummaryDelta(ctx context.Context, tx pgx.Tx, profileID string, delta *summaryDelta) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO analytics_summaries (profile_id, total_profile_views, total_link_clicks, last_updated)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (profile_id) DO UPDATE SET
			total_profile_views = analytics_summaries.total_profile_views + EXCLUDED.total_profile_views,
			total_link_clicks = analytics_summaries.total_link_clicks + EXCLUDED.total_link_clicks,
			last_updated = NOW()
	`, profileID, delta.views, delta.clicks)
	if err != nil {
		return fmt.Errorf("upsert totals: %w", err)
	}

	periodQuery := `
		INSERT INTO analytics_period_stats (profile_id, granularity, bucket, views, clicks)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (profile_id, granularity, bucket) DO UPDATE SET
			views = analytics_period_stats.views + EXCLUDED.views,
			clicks = analytics_period_stats.clicks + EXCLUDED.clicks
	`

	for bucket, stat := range delta.months {
		if _, err := tx.Exec(ctx, periodQuery, profileID, granularityMonth, bucket, stat.Views, stat.Clicks); err != nil {
			return fmt.Errorf("upsert month %s: %w", bucket, err)
		}
	}
	for bucket, stat := range delta.days {
		if _, err := tx.Exec(ctx, periodQuery, profileID, granularityDay, bucket, stat.Views, stat.Clicks); err != nil {
			return fmt.Errorf("upsert day %s: %w", bucket, err)
		}
	}

	linkQuery := `
		INSERT INTO analytics_link_stats (profile_id, link_type, clicks)
		VALUES ($1, $2, $3)
		ON CONFLICT (profile_id, link_type) DO UPDATE SET
			clicks = analytics_link_stats.clicks + EXCLUDED.clicks
	`

	for linkType, clicks := range delta.links {
		if _, err := tx.Exec(ctx, linkQuery, profileID, linkType, clicks); err != nil {
			return fmt.Errorf("upsert link type %s: %w", linkType, err)
		}
	}

	return nil
}

// GetAnalyticsSummary assembles the materialized summary for a profile.
// A profile with no recorded events gets a zero-state summary, not an error.
func (r *Repository) GetAnalyticsSummary(ctx context.Context, profileID string) (*model.AnalyticsSummary, error) {
	summary := model.NewAnalyticsSummary(profileID)

	err := r.pool.QueryRow(ctx, `
		SELECT total_profile_views, total_link_clicks, last_updated
		FROM analytics_summaries
		WHERE profile_id = $1
	`, profileID).Scan(&summary.TotalProfileViews, &summary.TotalLinkClicks, &summary.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return summary, nil
		}
		return nil, fmt.Errorf("query summary totals: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT granularity, bucket, views, clicks
		FROM analytics_period_stats
		WHERE profile_id = $1
	`, profileID)
	if err != nil {
		return nil, fmt.Errorf("query period stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var granularity, bucket string
		var stat model.PeriodStat
		if err := rows.Scan(&granularity, &bucket, &stat.Views, &stat.Clicks); err != nil {
			return nil, fmt.Errorf("scan period stat: %w", err)
		}
		switch granularity {
		case granularityMonth:
			summary.MonthlyStats[bucket] = stat
		case granularityDay:
			summary.DailyStats[bucket] = stat
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate period stats: %w", err)
	}

	linkRows, err := r.pool.Query(ctx, `
		SELECT link_type, clicks
		FROM analytics_link_stats
		WHERE profile_id = $1
	`, profileID)
	if err != nil {
		return nil, fmt.Errorf("query link stats: %w", err)
	}
	defer linkRows.Close()

	for linkRows.Next() {
		var linkType string
		var clicks int64
		if err := linkRows.Scan(&linkType, &clicks); err != nil {
			return nil, fmt.Errorf("scan link stat: %w", err)
		}
		summary.LinkStats[linkType] = clicks
	}

	return summary, linkRows.Err()
}

// GetRecentEvents returns the newest events for a profile, most recent first.
func (r *Repository) GetRecentEvents(ctx context.Context, profileID string, limit int) ([]model.AnalyticsEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, event_id, profile_id, event_type,
			   COALESCE(link_type, ''), COALESCE(link_url, ''),
			   visitor_id, COALESCE(referrer, ''), COALESCE(user_agent, ''), COALESCE(location, ''),
			   occurred_at, created_at
		FROM analytics_events
		WHERE profile_id = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2
	`, profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent events: %w", err)
	}
	defer rows.Close()

	events := make([]model.AnalyticsEvent, 0, limit)
	for rows.Next() {
		var event model.AnalyticsEvent
		var eventType string
		if err := rows.Scan(
			&event.ID,
			&event.EventID,
			&event.ProfileID,
			&eventType,
			&event.LinkType,
			&event.LinkURL,
			&event.VisitorID,
			&event.Referrer,
			&event.UserAgent,
			&event.Location,
			&event.OccurredAt,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event.Type = model.EventType(eventType)
		events = append(events, event)
	}

	return events, rows.Err()
}

// RebuildAnalyticsSummary recomputes a profile's summary from its event log.
// Used by the admin reconciliation endpoint when counters drift from the log.
func (r *Repository) RebuildAnalyticsSummary(ctx context.Context, profileID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rebuild: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, query := range []string{
		`DELETE FROM analytics_period_stats WHERE profile_id = $1`,
		`DELETE FROM analytics_link_stats WHERE profile_id = $1`,
		`DELETE FROM analytics_summaries WHERE profile_id = $1`,
	} {
		if _, err := tx.Exec(ctx, query, profileID); err != nil {
			return fmt.Errorf("clear summary: %w", err)
		}
	}

	rows, err := tx.Query(ctx, `
		SELECT event_type, COALESCE(link_type, ''), occurred_at
		FROM analytics_events
		WHERE profile_id = $1
	`, profileID)
	if err != nil {
		return fmt.Errorf("query event log: %w", err)
	}

	delta := newSummaryDelta()
	count := 0
	for rows.Next() {
		var eventType, linkType string
		var occurredAt time.Time
		if err := rows.Scan(&eventType, &linkType, &occurredAt); err != nil {
			rows.Close()
			return fmt.Errorf("scan event: %w", err)
		}
		delta.add(&model.AnalyticsEvent{
			Type:       model.EventType(eventType),
			LinkType:   linkType,
			OccurredAt: occurredAt,
		})
		count++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate event log: %w", err)
	}

	if count > 0 {
		if err := applySummaryDelta(ctx, tx, profileID, delta); err != nil {
			return fmt.Errorf("rebuild summary: %w", err)
		}
	}

	return tx.Commit(ctx)
}
