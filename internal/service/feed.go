package service

import (
	"context"
	"time"

	"peeps/internal/models"
	"peeps/internal/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultTimelineWindowDays is how many whole days before today a timeline reaches back.
const DefaultTimelineWindowDays = 5

// TimelineReader reads the peeps of the accounts a user follows.
type TimelineReader interface {
	Timeline(ctx context.Context, followerID uuid.UUID, since time.Time) ([]models.TimelineEntry, error)
}

// FeedBuilder computes chronological timelines from the follow graph.
type FeedBuilder struct {
	peeps TimelineReader
}

// NewFeedBuilder returns a new FeedBuilder.
func NewFeedBuilder(peeps TimelineReader) *FeedBuilder {
	return &FeedBuilder{peeps: peeps}
}

// WindowStart returns midnight of now's day, in now's location, moved back
// windowDays calendar days.
func WindowStart(now time.Time, windowDays int) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d-windowDays, 0, 0, 0, 0, now.Location())
}

// BuildTimeline returns the peeps of accounts userID follows created at or
// after WindowStart(now, windowDays), newest first with ties broken by peep
// id. Nothing to show is an empty slice.
func (f *FeedBuilder) BuildTimeline(ctx context.Context, userID uuid.UUID, windowDays int, now time.Time) ([]models.TimelineEntry, error) {
	if windowDays < 0 {
		return nil, models.NewValidationError("window must not be negative")
	}

	since := WindowStart(now, windowDays)
	ctx, span := observability.StartSpan(ctx, "FeedBuilder.BuildTimeline",
		attribute.String("user.id", userID.String()),
		attribute.Int("timeline.window_days", windowDays),
		attribute.String("timeline.since", since.Format(time.RFC3339)),
	)

	entries, err := f.peeps.Timeline(ctx, userID, since)
	if err != nil {
		span.Finish(err)
		return nil, err
	}
	if entries == nil {
		entries = []models.TimelineEntry{}
	}

	span.Annotate(attribute.Int("timeline.entries", len(entries)))
	span.Finish(nil)
	observability.TimelineEntries.Observe(float64(len(entries)))
	return entries, nil
}
