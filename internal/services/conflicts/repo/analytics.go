package repo

import (
	"context"
	_ "embed"

	"peacekeeper/internal/platform/store"
	"peacekeeper/internal/services/conflicts/domain"
)

//go:embed analytics.sql
var analyticsDDL string

// EventsTable receives one row per analyzer verdict
const EventsTable = "detection_events"

// Events writes detection events to clickhouse
type Events struct {
	ch store.Clickhouse
}

// NewEvents returns a writer; a nil ch makes every call a no-op
func NewEvents(ch store.Clickhouse) *Events { return &Events{ch: ch} }

// Enabled reports whether a clickhouse seam is attached
func (e *Events) Enabled() bool { return e != nil && e.ch != nil }

// EnsureSchema creates the events table when missing
func (e *Events) EnsureSchema(ctx context.Context) error {
	if !e.Enabled() {
		return nil
	}
	return e.ch.Exec(ctx, analyticsDDL)
}

// Insert appends evs in a single batch
func (e *Events) Insert(ctx context.Context, evs ...domain.DetectionEvent) error {
	if !e.Enabled() || len(evs) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(evs))
	for _, ev := range evs {
		reasons := ev.Reasons
		if reasons == nil {
			reasons = []string{}
		}
		rows = append(rows, []any{
			ev.At.UTC(),
			ev.ChannelID,
			ev.GuildID,
			uint16(ev.WindowSize),
			uint16(ev.Participants),
			boolU8(ev.IsConflict),
			ev.Confidence,
			ev.Threshold,
			reasons,
			string(ev.Outcome),
		})
	}
	return e.ch.Insert(ctx, EventsTable, rows)
}

func boolU8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
