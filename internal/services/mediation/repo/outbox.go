package repo

import (
	"context"
	_ "embed"
	"strings"

	"github.com/google/uuid"

	"peacekeeper/internal/modkit/repokit"
	perr "peacekeeper/internal/platform/errors"
	"peacekeeper/internal/platform/store"
	ptime "peacekeeper/internal/platform/time"
	"peacekeeper/internal/services/mediation/domain"
)

//go:embed outbox.sql
var outboxSchema string

// Outbox is a Sender that queues text in postgres for an external transport
type Outbox struct {
	q     repokit.Queryer
	clock ptime.Clock
}

var _ domain.Sender = (*Outbox)(nil)

// NewOutbox builds the sender over q
func NewOutbox(q repokit.Queryer, clock ptime.Clock) *Outbox {
	if q == nil {
		panic("mediation.Outbox requires a non nil Queryer")
	}
	return &Outbox{q: q, clock: clock.Or()}
}

// EnsureSchema creates the outbox table
func (o *Outbox) EnsureSchema(ctx context.Context) error {
	_, err := o.q.Exec(ctx, outboxSchema)
	return perr.FromPostgres(err, "outbox: ensure schema")
}

// Send queues text and returns the new entry id
func (o *Outbox) Send(ctx context.Context, channelID, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", perr.WithField(perr.InvalidArgf("mediation text is empty"), "text")
	}
	id, err := uuid.NewV7()
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnknown, "outbox: id")
	}
	err = store.ExecOne(ctx, o.q, `
		INSERT INTO mediation_outbox (id, channel_id, text, created_at)
		VALUES ($1, $2, $3, $4)`, id.String(), channelID, text, o.clock().UTC())
	if err != nil {
		return "", perr.FromPostgresf(err, "outbox: send %s", channelID)
	}
	return id.String(), nil
}

// Pending lists undelivered entries, oldest first
func (o *Outbox) Pending(ctx context.Context, limit int) ([]domain.OutboxEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	out, err := store.Many(ctx, o.q, scanEntry, `
		SELECT id, channel_id, text, created_at, delivered_at
		FROM mediation_outbox
		WHERE delivered_at IS NULL
		ORDER BY created_at, id
		LIMIT $1`, limit)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "outbox: pending")
	}
	return out, nil
}

// Ack marks an entry delivered; acking twice is not an error
func (o *Outbox) Ack(ctx context.Context, id string) error {
	tag, err := o.q.Exec(ctx, `
		UPDATE mediation_outbox SET delivered_at = COALESCE(delivered_at, $2)
		WHERE id = $1`, id, o.clock().UTC())
	if err != nil {
		return perr.FromPostgresf(err, "outbox: ack %s", id)
	}
	if tag.RowsAffected() == 0 {
		return perr.WithField(perr.NotFoundf("outbox entry %s not found", id), "id")
	}
	return nil
}

func scanEntry(r store.Row) (domain.OutboxEntry, error) {
	var e domain.OutboxEntry
	err := r.Scan(&e.ID, &e.ChannelID, &e.Text, &e.CreatedAt, &e.DeliveredAt)
	return e, err
}
