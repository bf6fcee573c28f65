// Package repo persists conflicts, mediations and pair interactions in postgres
package repo

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"time"

	"peacekeeper/internal/modkit/repokit"
	perr "peacekeeper/internal/platform/errors"
	"peacekeeper/internal/platform/store"
	"peacekeeper/internal/services/conflicts/domain"
)

//go:embed schema.sql
var schema string

// Storage is the SQL surface bound per call
type Storage interface {
	EnsureSchema(ctx context.Context) error
	InsertConflict(ctx context.Context, in domain.ConflictInput) (int64, error)
	InsertMediation(ctx context.Context, in domain.MediationInput) error
	MarkTriggered(ctx context.Context, conflictID int64, messageID string) error
	TouchOpen(ctx context.Context, channelID string, at time.Time) (int64, error)
	LastDelivered(ctx context.Context, channelID string) (*time.Time, error)
	UpsertInteraction(ctx context.Context, a, b, channelID string, inConflict bool, at time.Time) error
	Resolve(ctx context.Context, conflictID int64, at time.Time) error
	Recent(ctx context.Context, channelID string, limit int) ([]domain.Record, error)
}

type binder struct{}

// NewPG returns the postgres binder
func NewPG() repokit.Binder[Storage] { return binder{} }

func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

type pg struct{ q repokit.Queryer }

func (p *pg) EnsureSchema(ctx context.Context) error {
	_, err := p.q.Exec(ctx, schema)
	return err
}

func (p *pg) InsertConflict(ctx context.Context, in domain.ConflictInput) (int64, error) {
	parts, err := json.Marshal(in.Participants)
	if err != nil {
		return 0, err
	}
	return store.Scalar[int64](ctx, p.q, `
		INSERT INTO conflicts (channel_id, guild_id, trigger_message_id, participants, confidence, reasons,
			detected_at, last_detected_at)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $7)
		RETURNING id`,
		in.ChannelID, in.GuildID, in.TriggerMessageID, string(parts), in.Confidence, in.Reasons.Strings(), in.DetectedAt)
}

func (p *pg) InsertMediation(ctx context.Context, in domain.MediationInput) error {
	return store.ExecOne(ctx, p.q, `
		INSERT INTO mediations (conflict_id, channel_id, text, source, delivered)
		VALUES ($1, $2, $3, $4, $5)`,
		in.ConflictID, in.ChannelID, in.Text, in.Source, in.Delivered)
}

func (p *pg) MarkTriggered(ctx context.Context, conflictID int64, messageID string) error {
	return store.ExecOne(ctx, p.q, `
		UPDATE conflicts
		SET mediation_triggered = true, mediation_message_id = $2
		WHERE id = $1`, conflictID, messageID)
}

// TouchOpen moves last_detected_at of the newest unresolved conflict in
// channelID forward to at. It returns that conflict's id, 0 when none is open
func (p *pg) TouchOpen(ctx context.Context, channelID string, at time.Time) (int64, error) {
	id, err := store.Scalar[int64](ctx, p.q, `
		UPDATE conflicts SET last_detected_at = GREATEST(last_detected_at, $2)
		WHERE id = (
			SELECT id FROM conflicts
			WHERE channel_id = $1 AND resolved_at IS NULL
			ORDER BY detected_at DESC, id DESC
			LIMIT 1)
		RETURNING id`, channelID, at)
	if errors.Is(err, perr.ErrNotFound) {
		return 0, nil
	}
	return id, err
}

// LastDelivered is nil when nothing was ever delivered in the channel
func (p *pg) LastDelivered(ctx context.Context, channelID string) (*time.Time, error) {
	return store.Scalar[*time.Time](ctx, p.q, `
		SELECT max(created_at) FROM mediations
		WHERE channel_id = $1 AND delivered`, channelID)
}

// UpsertInteraction expects a < b
func (p *pg) UpsertInteraction(ctx context.Context, a, b, channelID string, inConflict bool, at time.Time) error {
	_, err := p.q.Exec(ctx, `
		INSERT INTO user_interactions AS ui
			(user_a, user_b, channel_id, interactions, conflicts, last_interaction_at, last_conflict_at)
		VALUES ($1, $2, $3, 1,
			CASE WHEN $4::boolean THEN 1 ELSE 0 END,
			$5::timestamptz,
			CASE WHEN $4::boolean THEN $5::timestamptz END)
		ON CONFLICT (user_a, user_b, channel_id) DO UPDATE SET
			interactions        = ui.interactions + 1,
			conflicts           = ui.conflicts + EXCLUDED.conflicts,
			last_interaction_at = EXCLUDED.last_interaction_at,
			last_conflict_at    = COALESCE(EXCLUDED.last_conflict_at, ui.last_conflict_at)`,
		a, b, channelID, inConflict, at)
	return err
}

// Resolve keeps the first resolution time when called twice
func (p *pg) Resolve(ctx context.Context, conflictID int64, at time.Time) error {
	return store.ExecOne(ctx, p.q, `
		UPDATE conflicts SET resolved_at = COALESCE(resolved_at, $2)
		WHERE id = $1`, conflictID, at)
}

func (p *pg) Recent(ctx context.Context, channelID string, limit int) ([]domain.Record, error) {
	return store.Many(ctx, p.q, scanRecord, `
		SELECT id, channel_id, guild_id, trigger_message_id, participants, confidence, reasons,
			detected_at, last_detected_at, mediation_triggered, COALESCE(mediation_message_id, ''), resolved_at
		FROM conflicts
		WHERE channel_id = $1
		ORDER BY detected_at DESC, id DESC
		LIMIT $2`, channelID, limit)
}

func scanRecord(r store.Row) (domain.Record, error) {
	var (
		rec   domain.Record
		parts []byte
	)
	if err := r.Scan(
		&rec.ID, &rec.ChannelID, &rec.GuildID, &rec.TriggerMessageID, &parts, &rec.Confidence,
		&rec.Reasons, &rec.DetectedAt, &rec.LastDetectedAt, &rec.MediationTriggered, &rec.MediationMessageID, &rec.ResolvedAt,
	); err != nil {
		return rec, err
	}
	if err := json.Unmarshal(parts, &rec.Participants); err != nil {
		return rec, err
	}
	return rec, nil
}
