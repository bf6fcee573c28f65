// Package repo stores channel messages in postgres
package repo

import (
	"context"
	_ "embed"
	"time"

	"peacekeeper/internal/modkit/repokit"
	"peacekeeper/internal/platform/store"
	"peacekeeper/internal/services/messages/domain"
)

//go:embed schema.sql
var schema string

// Storage is the SQL surface the service binds per call
type Storage interface {
	EnsureSchema(ctx context.Context) error
	Recent(ctx context.Context, channelID string, limit int) ([]domain.Message, error)
	RecentSince(ctx context.Context, channelID string, since time.Time, limit int) ([]domain.Message, error)
	Insert(ctx context.Context, m domain.Message) (bool, error)
	ActiveChannels(ctx context.Context, since time.Time) ([]domain.Channel, error)
}

type binder struct{}

// NewPG returns the postgres binder
func NewPG() repokit.Binder[Storage] { return binder{} }

func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

type pg struct{ q repokit.Queryer }

const selectCols = `message_id, channel_id, guild_id, author_id, content, created_at`

func scanMessage(r store.Row) (domain.Message, error) {
	var m domain.Message
	err := r.Scan(&m.ID, &m.ChannelID, &m.GuildID, &m.AuthorID, &m.Content, &m.CreatedAt)
	return m, err
}

func (p *pg) EnsureSchema(ctx context.Context) error {
	_, err := p.q.Exec(ctx, schema)
	return err
}

func (p *pg) Recent(ctx context.Context, channelID string, limit int) ([]domain.Message, error) {
	return store.Many(ctx, p.q, scanMessage, `
		SELECT `+selectCols+`
		FROM channel_messages
		WHERE channel_id = $1
		ORDER BY created_at DESC, message_id DESC
		LIMIT $2`, channelID, limit)
}

func (p *pg) RecentSince(ctx context.Context, channelID string, since time.Time, limit int) ([]domain.Message, error) {
	return store.Many(ctx, p.q, scanMessage, `
		SELECT `+selectCols+`
		FROM channel_messages
		WHERE channel_id = $1 AND created_at > $2
		ORDER BY created_at DESC, message_id DESC
		LIMIT $3`, channelID, since, limit)
}

// Insert reports false when the message id was already stored
func (p *pg) Insert(ctx context.Context, m domain.Message) (bool, error) {
	tag, err := p.q.Exec(ctx, `
		INSERT INTO channel_messages (message_id, channel_id, guild_id, author_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (message_id) DO NOTHING`,
		m.ID, m.ChannelID, m.GuildID, m.AuthorID, m.Content, m.CreatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (p *pg) ActiveChannels(ctx context.Context, since time.Time) ([]domain.Channel, error) {
	return store.Many(ctx, p.q, func(r store.Row) (domain.Channel, error) {
		var c domain.Channel
		err := r.Scan(&c.ChannelID, &c.GuildID)
		return c, err
	}, `
		SELECT DISTINCT ON (channel_id) channel_id, guild_id
		FROM channel_messages
		WHERE created_at >= $1
		ORDER BY channel_id, created_at DESC`, since)
}
