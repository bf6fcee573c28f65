// Package domain defines the stored chat message and the store port
package domain

import (
	"context"
	"time"

	"peacekeeper/internal/core/conflict"
)

// Message is one chat message as persisted for a channel
type Message struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	GuildID   string    `json:"guild_id,omitempty"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Conflict converts m into the analyzer's message shape
func (m Message) Conflict() conflict.Message {
	return conflict.Message{
		ID:        m.ID,
		AuthorID:  m.AuthorID,
		Content:   m.Content,
		Timestamp: m.CreatedAt.Unix(),
	}
}

// Channel identifies a channel seen recently
type Channel struct {
	ChannelID string
	GuildID   string
}

// Store is the port the mediation flow reads windows from
// Recent and RecentSince return newest first
type Store interface {
	Recent(ctx context.Context, channelID string, limit int) ([]Message, error)
	RecentSince(ctx context.Context, channelID string, since time.Time, limit int) ([]Message, error)
	Append(ctx context.Context, m Message) (Message, bool, error)
	ActiveChannels(ctx context.Context, since time.Time) ([]Channel, error)
}
