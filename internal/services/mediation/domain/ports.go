package domain

import (
	"context"
	"time"

	"peacekeeper/internal/core/conflict"
	"peacekeeper/internal/core/policy"
	"peacekeeper/internal/core/respond"
	mdomain "peacekeeper/internal/services/messages/domain"
)

// Policy is the per-channel intervention limiter. Limits are resolved by
// the caller for each decision
type Policy interface {
	CanIntervene(ctx context.Context, channelID string, lim policy.Limits) (bool, error)
	RecordIntervention(ctx context.Context, channelID string) error
	Stats(ctx context.Context, channelID string, lim policy.Limits) (policy.Stats, error)
	Reset(ctx context.Context, channelID string) error
}

// MessageStore supplies windows newest first
type MessageStore interface {
	Recent(ctx context.Context, channelID string, limit int) ([]mdomain.Message, error)
	RecentSince(ctx context.Context, channelID string, since time.Time, limit int) ([]mdomain.Message, error)
}

// Sender delivers mediation text and returns the delivered message id
type Sender interface {
	Send(ctx context.Context, channelID, text string) (string, error)
}

// Selector picks the mediation text; it never fails
type Selector interface {
	Select(ctx context.Context, reasons conflict.Reasons, confidence float64, window []conflict.Message) respond.Response
}
