package domain

import (
	"context"
	"time"
)

// Sink persists conflicts and their mediation trail
type Sink interface {
	RecordConflict(ctx context.Context, in ConflictInput) (int64, error)
	RecordMediation(ctx context.Context, in MediationInput) error
	MarkMediationTriggered(ctx context.Context, conflictID int64, deliveredMessageID string) error
	// TouchConflict records that the newest open conflict in channelID was
	// seen again without being mediated
	TouchConflict(ctx context.Context, channelID string) error
	// LastMediationAt reports the last delivered mediation in channelID
	LastMediationAt(ctx context.Context, channelID string) (time.Time, bool, error)
	UpdateInteraction(ctx context.Context, a, b, channelID string, inConflict bool) error
	Resolve(ctx context.Context, conflictID int64) error
	Recent(ctx context.Context, channelID string, limit int) ([]Record, error)
}

// Analytics receives every verdict the orchestrator computes
type Analytics interface {
	Record(ctx context.Context, ev DetectionEvent) error
}
