// Package repo holds the mediation policy backends and the outbox sender
package repo

import (
	"context"

	"peacekeeper/internal/core/policy"
	"peacekeeper/internal/services/mediation/domain"
)

// Local serves the policy port from an in-process limiter
type Local struct {
	p *policy.Policy
}

var _ domain.Policy = (*Local)(nil)

// NewLocal wraps p; a nil p gets the default limiter
func NewLocal(p *policy.Policy) *Local {
	if p == nil {
		p = policy.New()
	}
	return &Local{p: p}
}

// CanIntervene never fails
func (l *Local) CanIntervene(_ context.Context, channelID string, lim policy.Limits) (bool, error) {
	return l.p.CanInterveneWith(channelID, lim), nil
}

// RecordIntervention never fails
func (l *Local) RecordIntervention(_ context.Context, channelID string) error {
	l.p.RecordIntervention(channelID)
	return nil
}

// Stats never fails
func (l *Local) Stats(_ context.Context, channelID string, lim policy.Limits) (policy.Stats, error) {
	return l.p.StatsWith(channelID, lim), nil
}

// Reset never fails
func (l *Local) Reset(_ context.Context, channelID string) error {
	l.p.Reset(channelID)
	return nil
}
