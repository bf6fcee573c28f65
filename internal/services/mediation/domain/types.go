// Package domain defines the orchestrator's inputs, outcome and the ports it
// drives
package domain

import (
	"time"

	"peacekeeper/internal/core/conflict"
	"peacekeeper/internal/core/respond"
	cdomain "peacekeeper/internal/services/conflicts/domain"
)

// Trigger asks for one check of a channel
type Trigger struct {
	ChannelID string `json:"channel_id" validate:"notblank,max=64"`
	GuildID   string `json:"guild_id,omitempty" validate:"max=64"`
	// MessageID is the message that caused the check, empty for sweeps
	MessageID string `json:"message_id,omitempty" validate:"max=64"`
}

// Outcome reports what a check saw and did
type Outcome struct {
	ChannelID    string            `json:"channel_id"`
	Verdict      conflict.Verdict  `json:"verdict"`
	Threshold    float64           `json:"threshold"`
	WindowSize   int               `json:"window_size"`
	Participants []string          `json:"participants,omitempty"`
	Result       cdomain.Outcome   `json:"result"`
	ConflictID   int64             `json:"conflict_id,omitempty"`
	Response     *respond.Response `json:"response,omitempty"`
	MessageID    string            `json:"message_id,omitempty"`
}

// Suppressed is true when the policy refused an otherwise valid detection
func (o Outcome) Suppressed() bool { return o.Result == cdomain.OutcomeSuppressed }

// Mediated is true when mediation text was chosen, delivered or not
func (o Outcome) Mediated() bool {
	return o.Result == cdomain.OutcomeMediated || o.Result == cdomain.OutcomeUndelivered
}

// OutboxEntry is one mediation text waiting for an external transport
type OutboxEntry struct {
	ID          string     `json:"id"`
	ChannelID   string     `json:"channel_id"`
	Text        string     `json:"text"`
	CreatedAt   time.Time  `json:"created_at"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}
