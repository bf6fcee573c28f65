// Package domain defines conflict records, mediation audit rows and
// detection analytics events
package domain

import (
	"time"

	"peacekeeper/internal/core/conflict"
)

// ConflictInput is one detected conflict to persist
type ConflictInput struct {
	ChannelID        string
	GuildID          string
	TriggerMessageID string
	Participants     []string
	Confidence       float64
	Reasons          conflict.Reasons
	DetectedAt       time.Time
}

// MediationInput is one mediation attempt, delivered or not
type MediationInput struct {
	ConflictID int64
	ChannelID  string
	Text       string
	Source     string
	Delivered  bool
}

// Record is a stored conflict
type Record struct {
	ID                 int64      `json:"id"`
	ChannelID          string     `json:"channel_id"`
	GuildID            string     `json:"guild_id,omitempty"`
	TriggerMessageID   string     `json:"trigger_message_id,omitempty"`
	Participants       []string   `json:"participants"`
	Confidence         float64    `json:"confidence"`
	Reasons            []string   `json:"reasons"`
	DetectedAt         time.Time  `json:"detected_at"`
	LastDetectedAt     time.Time  `json:"last_detected_at"`
	MediationTriggered bool       `json:"mediation_triggered"`
	MediationMessageID string     `json:"mediation_message_id,omitempty"`
	ResolvedAt         *time.Time `json:"resolved_at,omitempty"`
}

// Outcome labels how a check ended, recorded with each detection event
type Outcome string

// Outcomes
const (
	OutcomeCalm        Outcome = "calm"
	OutcomeSuppressed  Outcome = "suppressed"
	OutcomeMediated    Outcome = "mediated"
	OutcomeUndelivered Outcome = "undelivered"
)

// DetectionEvent is one analyzer verdict for the analytics stream
type DetectionEvent struct {
	At           time.Time
	ChannelID    string
	GuildID      string
	WindowSize   int
	Participants int
	IsConflict   bool
	Confidence   float64
	Threshold    float64
	Reasons      []string
	Outcome      Outcome
}
