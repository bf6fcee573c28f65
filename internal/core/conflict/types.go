package conflict

import (
	"encoding/json"
	"slices"
	"strings"
)

// Message is one observed chat message. Timestamp is unix seconds
type Message struct {
	ID        string `json:"id,omitempty"`
	AuthorID  string `json:"author_id" validate:"required"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp" validate:"gte=0"`
}

// Reason names one detection signal
type Reason string

// Known reasons
const (
	RapidExchange     Reason = "rapid_exchange"
	HostileLanguage   Reason = "hostile_language"
	EscalatingTension Reason = "escalating_tension"
)

// order is the canonical rendering order
var order = []Reason{RapidExchange, HostileLanguage, EscalatingTension}

// Reasons is a set of detection reasons
type Reasons map[Reason]struct{}

// NewReasons builds a set from rs
func NewReasons(rs ...Reason) Reasons {
	out := make(Reasons, len(rs))
	for _, r := range rs {
		out.Add(r)
	}
	return out
}

// Add inserts r
func (s Reasons) Add(r Reason) { s[r] = struct{}{} }

// Has reports membership
func (s Reasons) Has(r Reason) bool {
	_, ok := s[r]
	return ok
}

// Slice returns the members in canonical order, unknown reasons last and sorted
func (s Reasons) Slice() []Reason {
	out := make([]Reason, 0, len(s))
	for _, r := range order {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	var extra []Reason
	for r := range s {
		if !slices.Contains(order, r) {
			extra = append(extra, r)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

// Strings is Slice as plain strings
func (s Reasons) Strings() []string {
	rs := s.Slice()
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}

// String joins the members with ", "
func (s Reasons) String() string { return strings.Join(s.Strings(), ", ") }

// MarshalJSON renders the set as an ordered array
func (s Reasons) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// ParseReasons reads a ", " joined label back into a set
func ParseReasons(label string) Reasons {
	out := Reasons{}
	for _, p := range strings.Split(label, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out.Add(Reason(p))
		}
	}
	return out
}

// Verdict is the outcome of analyzing one message window
type Verdict struct {
	IsConflict bool    `json:"is_conflict"`
	Confidence float64 `json:"confidence"`
	Reasons    Reasons `json:"reasons"`
}
