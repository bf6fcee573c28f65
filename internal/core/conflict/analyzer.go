// Package conflict turns a window of chat messages into a conflict verdict.
//
// Three independent signals add up to the confidence: a rapid back and forth
// between exactly two people, the mean hostility of the window and a mostly
// rising hostility curve. Everything here is pure and safe to call from any
// number of goroutines.
package conflict

import (
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"peacekeeper/internal/core/hostility"
)

// Defaults and signal weights
const (
	DefaultWindow    = 120 * time.Second
	DefaultThreshold = 0.5

	RapidWeight = 0.6
	RapidFlag   = 0.3

	HostileFlag = 0.4

	EscalationMinMessages = 3
	EscalationRatioMin    = 0.5
	EscalationWeight      = 0.7
	EscalationFlag        = 0.3

	PairMinMessages = 4
	PairThreshold   = 0.3
	PairConfidence  = 0.6
)

// windows at least this long are scored concurrently
const parallelMin = 64

// Options tunes a single Detect call
type Options struct {
	// Window bounds the rapid exchange; zero or less picks DefaultWindow
	Window time.Duration
	// Threshold is the confidence a conflict must exceed. nil picks
	// DefaultThreshold; a resolved 0 is honoured as is
	Threshold *float64
}

// Threshold returns t ready for Options.Threshold
func Threshold(t float64) *float64 { return &t }

func (o Options) resolve() (time.Duration, float64) {
	w, th := o.Window, DefaultThreshold
	if w <= 0 {
		w = DefaultWindow
	}
	if o.Threshold != nil {
		th = *o.Threshold
	}
	return w, th
}

// Detect analyzes msgs, which must be in chronological order
func Detect(msgs []Message, opts Options) Verdict {
	window, threshold := opts.resolve()
	v := Verdict{Reasons: Reasons{}}
	if len(msgs) == 0 {
		return v
	}

	scores := scoreAll(msgs)
	var conf float64

	if c := rapidExchange(msgs, window); c > 0 {
		conf += c
		if c > RapidFlag {
			v.Reasons.Add(RapidExchange)
		}
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(len(scores))
	conf += mean
	if mean > HostileFlag {
		v.Reasons.Add(HostileLanguage)
	}

	if c := escalation(scores); c > 0 {
		conf += c
		if c > EscalationFlag {
			v.Reasons.Add(EscalatingTension)
		}
	}

	v.Confidence = min(max(conf, 0), 1)
	v.IsConflict = v.Confidence > threshold
	return v
}

// AreInConflict reports whether a and b are in a strong conflict with each other
// within msgs. Mediation is not triggered by this check
func AreInConflict(a, b string, msgs []Message) bool {
	pair := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.AuthorID == a || m.AuthorID == b {
			pair = append(pair, m)
		}
	}
	if len(pair) < PairMinMessages {
		return false
	}
	v := Detect(pair, Options{Window: DefaultWindow, Threshold: Threshold(PairThreshold)})
	return v.IsConflict && v.Confidence > PairConfidence
}

// Participants lists distinct authors in first-seen order
func Participants(msgs []Message) []string {
	seen := make(map[string]struct{}, 4)
	var out []string
	for _, m := range msgs {
		if _, ok := seen[m.AuthorID]; ok {
			continue
		}
		seen[m.AuthorID] = struct{}{}
		out = append(out, m.AuthorID)
	}
	return out
}

func scoreAll(msgs []Message) []float64 {
	scores := make([]float64, len(msgs))
	if len(msgs) < parallelMin {
		for i, m := range msgs {
			scores[i] = hostility.Score(m.Content)
		}
		return scores
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range msgs {
		g.Go(func() error {
			scores[i] = hostility.Score(msgs[i].Content)
			return nil
		})
	}
	_ = g.Wait()
	return scores
}

// rapidExchange only fires for exactly two authors with at least two messages each
// The span is max-min of the timestamps, not last-first, so a window that
// arrives out of order still yields a non-negative duration.
func rapidExchange(msgs []Message, window time.Duration) float64 {
	counts := make(map[string]int, 3)
	for _, m := range msgs {
		counts[m.AuthorID]++
		if len(counts) > 2 {
			return 0
		}
	}
	if len(counts) != 2 {
		return 0
	}
	for _, n := range counts {
		if n < 2 {
			return 0
		}
	}

	first, last := msgs[0].Timestamp, msgs[0].Timestamp
	for _, m := range msgs[1:] {
		first = min(first, m.Timestamp)
		last = max(last, m.Timestamp)
	}
	duration := float64(last - first)
	w := window.Seconds()
	if duration > w {
		return 0
	}
	return (1 - duration/w) * RapidWeight
}

// escalation measures how often the score strictly rises between neighbours
func escalation(scores []float64) float64 {
	if len(scores) < EscalationMinMessages {
		return 0
	}
	var rising int
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[i-1] {
			rising++
		}
	}
	ratio := float64(rising) / float64(len(scores)-1)
	if ratio <= EscalationRatioMin {
		return 0
	}
	return ratio * EscalationWeight
}
