// Package http exposes the scorer and analyzer for offline tuning
package http

import (
	stdhttp "net/http"
	"slices"
	"time"

	"peacekeeper/internal/core/conflict"
	"peacekeeper/internal/core/hostility"
	"peacekeeper/internal/modkit/httpkit"
)

// ScoreInput is the POST /score body
type ScoreInput struct {
	Text string `json:"text" validate:"max=4000"`
}

// AnalyzeInput is the POST /analyze body
type AnalyzeInput struct {
	Messages    []conflict.Message `json:"messages" validate:"max=500,dive"`
	Sensitivity string             `json:"sensitivity,omitempty" validate:"omitempty,oneof=low medium high ultra"`
	// WindowSeconds is the rapid exchange window, zero means 120
	WindowSeconds int `json:"window_seconds,omitempty" validate:"gte=0,lte=86400"`
	// Pair optionally names two authors to run the pairwise check for
	Pair []string `json:"pair,omitempty" validate:"omitempty,len=2,dive,notblank"`
}

// AnalyzeResult is returned by POST /analyze
type AnalyzeResult struct {
	conflict.Verdict
	Threshold      float64   `json:"threshold"`
	Participants   []string  `json:"participants"`
	Scores         []float64 `json:"scores"`
	PairInConflict *bool     `json:"pair_in_conflict,omitempty"`
}

// Register mounts /score and /analyze
func Register(r httpkit.Router, def conflict.Sensitivity) {
	h := handlers{def: def}
	httpkit.PostJSON(r, "/score", h.score)
	httpkit.PostJSON(r, "/analyze", h.analyze)
}

type handlers struct {
	def conflict.Sensitivity
}

// @Summary Hostility score of one text with its breakdown
// @Tags Scoring
// @Accept json
// @Produce json
// @Param payload body ScoreInput true "Text"
// @Success 200 {object} hostility.Breakdown
// @Router /score [post]
func (h handlers) score(_ *stdhttp.Request, in ScoreInput) (any, error) {
	return hostility.Explain(in.Text), nil
}

// @Summary Conflict verdict for a posted message window
// @Tags Scoring
// @Accept json
// @Produce json
// @Param payload body AnalyzeInput true "Window"
// @Success 200 {object} AnalyzeResult
// @Router /analyze [post]
func (h handlers) analyze(_ *stdhttp.Request, in AnalyzeInput) (any, error) {
	tier := h.def
	if in.Sensitivity != "" {
		s, err := conflict.ParseSensitivity(in.Sensitivity)
		if err != nil {
			return nil, err
		}
		tier = s
	}

	msgs := slices.Clone(in.Messages)
	slices.SortStableFunc(msgs, func(a, b conflict.Message) int {
		switch {
		case a.Timestamp < b.Timestamp:
			return -1
		case a.Timestamp > b.Timestamp:
			return 1
		}
		return 0
	})

	res := AnalyzeResult{
		Verdict: conflict.Detect(msgs, conflict.Options{
			Window:    time.Duration(in.WindowSeconds) * time.Second,
			Threshold: conflict.Threshold(tier.Threshold()),
		}),
		Threshold:    tier.Threshold(),
		Participants: conflict.Participants(msgs),
		Scores:       make([]float64, len(msgs)),
	}
	if res.Participants == nil {
		res.Participants = []string{}
	}
	for i, m := range msgs {
		res.Scores[i] = hostility.Score(m.Content)
	}
	if len(in.Pair) == 2 {
		v := conflict.AreInConflict(in.Pair[0], in.Pair[1], msgs)
		res.PairInConflict = &v
	}
	return res, nil
}
