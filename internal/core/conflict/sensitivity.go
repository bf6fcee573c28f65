package conflict

import (
	"fmt"
	"strings"
)

// Sensitivity is a named detection threshold tier
type Sensitivity string

// Tiers, from least to most eager
const (
	Low    Sensitivity = "low"
	Medium Sensitivity = "medium"
	High   Sensitivity = "high"
	Ultra  Sensitivity = "ultra"
)

// Threshold returns the confidence a verdict must exceed for the tier.
// Unknown tiers behave like Medium
func (s Sensitivity) Threshold() float64 {
	switch s {
	case Low:
		return 0.7
	case High:
		return 0.35
	case Ultra:
		return 0.3
	default:
		return DefaultThreshold
	}
}

// ParseSensitivity accepts a tier name, case insensitive
func ParseSensitivity(name string) (Sensitivity, error) {
	s := Sensitivity(strings.ToLower(strings.TrimSpace(name)))
	switch s {
	case Low, Medium, High, Ultra:
		return s, nil
	case "":
		return Medium, nil
	}
	return "", fmt.Errorf("conflict: unknown sensitivity %q (want low|medium|high|ultra)", name)
}
