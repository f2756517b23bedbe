package judge

import (
	"context"
	"math"
	"strings"
)

// Tone controls how the judge phrases the verdict, not its fairness.
type Tone string

const (
	ToneGentle  Tone = "Gentle"
	ToneNeutral Tone = "Neutral"
	ToneDirect  Tone = "Direct"
)

// Tones lists the supported judge styles in display order.
func Tones() []Tone {
	return []Tone{ToneGentle, ToneNeutral, ToneDirect}
}

// NormalizeTone maps a free-form label onto a supported tone, defaulting to
// Gentle for anything unrecognized.
func NormalizeTone(value string) Tone {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "neutral":
		return ToneNeutral
	case "direct":
		return ToneDirect
	default:
		return ToneGentle
	}
}

// CaseInput carries one submission through the oracle.
type CaseInput struct {
	StoryA string
	StoryB string
	Tone   Tone
}

// Judgment is the structured verdict rendered across the result steps.
// AResponsibility and BResponsibility always sum to exactly 100.
type Judgment struct {
	NeutralSummary  string `json:"neutral_summary"`
	AResponsibility int    `json:"a_responsibility"`
	BResponsibility int    `json:"b_responsibility"`
	AdviceA         string `json:"advice_a"`
	AdviceB         string `json:"advice_b"`
	ApologyTemplate string `json:"apology_template"`
	SafetyFlag      bool   `json:"safety_flag"`
	SafetyMessage   string `json:"safety_message"`
}

// Judge produces a structured verdict for one case.
type Judge interface {
	Enabled() bool
	Judge(ctx context.Context, input CaseInput) (Judgment, error)
}

// NormalizeShares rescales raw responsibility percentages so they sum to
// exactly 100. A zero total counts as 1 to avoid dividing by zero.
func NormalizeShares(a, b int) (int, int) {
	total := a + b
	if total == 0 {
		total = 1
	}
	aShare := clampInt(int(math.Round(float64(a)/float64(total)*100)), 0, 100)
	return aShare, 100 - aShare
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
