package judge

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Oracle guarantees a usable Judgment for every submission. It tries the LLM
// judge exactly once and serves the heuristic verdict on any failure; the
// fallback is cheap and deterministic, so a flaky primary is never retried.
type Oracle struct {
	llm      Judge
	fallback Judge
}

// NewOracle wires the optional LLM judge in front of the heuristic fallback.
// A nil llm means every verdict comes from the heuristic.
func NewOracle(llm Judge) *Oracle {
	return &Oracle{llm: llm, fallback: NewHeuristic()}
}

// LLMEnabled reports whether the primary judge can make outbound calls.
func (o *Oracle) LLMEnabled() bool {
	return o != nil && o.llm != nil && o.llm.Enabled()
}

// Evaluate never fails outward. Transport errors, auth failures, and
// malformed responses from the LLM path are logged for operators and
// silently replaced with the heuristic result.
func (o *Oracle) Evaluate(ctx context.Context, input CaseInput) Judgment {
	input.Tone = NormalizeTone(string(input.Tone))

	if o.LLMEnabled() {
		judgment, err := o.llm.Judge(ctx, input)
		if err == nil {
			return judgment
		}
		logrus.WithError(err).Warn("llm judge failed, serving heuristic verdict")
	}

	judgment, _ := o.fallback.Judge(ctx, input)
	return judgment
}
