package judge

import (
	"context"
	"math"
)

const (
	heuristicSummary = "From both perspectives, this looks like a mix of unmet expectations " +
		"and communication gaps rather than one person being purely right or wrong. " +
		"Both people had reasons for what they did, but those reasons weren't clearly shared."

	heuristicAdviceA = "Try to name what you needed earlier and out loud. Instead of waiting and " +
		"hoping they guess, say something like: \"This is important to me because...\". " +
		"That gives them a fair chance to respond."

	heuristicAdviceB = "Acknowledge the impact of your actions, even if you didn't mean harm. " +
		"You can say: \"I see how that hurt you, even though I didn't intend it.\" " +
		"Then share a bit of your own constraints calmly."

	heuristicApology = "Hey, I've been thinking about what happened. I'm sorry for the part I played " +
		"in how things went. I didn't mean to make you feel that way. Next time, I'll " +
		"try to be more clear about what I'm thinking and I'll check in with you sooner " +
		"instead of letting the tension build up."
)

// Heuristic is the offline fallback judge. It splits responsibility by how
// much each person had to say and fills the text fields with fixed generic
// guidance. It has no way to assess safety signals, so SafetyFlag is always
// false on this path.
type Heuristic struct{}

// NewHeuristic constructs the fallback judge.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Enabled always reports true; the heuristic has no external dependency.
func (h *Heuristic) Enabled() bool {
	return true
}

// Judge derives a responsibility split from the relative story lengths.
// Pure and deterministic; the tone label does not influence this path.
func (h *Heuristic) Judge(_ context.Context, input CaseInput) (Judgment, error) {
	lenA := len(input.StoryA)
	lenB := len(input.StoryB)
	total := lenA + lenB
	if total < 1 {
		total = 1
	}
	aShare := int(math.Round(float64(lenA) / float64(total) * 100))

	return Judgment{
		NeutralSummary:  heuristicSummary,
		AResponsibility: aShare,
		BResponsibility: 100 - aShare,
		AdviceA:         heuristicAdviceA,
		AdviceB:         heuristicAdviceB,
		ApologyTemplate: heuristicApology,
		SafetyFlag:      false,
		SafetyMessage:   "",
	}, nil
}
