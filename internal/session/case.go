package session

import (
	"time"

	"friendship-court/backend/internal/judge"
)

// Phase identifies where a case sits in the input → thinking → results flow.
type Phase string

const (
	PhaseInput    Phase = "input"
	PhaseThinking Phase = "thinking"
	PhaseResults  Phase = "results"
)

// Result steps: 1 verdict, 2 responsibility breakdown, 3 advice + apology.
const (
	FirstStep = 1
	LastStep  = 3
)

// Case is the single active mediation case for one session. The judgment is
// set exactly once when the oracle finishes and the whole case is discarded
// on "start a new case".
type Case struct {
	ID        string          `json:"id"`
	Phase     Phase           `json:"phase"`
	Step      int             `json:"step"`
	StoryA    string          `json:"story_a"`
	StoryB    string          `json:"story_b"`
	Tone      string          `json:"tone"`
	Judgment  *judge.Judgment `json:"judgment,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewCase starts a case in the thinking phase with the pending input.
func NewCase(id string, input judge.CaseInput) *Case {
	now := time.Now().UTC()
	return &Case{
		ID:        id,
		Phase:     PhaseThinking,
		Step:      0,
		StoryA:    input.StoryA,
		StoryB:    input.StoryB,
		Tone:      string(input.Tone),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Complete stores the verdict and moves the case to the first result step.
func (c *Case) Complete(judgment judge.Judgment) {
	c.Judgment = &judgment
	c.Phase = PhaseResults
	c.Step = FirstStep
	c.UpdatedAt = time.Now().UTC()
}

// HasResults reports whether the case can be navigated through result steps.
func (c *Case) HasResults() bool {
	return c.Phase == PhaseResults && c.Judgment != nil
}

// NextStep advances within the results flow, clamped to the last step.
func (c *Case) NextStep() {
	if c.Step < LastStep {
		c.Step++
	}
	c.UpdatedAt = time.Now().UTC()
}

// PrevStep steps back within the results flow, clamped to the first step.
func (c *Case) PrevStep() {
	if c.Step > FirstStep {
		c.Step--
	}
	c.UpdatedAt = time.Now().UTC()
}
