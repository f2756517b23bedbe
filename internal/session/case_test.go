package session

import (
	"testing"

	"friendship-court/backend/internal/judge"
)

func TestCaseStepNavigation(t *testing.T) {
	c := NewCase("case-steps", judge.CaseInput{StoryA: "a", StoryB: "b", Tone: judge.ToneGentle})
	if c.Phase != PhaseThinking || c.Step != 0 {
		t.Fatalf("new case must start thinking at step 0, got %+v", c)
	}
	if c.HasResults() {
		t.Fatalf("case has no results before completion")
	}

	c.Complete(judge.Judgment{AResponsibility: 50, BResponsibility: 50})
	if !c.HasResults() || c.Step != FirstStep {
		t.Fatalf("completion must land on step %d, got %+v", FirstStep, c)
	}

	for i := 0; i < 5; i++ {
		c.NextStep()
	}
	if c.Step != LastStep {
		t.Fatalf("next must clamp to %d, got %d", LastStep, c.Step)
	}

	for i := 0; i < 5; i++ {
		c.PrevStep()
	}
	if c.Step != FirstStep {
		t.Fatalf("prev must clamp to %d, got %d", FirstStep, c.Step)
	}
}
