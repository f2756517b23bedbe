package judge

import (
	"context"
	"strings"
	"testing"
)

func TestHeuristicLengthSplit(t *testing.T) {
	tests := []struct {
		name      string
		storyA    string
		storyB    string
		expectedA int
	}{
		{"proportional", strings.Repeat("a", 30), strings.Repeat("b", 70), 30},
		{"reversed", strings.Repeat("a", 70), strings.Repeat("b", 30), 70},
		{"one sided", strings.Repeat("a", 25), "", 100},
		{"both empty", "", "", 0},
		{
			"missed meetup",
			"We agreed to meet at 6 but they never showed up.",
			"I got stuck at work and forgot to text.",
			55,
		},
	}

	heuristic := NewHeuristic()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := heuristic.Judge(context.Background(), CaseInput{StoryA: tc.storyA, StoryB: tc.storyB, Tone: ToneGentle})
			if err != nil {
				t.Fatalf("heuristic judge: %v", err)
			}
			if result.AResponsibility != tc.expectedA {
				t.Fatalf("expected a=%d got %d", tc.expectedA, result.AResponsibility)
			}
			if result.AResponsibility+result.BResponsibility != 100 {
				t.Fatalf("shares do not sum to 100: %d + %d", result.AResponsibility, result.BResponsibility)
			}
		})
	}
}

func TestHeuristicDeterminism(t *testing.T) {
	heuristic := NewHeuristic()
	input := CaseInput{StoryA: "they cancelled twice", StoryB: "I was exhausted", Tone: ToneDirect}

	first, err := heuristic.Judge(context.Background(), input)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := heuristic.Judge(context.Background(), input)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if first != second {
		t.Fatalf("heuristic is not deterministic: %+v vs %+v", first, second)
	}
}

func TestHeuristicFixedContent(t *testing.T) {
	heuristic := NewHeuristic()
	result, err := heuristic.Judge(context.Background(), CaseInput{
		StoryA: "We agreed to meet at 6 but they never showed up.",
		StoryB: "I got stuck at work and forgot to text.",
		Tone:   ToneNeutral,
	})
	if err != nil {
		t.Fatalf("heuristic judge: %v", err)
	}
	if result.BResponsibility != 45 {
		t.Fatalf("expected b=45 got %d", result.BResponsibility)
	}
	if result.NeutralSummary != heuristicSummary {
		t.Fatalf("summary is not the fixed fallback text")
	}
	if result.AdviceA != heuristicAdviceA || result.AdviceB != heuristicAdviceB {
		t.Fatalf("advice is not the fixed fallback text")
	}
	if result.ApologyTemplate != heuristicApology {
		t.Fatalf("apology is not the fixed fallback text")
	}
	if result.SafetyFlag || result.SafetyMessage != "" {
		t.Fatalf("heuristic path must never raise the safety flag")
	}
}
