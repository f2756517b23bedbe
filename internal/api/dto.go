package api

import (
	"time"

	"friendship-court/backend/internal/judge"
	"friendship-court/backend/internal/session"
)

// SubmitCaseRequest carries the two perspectives and the judge style.
type SubmitCaseRequest struct {
	StoryA string `json:"story_a"`
	StoryB string `json:"story_b"`
	Tone   string `json:"tone"`
}

// SubmitCaseResponse acknowledges a submission that entered the thinking phase.
type SubmitCaseResponse struct {
	CaseID          string `json:"case_id"`
	Phase           string `json:"phase"`
	ThinkingSeconds int    `json:"thinking_seconds"`
}

// CaseDTO is the API representation of an active case.
type CaseDTO struct {
	ID        string          `json:"id"`
	Phase     string          `json:"phase"`
	Step      int             `json:"step"`
	Tone      string          `json:"tone"`
	Judgment  *judge.Judgment `json:"judgment,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CaseFromModel converts a session.Case into the DTO representation. The
// submitted stories are deliberately not echoed back.
func CaseFromModel(c *session.Case) CaseDTO {
	return CaseDTO{
		ID:        c.ID,
		Phase:     string(c.Phase),
		Step:      c.Step,
		Tone:      c.Tone,
		Judgment:  c.Judgment,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
