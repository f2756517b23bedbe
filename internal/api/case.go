package api

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"friendship-court/backend/internal/judge"
	"friendship-court/backend/internal/session"
	"friendship-court/backend/internal/util"
)

// runJudgment evaluates a submitted case while the thinking animation plays.
// The oracle call runs against a timer of fixed duration; the case only
// moves to the results phase once both have finished, so the transition
// takes max(oracle latency, thinking duration). The oracle's own request
// timeout is independent of this pacing.
func (s *Server) runJudgment(caseID string, input judge.CaseInput) {
	ctx := context.Background()

	s.caseNotifier.Broadcast(CaseEvent{
		Type:   "thinking",
		CaseID: caseID,
		Phase:  string(session.PhaseThinking),
	})

	pacing := time.NewTimer(s.thinking)
	defer pacing.Stop()

	timer := util.StartTimer()
	judgment := s.oracle.Evaluate(ctx, input)
	latency := timer.ElapsedMs()

	<-pacing.C

	active, err := s.cases.Load(ctx, caseID)
	if err != nil {
		if errors.Is(err, session.ErrCaseNotFound) {
			// Reset while thinking; nothing left to complete.
			logrus.WithField("case", caseID).Info("case discarded before verdict")
			return
		}
		logrus.WithError(err).WithField("case", caseID).Error("load case for verdict")
		return
	}

	active.Complete(judgment)
	// Update refuses to write back a case that was reset after the Load
	// above; a plain Save would resurrect it.
	if err := s.cases.Update(ctx, active); err != nil {
		if errors.Is(err, session.ErrCaseNotFound) {
			logrus.WithField("case", caseID).Info("case discarded before verdict")
			return
		}
		logrus.WithError(err).WithField("case", caseID).Error("save verdict")
		return
	}

	logrus.WithFields(logrus.Fields{
		"case":       caseID,
		"latency_ms": latency,
		"llm":        s.oracle.LLMEnabled(),
		"safety":     judgment.SafetyFlag,
	}).Info("verdict ready")

	// The verdict body stays out of the event; the stream is shared across
	// sessions and each client fetches its own case by id.
	s.caseNotifier.Broadcast(CaseEvent{
		Type:   "verdict",
		CaseID: caseID,
		Phase:  string(active.Phase),
		Step:   active.Step,
	})
}
