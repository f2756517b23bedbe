package session

import (
	"context"
	"errors"
)

var ErrCaseNotFound = errors.New("case not found")

// CaseStore persists the active case for a session. Implementations hold at
// most one row per case id and drop it entirely on Delete; there is no case
// history.
// Update writes only when the case still exists, so a writer holding a stale
// copy cannot bring back a case that was reset in the meantime.
type CaseStore interface {
	Save(ctx context.Context, c *Case) error
	Update(ctx context.Context, c *Case) error
	Load(ctx context.Context, id string) (*Case, error)
	Delete(ctx context.Context, id string) error
	Close() error
}
