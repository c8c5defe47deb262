// Package locker serializes state transitions per submission. Execute, rerun,
// submit and review all take the submission's lock so the latest-result
// pointer and the review row never see interleaved writers.
package locker

import (
	"context"
	"fmt"
	"sync"

	"aqcode/internal/common"
)

// SubmissionLocker grants exclusive access to one submission's mutable state.
// Acquire is try-lock: a busy submission reports a conflict rather than
// queueing the caller.
type SubmissionLocker interface {
	Acquire(ctx context.Context, submissionID string) (release func(), err error)
}

// MemoryLocker is the single-process fallback used when Redis is not
// configured, and in tests.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]struct{})}
}

func (l *MemoryLocker) Acquire(ctx context.Context, submissionID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[submissionID]; busy {
		return nil, fmt.Errorf("submission %s is being processed: %w", submissionID, common.ErrConflict)
	}
	l.held[submissionID] = struct{}{}
	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, submissionID)
	}
	return release, nil
}
