package repository

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"aqcode/internal/common"
	"aqcode/internal/domain/model"
)

type memorySubmissionRepository struct {
	mu          sync.RWMutex
	submissions map[string]model.Submission
	results     map[string]model.ExecutionResult
	snapshots   map[string][]model.SubmissionTestCaseSnapshot // keyed by submission id
	reviews     map[string]model.Review                       // keyed by submission id
}

func NewMemorySubmissionRepository() SubmissionRepository {
	return &memorySubmissionRepository{
		submissions: make(map[string]model.Submission),
		results:     make(map[string]model.ExecutionResult),
		snapshots:   make(map[string][]model.SubmissionTestCaseSnapshot),
		reviews:     make(map[string]model.Review),
	}
}

func (r *memorySubmissionRepository) CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	r.submissions[sub.ID] = *sub
	return nil
}

func (r *memorySubmissionRepository) GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.submissions[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := sub
	return &out, nil
}

func (r *memorySubmissionRepository) UpdateSubmissionCode(ctx context.Context, tx *sql.Tx, submissionID, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.submissions[submissionID]
	if !ok {
		return common.ErrNotFound
	}
	sub.Code = code
	sub.UpdatedAt = time.Now()
	r.submissions[submissionID] = sub
	return nil
}

func (r *memorySubmissionRepository) CreateExecutionResult(ctx context.Context, tx *sql.Tx, result *model.ExecutionResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	result.CreatedAt = time.Now()
	stored := *result
	stored.CaseResults = append([]model.ExecutionCaseResult(nil), result.CaseResults...)
	r.results[result.ID] = stored
	return nil
}

func (r *memorySubmissionRepository) GetExecutionResultByID(ctx context.Context, id string) (*model.ExecutionResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result, ok := r.results[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := result
	out.CaseResults = append([]model.ExecutionCaseResult(nil), result.CaseResults...)
	return &out, nil
}

func (r *memorySubmissionRepository) SetLatestExecutionResult(ctx context.Context, tx *sql.Tx, submissionID, resultID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.submissions[submissionID]
	if !ok {
		return common.ErrNotFound
	}
	sub.LatestExecutionResultID = &resultID
	sub.UpdatedAt = time.Now()
	r.submissions[submissionID] = sub
	return nil
}

func (r *memorySubmissionRepository) MarkSubmitted(ctx context.Context, tx *sql.Tx, sub *model.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.submissions[sub.ID]
	if !ok || existing.SubmittedAt != nil {
		return common.ErrConflict
	}
	existing.ProblemTitleSnapshot = sub.ProblemTitleSnapshot
	existing.ProblemDescriptionSnapshot = sub.ProblemDescriptionSnapshot
	existing.ExampleInputSnapshot = sub.ExampleInputSnapshot
	existing.ExampleOutputSnapshot = sub.ExampleOutputSnapshot
	existing.SubmittedAt = sub.SubmittedAt
	existing.UpdatedAt = time.Now()
	r.submissions[sub.ID] = existing
	return nil
}

func (r *memorySubmissionRepository) CreateTestCaseSnapshots(ctx context.Context, tx *sql.Tx, snapshots []model.SubmissionTestCaseSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, snap := range snapshots {
		snap.CreatedAt = now
		r.snapshots[snap.SubmissionID] = append(r.snapshots[snap.SubmissionID], snap)
	}
	return nil
}

func (r *memorySubmissionRepository) GetTestCaseSnapshots(ctx context.Context, submissionID string) ([]model.SubmissionTestCaseSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshots := append([]model.SubmissionTestCaseSnapshot(nil), r.snapshots[submissionID]...)
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].SortOrder < snapshots[j].SortOrder
	})
	return snapshots, nil
}

func (r *memorySubmissionRepository) UpsertReview(ctx context.Context, tx *sql.Tx, review *model.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if existing, ok := r.reviews[review.SubmissionID]; ok {
		existing.Status = review.Status
		existing.Notes = review.Notes
		existing.UpdatedAt = now
		r.reviews[review.SubmissionID] = existing
		return nil
	}
	review.CreatedAt = now
	review.UpdatedAt = now
	r.reviews[review.SubmissionID] = *review
	return nil
}

func (r *memorySubmissionRepository) GetReviewBySubmissionID(ctx context.Context, submissionID string) (*model.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	review, ok := r.reviews[submissionID]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := review
	return &out, nil
}

func (r *memorySubmissionRepository) SetReviewDecision(ctx context.Context, tx *sql.Tx, submissionID string, status model.ReviewStatus, feedback *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	review, ok := r.reviews[submissionID]
	if !ok || review.Status != model.ReviewPending {
		return false, nil
	}
	review.Status = status
	review.Feedback = feedback
	review.UpdatedAt = time.Now()
	r.reviews[submissionID] = review
	return true, nil
}

func (r *memorySubmissionRepository) ListSubmissions(ctx context.Context, filter SubmissionListFilter) ([]model.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	submissions := []model.Submission{}
	for _, sub := range r.submissions {
		if sub.SubmittedAt == nil {
			continue
		}
		if filter.ProblemID != "" && sub.ProblemID != filter.ProblemID {
			continue
		}
		if filter.SubmitterName != "" && (sub.SubmitterName == nil || *sub.SubmitterName != filter.SubmitterName) {
			continue
		}
		if filter.Status != "" {
			review, ok := r.reviews[sub.ID]
			if !ok || review.Status != filter.Status {
				continue
			}
		}
		if filter.Search != "" && !matchesSearch(sub, filter.Search) {
			continue
		}
		submissions = append(submissions, sub)
	}
	sort.Slice(submissions, func(i, j int) bool {
		return submissions[i].SubmittedAt.After(*submissions[j].SubmittedAt)
	})
	return submissions, nil
}

func matchesSearch(sub model.Submission, term string) bool {
	term = strings.ToLower(term)
	if sub.SubmitterName != nil && strings.Contains(strings.ToLower(*sub.SubmitterName), term) {
		return true
	}
	if sub.ProblemTitleSnapshot != nil && strings.Contains(strings.ToLower(*sub.ProblemTitleSnapshot), term) {
		return true
	}
	return false
}
