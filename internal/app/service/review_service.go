package service

import (
	"context"
	"database/sql"
	"errors"

	"aqcode/internal/common"
	"aqcode/internal/domain/model"
	"aqcode/internal/domain/repository"
	"aqcode/internal/platform/locker"

	"go.uber.org/zap"
)

// ReviewService serves the reviewer surface: the submitted-work listing, the
// snapshot-vs-now detail view, and the approve/reject decision.
type ReviewService struct {
	submissionRepo repository.SubmissionRepository
	problemRepo    repository.ProblemRepository
	locks          locker.SubmissionLocker
	db             *sql.DB
	logger         *zap.Logger
}

func NewReviewService(
	subRepo repository.SubmissionRepository,
	probRepo repository.ProblemRepository,
	locks locker.SubmissionLocker,
	db *sql.DB,
	logger *zap.Logger,
) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{
		submissionRepo: subRepo,
		problemRepo:    probRepo,
		locks:          locks,
		db:             db,
		logger:         logger,
	}
}

type ReviewRequest struct {
	Decision string  `json:"decision"`
	Feedback *string `json:"feedback,omitempty"`
}

// List returns submitted work only, most recent first.
func (s *ReviewService) List(ctx context.Context, filter repository.SubmissionListFilter, reviewer bool) ([]SubmissionSummary, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, common.Errorf("invalid review status filter %q: %w", filter.Status, common.ErrValidation)
	}
	submissions, err := s.submissionRepo.ListSubmissions(ctx, filter)
	if err != nil {
		return nil, common.Errorf("failed to list submissions: %w", err)
	}
	summaries := make([]SubmissionSummary, 0, len(submissions))
	for i := range submissions {
		summary, err := buildSubmissionSummary(ctx, s.submissionRepo, s.problemRepo, &submissions[i], reviewer)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

// Detail returns the frozen submission state alongside the problem's current
// definition so a reviewer can see whether the problem drifted since submit.
// The current problem may have been deleted; the snapshot still stands.
func (s *ReviewService) Detail(ctx context.Context, submissionID string, reviewer bool) (*SubmissionDetail, error) {
	submission, err := s.submissionRepo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return nil, common.Errorf("submission not found: %w", err)
	}
	summary, err := buildSubmissionSummary(ctx, s.submissionRepo, s.problemRepo, submission, reviewer)
	if err != nil {
		return nil, err
	}
	detail := &SubmissionDetail{SubmissionSummary: *summary}

	problem, err := s.problemRepo.FindProblemByID(ctx, submission.ProblemID)
	switch {
	case err == nil:
		testCases, err := s.problemRepo.GetTestCasesByProblemID(ctx, problem.ID)
		if err != nil {
			return nil, common.Errorf("failed to load test cases: %w", err)
		}
		detail.CurrentProblem = toProblemResponse(problem, nil, reviewer)
		detail.CurrentTestCases = make([]TestCaseResponse, 0, len(testCases))
		for _, tc := range testCases {
			detail.CurrentTestCases = append(detail.CurrentTestCases, toTestCaseResponse(tc, reviewer))
		}
	case errors.Is(err, common.ErrNotFound):
		// problem removed after submit, snapshot carries the record
	default:
		return nil, common.Errorf("failed to load current problem: %w", err)
	}
	return detail, nil
}

// Review applies the approve/reject decision to a pending review. Decisions
// are final: a second decision, or one racing against another reviewer, is a
// conflict.
func (s *ReviewService) Review(ctx context.Context, submissionID string, req ReviewRequest, reviewer bool) (*SubmissionSummary, error) {
	status := model.ReviewStatus(req.Decision)
	if status != model.ReviewApproved && status != model.ReviewRejected {
		return nil, common.Errorf("decision must be approved or rejected: %w", common.ErrValidation)
	}

	release, err := s.locks.Acquire(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	defer release()

	submission, err := s.submissionRepo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return nil, common.Errorf("submission not found: %w", err)
	}
	if submission.SubmittedAt == nil {
		return nil, common.Errorf("submission has not been sent for review: %w", common.ErrValidation)
	}
	review, err := s.submissionRepo.GetReviewBySubmissionID(ctx, submissionID)
	if err != nil {
		return nil, common.Errorf("review not found: %w", err)
	}
	if review.Status != model.ReviewPending {
		return nil, common.Errorf("review already decided as %s: %w", review.Status, common.ErrConflict)
	}

	tx, rollback, err := beginTx(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer rollback()

	decided, err := s.submissionRepo.SetReviewDecision(ctx, tx, submissionID, status, req.Feedback)
	if err != nil {
		return nil, common.Errorf("failed to record review decision: %w", err)
	}
	if !decided {
		return nil, common.Errorf("review was decided concurrently: %w", common.ErrConflict)
	}
	if err := commitTx(tx); err != nil {
		return nil, err
	}

	s.logger.Info("review decided",
		zap.String("submission_id", submissionID),
		zap.String("decision", string(status)))

	return buildSubmissionSummary(ctx, s.submissionRepo, s.problemRepo, submission, reviewer)
}
