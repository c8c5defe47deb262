package service

import (
	"context"
	"database/sql"
	"time"

	"aqcode/internal/common"
	"aqcode/internal/domain/model"
	"aqcode/internal/domain/repository"
	"aqcode/internal/platform/locker"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmissionService owns the submit transition: freezing the problem state
// into the submission's snapshot and opening the pending review.
type SubmissionService struct {
	submissionRepo repository.SubmissionRepository
	problemRepo    repository.ProblemRepository
	locks          locker.SubmissionLocker
	db             *sql.DB
	logger         *zap.Logger
}

func NewSubmissionService(
	subRepo repository.SubmissionRepository,
	probRepo repository.ProblemRepository,
	locks locker.SubmissionLocker,
	db *sql.DB,
	logger *zap.Logger,
) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		submissionRepo: subRepo,
		problemRepo:    probRepo,
		locks:          locks,
		db:             db,
		logger:         logger,
	}
}

type SubmitRequest struct {
	Notes *string `json:"notes,omitempty"`
}

// Submit freezes the problem definition and test cases into the submission's
// snapshot, stamps submitted_at, and creates the pending review. Submitting
// twice is a conflict; the snapshot is written exactly once.
func (s *SubmissionService) Submit(ctx context.Context, submissionID string, req SubmitRequest, reviewer bool) (*SubmissionSummary, error) {
	release, err := s.locks.Acquire(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	defer release()

	submission, err := s.submissionRepo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return nil, common.Errorf("submission not found: %w", err)
	}
	if submission.SubmittedAt != nil {
		return nil, common.Errorf("submission already sent for review: %w", common.ErrConflict)
	}
	if submission.LatestExecutionResultID == nil {
		return nil, common.Errorf("run tests before submitting for review: %w", common.ErrValidation)
	}

	problem, err := s.problemRepo.FindProblemByID(ctx, submission.ProblemID)
	if err != nil {
		return nil, common.Errorf("problem not found: %w", err)
	}
	testCases, err := s.problemRepo.GetTestCasesByProblemID(ctx, problem.ID)
	if err != nil {
		return nil, common.Errorf("failed to load test cases: %w", err)
	}

	now := time.Now().UTC()
	submission.ProblemTitleSnapshot = &problem.Title
	submission.ProblemDescriptionSnapshot = &problem.Description
	submission.ExampleInputSnapshot = &problem.ExampleInput
	submission.ExampleOutputSnapshot = &problem.ExampleOutput
	submission.SubmittedAt = &now

	snapshots := make([]model.SubmissionTestCaseSnapshot, 0, len(testCases))
	for i, tc := range testCases {
		snapshots = append(snapshots, model.SubmissionTestCaseSnapshot{
			ID:             uuid.NewString(),
			SubmissionID:   submission.ID,
			InputData:      tc.InputData,
			ExpectedOutput: tc.ExpectedOutput,
			IsHidden:       tc.IsHidden,
			SortOrder:      i + 1,
		})
	}

	review := &model.Review{
		ID:           uuid.NewString(),
		SubmissionID: submission.ID,
		Status:       model.ReviewPending,
		Notes:        req.Notes,
	}

	tx, rollback, err := beginTx(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer rollback()

	if err := s.submissionRepo.MarkSubmitted(ctx, tx, submission); err != nil {
		return nil, common.Errorf("failed to mark submission submitted: %w", err)
	}
	if err := s.submissionRepo.CreateTestCaseSnapshots(ctx, tx, snapshots); err != nil {
		return nil, common.Errorf("failed to freeze test case snapshots: %w", err)
	}
	if err := s.submissionRepo.UpsertReview(ctx, tx, review); err != nil {
		return nil, common.Errorf("failed to open review: %w", err)
	}
	if err := commitTx(tx); err != nil {
		return nil, err
	}

	s.logger.Info("submission sent for review",
		zap.String("submission_id", submission.ID),
		zap.String("problem_id", submission.ProblemID),
		zap.Int("snapshot_cases", len(snapshots)))

	return buildSubmissionSummary(ctx, s.submissionRepo, s.problemRepo, submission, reviewer)
}

// buildSubmissionSummary assembles the shared read model. Snapshot fields
// come from the freeze once submitted; before that they fall back to the live
// problem so callers always see a title.
func buildSubmissionSummary(ctx context.Context, repo repository.SubmissionRepository, problemRepo repository.ProblemRepository, sub *model.Submission, reviewer bool) (*SubmissionSummary, error) {
	summary := &SubmissionSummary{
		ID:            sub.ID,
		ProblemID:     sub.ProblemID,
		SubmitterName: sub.SubmitterName,
		Code:          sub.Code,
		SubmittedAt:   sub.SubmittedAt,
		Review:        ReviewInfo{Status: model.ReviewPending},
	}
	if sub.ProblemTitleSnapshot != nil {
		summary.ProblemTitle = *sub.ProblemTitleSnapshot
		if sub.ProblemDescriptionSnapshot != nil {
			summary.ProblemDescription = *sub.ProblemDescriptionSnapshot
		}
		if sub.ExampleInputSnapshot != nil {
			summary.ExampleInput = *sub.ExampleInputSnapshot
		}
		if sub.ExampleOutputSnapshot != nil {
			summary.ExampleOutput = *sub.ExampleOutputSnapshot
		}
	} else if problem, err := problemRepo.FindProblemByID(ctx, sub.ProblemID); err == nil {
		summary.ProblemTitle = problem.Title
		summary.ProblemDescription = problem.Description
		summary.ExampleInput = problem.ExampleInput
		summary.ExampleOutput = problem.ExampleOutput
	}

	if review, err := repo.GetReviewBySubmissionID(ctx, sub.ID); err == nil {
		summary.Review = ReviewInfo{Status: review.Status, Notes: review.Notes, Feedback: review.Feedback}
	}

	if sub.LatestExecutionResultID != nil {
		execResult, err := repo.GetExecutionResultByID(ctx, *sub.LatestExecutionResultID)
		if err != nil {
			return nil, common.Errorf("failed to load latest execution result: %w", err)
		}
		summary.ExecutionSummary.Status = string(execResult.Status)
		summary.ExecutionSummary.PassedCount = execResult.PassedCount
		summary.ExecutionSummary.FailedCount = execResult.FailedCount
		if reviewer {
			summary.Stdout = execResult.Stdout
			summary.Stderr = execResult.Stderr
		} else {
			// The stored joined streams include hidden cases' raw output, so
			// non-reviewers get a view rebuilt from visible case rows only.
			summary.Stdout, summary.Stderr = joinVisibleStreams(execResult.CaseResults)
		}
	}

	snapshots, err := repo.GetTestCaseSnapshots(ctx, sub.ID)
	if err != nil {
		return nil, common.Errorf("failed to load test case snapshots: %w", err)
	}
	summary.TestCaseSnapshots = make([]SnapshotResponse, 0, len(snapshots))
	for _, snap := range snapshots {
		summary.TestCaseSnapshots = append(summary.TestCaseSnapshots, toSnapshotResponse(snap, reviewer))
	}
	return summary, nil
}
