package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"aqcode/internal/app/sandbox"
	"aqcode/internal/common"
	"aqcode/internal/domain/model"
	"aqcode/internal/domain/repository"
	"aqcode/internal/platform/locker"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExecutionService owns the execute and rerun transitions: it drives the
// sandbox runner over a problem's test cases, aggregates the verdict, and
// persists a new immutable ExecutionResult plus the latest pointer.
type ExecutionService struct {
	submissionRepo repository.SubmissionRepository
	problemRepo    repository.ProblemRepository
	runner         sandbox.Runner
	locks          locker.SubmissionLocker
	db             *sql.DB
	logger         *zap.Logger
}

func NewExecutionService(
	subRepo repository.SubmissionRepository,
	probRepo repository.ProblemRepository,
	runner sandbox.Runner,
	locks locker.SubmissionLocker,
	db *sql.DB,
	logger *zap.Logger,
) *ExecutionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecutionService{
		submissionRepo: subRepo,
		problemRepo:    probRepo,
		runner:         runner,
		locks:          locks,
		db:             db,
		logger:         logger,
	}
}

type ExecuteRequest struct {
	ProblemID     string  `json:"problem_id"`
	Code          string  `json:"code"`
	SubmitterName *string `json:"submitter_name,omitempty"`
}

type RerunRequest struct {
	CodeOverride *string `json:"code_override,omitempty"`
}

// Execute runs the submitted code against every test case of the problem and
// creates the Submission with its first ExecutionResult. The response is
// built only after the full result is persisted; callers never observe a
// partial run.
func (s *ExecutionService) Execute(ctx context.Context, req ExecuteRequest, reviewer bool) (*ExecutionResponse, error) {
	if req.ProblemID == "" {
		return nil, common.Errorf("problem_id is required: %w", common.ErrValidation)
	}
	problem, err := s.problemRepo.FindProblemByID(ctx, req.ProblemID)
	if err != nil {
		return nil, common.Errorf("problem not found: %w", err)
	}
	testCases, err := s.problemRepo.GetTestCasesByProblemID(ctx, problem.ID)
	if err != nil {
		return nil, common.Errorf("failed to load test cases: %w", err)
	}
	if len(testCases) == 0 {
		return nil, common.Errorf("problem has no test cases: %w", common.ErrValidation)
	}

	caseResults, err := s.runCases(ctx, req.Code, testCases)
	if err != nil {
		return nil, err
	}
	summary := sandbox.Aggregate(caseResults)

	submission := &model.Submission{
		ID:            uuid.NewString(),
		ProblemID:     problem.ID,
		SubmitterName: req.SubmitterName,
		Code:          req.Code,
	}
	execResult := buildExecutionResult(submission.ID, summary, caseResults)

	tx, rollback, err := beginTx(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer rollback()

	if err := s.submissionRepo.CreateSubmission(ctx, tx, submission); err != nil {
		return nil, common.Errorf("failed to create submission: %w", err)
	}
	if err := s.submissionRepo.CreateExecutionResult(ctx, tx, execResult); err != nil {
		return nil, common.Errorf("failed to persist execution result: %w", err)
	}
	if err := s.submissionRepo.SetLatestExecutionResult(ctx, tx, submission.ID, execResult.ID); err != nil {
		return nil, common.Errorf("failed to update latest result pointer: %w", err)
	}
	if err := commitTx(tx); err != nil {
		return nil, err
	}

	s.logger.Info("execution completed",
		zap.String("submission_id", submission.ID),
		zap.String("problem_id", problem.ID),
		zap.String("status", summary.Status),
		zap.Int("passed", summary.PassedCount),
		zap.Int("failed", summary.FailedCount))

	return &ExecutionResponse{
		SubmissionID: submission.ID,
		Summary:      summary,
		Results:      buildCaseResponses(caseResults, testCases, reviewer),
	}, nil
}

// Rerun re-executes an existing submission against the problem's current
// (live) test cases. The review status is left untouched: a rerun never
// reopens a decided review. Serialized per submission by the locker.
func (s *ExecutionService) Rerun(ctx context.Context, submissionID string, req RerunRequest, reviewer bool) (*ExecutionResponse, error) {
	release, err := s.locks.Acquire(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	defer release()

	submission, err := s.submissionRepo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return nil, common.Errorf("submission not found: %w", err)
	}
	if submission.LatestExecutionResultID == nil {
		return nil, common.Errorf("submission has never been executed: %w", common.ErrValidation)
	}
	testCases, err := s.problemRepo.GetTestCasesByProblemID(ctx, submission.ProblemID)
	if err != nil {
		return nil, common.Errorf("failed to load test cases: %w", err)
	}
	if len(testCases) == 0 {
		return nil, common.Errorf("problem has no test cases: %w", common.ErrValidation)
	}

	code := submission.Code
	if req.CodeOverride != nil {
		code = *req.CodeOverride
	}

	caseResults, err := s.runCases(ctx, code, testCases)
	if err != nil {
		return nil, err
	}
	summary := sandbox.Aggregate(caseResults)
	execResult := buildExecutionResult(submission.ID, summary, caseResults)

	tx, rollback, err := beginTx(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer rollback()

	if req.CodeOverride != nil {
		if err := s.submissionRepo.UpdateSubmissionCode(ctx, tx, submission.ID, code); err != nil {
			return nil, common.Errorf("failed to update submission code: %w", err)
		}
	}
	if err := s.submissionRepo.CreateExecutionResult(ctx, tx, execResult); err != nil {
		return nil, common.Errorf("failed to persist execution result: %w", err)
	}
	if err := s.submissionRepo.SetLatestExecutionResult(ctx, tx, submission.ID, execResult.ID); err != nil {
		return nil, common.Errorf("failed to update latest result pointer: %w", err)
	}
	if err := commitTx(tx); err != nil {
		return nil, err
	}

	s.logger.Info("rerun completed",
		zap.String("submission_id", submission.ID),
		zap.String("status", summary.Status),
		zap.Bool("code_override", req.CodeOverride != nil))

	return &ExecutionResponse{
		SubmissionID: submission.ID,
		Summary:      summary,
		Results:      buildCaseResponses(caseResults, testCases, reviewer),
	}, nil
}

// runCases invokes the sandbox and maps its failure modes onto the domain
// error taxonomy. Guardrail violations come back as failed verdicts already.
func (s *ExecutionService) runCases(ctx context.Context, code string, testCases []model.TestCase) ([]sandbox.CaseResult, error) {
	cases := make([]sandbox.TestCase, 0, len(testCases))
	for _, tc := range testCases {
		cases = append(cases, sandbox.TestCase{
			ID:             tc.ID,
			InputData:      tc.InputData,
			ExpectedOutput: tc.ExpectedOutput,
			IsHidden:       tc.IsHidden,
		})
	}
	results, err := s.runner.Run(ctx, code, cases)
	if err != nil {
		if errors.Is(err, sandbox.ErrEmptyCode) || errors.Is(err, sandbox.ErrNoCases) {
			return nil, common.Errorf("%v: %w", err, common.ErrValidation)
		}
		if errors.Is(err, sandbox.ErrFatal) {
			s.logger.Error("sandbox failure", zap.Error(err))
			return nil, common.Errorf("%v: %w", err, common.ErrSandboxFatal)
		}
		return nil, common.Errorf("execution failed: %w", err)
	}
	return results, nil
}

// buildExecutionResult assembles the immutable record: aggregate counts, the
// joined diagnostic streams, summed runtime, and one row per case.
func buildExecutionResult(submissionID string, summary sandbox.Summary, results []sandbox.CaseResult) *model.ExecutionResult {
	execResult := &model.ExecutionResult{
		ID:           uuid.NewString(),
		SubmissionID: submissionID,
		Status:       model.ExecutionStatus(summary.Status),
		PassedCount:  summary.PassedCount,
		FailedCount:  summary.FailedCount,
		Stdout:       joinStreams(results, func(r sandbox.CaseResult) string { return r.Stdout }),
		Stderr: joinStreams(results, func(r sandbox.CaseResult) string {
			if r.Stderr != "" {
				return r.Stderr
			}
			if r.Error != nil {
				return *r.Error
			}
			return ""
		}),
		RuntimeMs: sandbox.TotalRuntimeMs(results),
	}
	for _, res := range results {
		caseResult := model.ExecutionCaseResult{
			ID:                uuid.NewString(),
			ExecutionResultID: execResult.ID,
			TestCaseID:        res.TestCaseID,
			IsHidden:          res.IsHidden,
			Passed:            res.Passed,
			ActualOutput:      res.ActualOutput,
			Error:             res.Error,
			RuntimeMs:         res.RuntimeMs,
		}
		if res.Stdout != "" {
			stdout := res.Stdout
			caseResult.Stdout = &stdout
		}
		if res.Stderr != "" {
			stderr := res.Stderr
			caseResult.Stderr = &stderr
		}
		execResult.CaseResults = append(execResult.CaseResults, caseResult)
	}
	return execResult
}

// joinVisibleStreams rebuilds the per-run diagnostic streams from non-hidden
// case rows only. Used for non-reviewer reads of a stored execution result.
func joinVisibleStreams(results []model.ExecutionCaseResult) (stdout, stderr *string) {
	var outParts, errParts []string
	for _, cr := range results {
		if cr.IsHidden {
			continue
		}
		if cr.Stdout != nil && *cr.Stdout != "" {
			outParts = append(outParts, *cr.Stdout)
		}
		switch {
		case cr.Stderr != nil && *cr.Stderr != "":
			errParts = append(errParts, *cr.Stderr)
		case cr.Error != nil && *cr.Error != "":
			errParts = append(errParts, *cr.Error)
		}
	}
	if len(outParts) > 0 {
		joined := strings.Join(outParts, "\n")
		stdout = &joined
	}
	if len(errParts) > 0 {
		joined := strings.Join(errParts, "\n")
		stderr = &joined
	}
	return stdout, stderr
}

func joinStreams(results []sandbox.CaseResult, pick func(sandbox.CaseResult) string) *string {
	var parts []string
	for _, res := range results {
		if value := pick(res); value != "" {
			parts = append(parts, value)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	joined := strings.Join(parts, "\n")
	return &joined
}

// buildCaseResponses pairs runner results with their test cases and applies
// the hidden-case redaction for non-reviewer callers.
func buildCaseResponses(results []sandbox.CaseResult, testCases []model.TestCase, reviewer bool) []CaseResponse {
	byID := make(map[string]model.TestCase, len(testCases))
	for _, tc := range testCases {
		byID[tc.ID] = tc
	}
	responses := make([]CaseResponse, 0, len(results))
	for _, res := range results {
		tc := byID[res.TestCaseID]
		resp := CaseResponse{
			TestCaseID:     res.TestCaseID,
			IsHidden:       res.IsHidden,
			Passed:         res.Passed,
			InputData:      maskIfHidden(tc.InputData, res.IsHidden, reviewer),
			ExpectedOutput: maskIfHidden(tc.ExpectedOutput, res.IsHidden, reviewer),
			ActualOutput:   maskPtrIfHidden(res.ActualOutput, res.IsHidden, reviewer),
			Error:          res.Error,
			RuntimeMs:      res.RuntimeMs,
		}
		if res.Stdout != "" {
			resp.Stdout = maskIfHidden(res.Stdout, res.IsHidden, reviewer)
		}
		if res.Stderr != "" {
			resp.Stderr = maskIfHidden(res.Stderr, res.IsHidden, reviewer)
		}
		responses = append(responses, resp)
	}
	return responses
}
