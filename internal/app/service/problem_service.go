package service

import (
	"context"
	"database/sql"
	"strings"

	"aqcode/internal/common"
	"aqcode/internal/domain/model"
	"aqcode/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// ProblemService manages the problem catalog and its test cases. Edits here
// never touch existing submission snapshots.
type ProblemService struct {
	problemRepo repository.ProblemRepository
	db          *sql.DB
	logger      *zap.Logger
}

func NewProblemService(probRepo repository.ProblemRepository, db *sql.DB, logger *zap.Logger) *ProblemService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProblemService{problemRepo: probRepo, db: db, logger: logger}
}

type TestCaseInput struct {
	InputData      string `json:"input_data"`
	ExpectedOutput string `json:"expected_output"`
	IsHidden       bool   `json:"is_hidden"`
}

type CreateProblemRequest struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	ExampleInput  string          `json:"example_input"`
	ExampleOutput string          `json:"example_output"`
	TestCases     []TestCaseInput `json:"test_cases"`
}

type UpdateProblemRequest struct {
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	ExampleInput  *string `json:"example_input,omitempty"`
	ExampleOutput *string `json:"example_output,omitempty"`
}

func (s *ProblemService) Create(ctx context.Context, req CreateProblemRequest, reviewer bool) (*ProblemResponse, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, common.Errorf("title is required: %w", common.ErrValidation)
	}

	problem := &model.Problem{
		ID:            uuid.NewString(),
		Title:         req.Title,
		Slug:          slug.Make(req.Title),
		Description:   req.Description,
		ExampleInput:  req.ExampleInput,
		ExampleOutput: req.ExampleOutput,
	}
	for i, tc := range req.TestCases {
		problem.TestCases = append(problem.TestCases, model.TestCase{
			ID:             uuid.NewString(),
			ProblemID:      problem.ID,
			InputData:      tc.InputData,
			ExpectedOutput: tc.ExpectedOutput,
			IsHidden:       tc.IsHidden,
			SortOrder:      i + 1,
		})
	}

	tx, rollback, err := beginTx(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer rollback()

	if err := s.problemRepo.CreateProblem(ctx, tx, problem); err != nil {
		return nil, common.Errorf("failed to create problem: %w", err)
	}
	if err := commitTx(tx); err != nil {
		return nil, err
	}

	s.logger.Info("problem created",
		zap.String("problem_id", problem.ID),
		zap.String("slug", problem.Slug),
		zap.Int("test_cases", len(problem.TestCases)))

	return toProblemResponse(problem, problem.TestCases, reviewer), nil
}

func (s *ProblemService) Update(ctx context.Context, problemID string, req UpdateProblemRequest, reviewer bool) (*ProblemResponse, error) {
	problem, err := s.problemRepo.FindProblemByID(ctx, problemID)
	if err != nil {
		return nil, common.Errorf("problem not found: %w", err)
	}
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, common.Errorf("title cannot be empty: %w", common.ErrValidation)
		}
		problem.Title = *req.Title
		problem.Slug = slug.Make(*req.Title)
	}
	if req.Description != nil {
		problem.Description = *req.Description
	}
	if req.ExampleInput != nil {
		problem.ExampleInput = *req.ExampleInput
	}
	if req.ExampleOutput != nil {
		problem.ExampleOutput = *req.ExampleOutput
	}

	tx, rollback, err := beginTx(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer rollback()

	if err := s.problemRepo.UpdateProblem(ctx, tx, problem); err != nil {
		return nil, common.Errorf("failed to update problem: %w", err)
	}
	if err := commitTx(tx); err != nil {
		return nil, err
	}

	testCases, err := s.problemRepo.GetTestCasesByProblemID(ctx, problemID)
	if err != nil {
		return nil, common.Errorf("failed to load test cases: %w", err)
	}
	return toProblemResponse(problem, testCases, reviewer), nil
}

func (s *ProblemService) Delete(ctx context.Context, problemID string) error {
	tx, rollback, err := beginTx(ctx, s.db)
	if err != nil {
		return err
	}
	defer rollback()

	if err := s.problemRepo.DeleteProblem(ctx, tx, problemID); err != nil {
		return common.Errorf("failed to delete problem: %w", err)
	}
	if err := commitTx(tx); err != nil {
		return err
	}
	s.logger.Info("problem deleted", zap.String("problem_id", problemID))
	return nil
}

func (s *ProblemService) Get(ctx context.Context, problemID string, reviewer bool) (*ProblemResponse, error) {
	problem, err := s.problemRepo.FindProblemByID(ctx, problemID)
	if err != nil {
		return nil, common.Errorf("problem not found: %w", err)
	}
	testCases, err := s.problemRepo.GetTestCasesByProblemID(ctx, problemID)
	if err != nil {
		return nil, common.Errorf("failed to load test cases: %w", err)
	}
	return toProblemResponse(problem, testCases, reviewer), nil
}

func (s *ProblemService) List(ctx context.Context, reviewer bool) ([]ProblemResponse, error) {
	problems, err := s.problemRepo.ListProblems(ctx)
	if err != nil {
		return nil, common.Errorf("failed to list problems: %w", err)
	}
	responses := make([]ProblemResponse, 0, len(problems))
	for i := range problems {
		responses = append(responses, *toProblemResponse(&problems[i], problems[i].TestCases, reviewer))
	}
	return responses, nil
}

func (s *ProblemService) AddTestCase(ctx context.Context, problemID string, req TestCaseInput, reviewer bool) (*TestCaseResponse, error) {
	if _, err := s.problemRepo.FindProblemByID(ctx, problemID); err != nil {
		return nil, common.Errorf("problem not found: %w", err)
	}
	existing, err := s.problemRepo.GetTestCasesByProblemID(ctx, problemID)
	if err != nil {
		return nil, common.Errorf("failed to load test cases: %w", err)
	}

	testCase := &model.TestCase{
		ID:             uuid.NewString(),
		ProblemID:      problemID,
		InputData:      req.InputData,
		ExpectedOutput: req.ExpectedOutput,
		IsHidden:       req.IsHidden,
		SortOrder:      len(existing) + 1,
	}

	tx, rollback, err := beginTx(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer rollback()

	if err := s.problemRepo.AddTestCase(ctx, tx, testCase); err != nil {
		return nil, common.Errorf("failed to add test case: %w", err)
	}
	if err := commitTx(tx); err != nil {
		return nil, err
	}

	resp := toTestCaseResponse(*testCase, reviewer)
	return &resp, nil
}

func (s *ProblemService) UpdateTestCase(ctx context.Context, testCaseID string, req TestCaseInput, reviewer bool) (*TestCaseResponse, error) {
	testCase, err := s.problemRepo.FindTestCaseByID(ctx, testCaseID)
	if err != nil {
		return nil, common.Errorf("test case not found: %w", err)
	}
	testCase.InputData = req.InputData
	testCase.ExpectedOutput = req.ExpectedOutput
	testCase.IsHidden = req.IsHidden

	tx, rollback, err := beginTx(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer rollback()

	if err := s.problemRepo.UpdateTestCase(ctx, tx, testCase); err != nil {
		return nil, common.Errorf("failed to update test case: %w", err)
	}
	if err := commitTx(tx); err != nil {
		return nil, err
	}

	resp := toTestCaseResponse(*testCase, reviewer)
	return &resp, nil
}

func (s *ProblemService) DeleteTestCase(ctx context.Context, testCaseID string) error {
	tx, rollback, err := beginTx(ctx, s.db)
	if err != nil {
		return err
	}
	defer rollback()

	if err := s.problemRepo.DeleteTestCase(ctx, tx, testCaseID); err != nil {
		return common.Errorf("failed to delete test case: %w", err)
	}
	return commitTx(tx)
}

// ReplaceTestCases swaps the problem's full test case set in one transaction.
func (s *ProblemService) ReplaceTestCases(ctx context.Context, problemID string, reqs []TestCaseInput, reviewer bool) ([]TestCaseResponse, error) {
	if _, err := s.problemRepo.FindProblemByID(ctx, problemID); err != nil {
		return nil, common.Errorf("problem not found: %w", err)
	}

	testCases := make([]model.TestCase, 0, len(reqs))
	for i, req := range reqs {
		testCases = append(testCases, model.TestCase{
			ID:             uuid.NewString(),
			ProblemID:      problemID,
			InputData:      req.InputData,
			ExpectedOutput: req.ExpectedOutput,
			IsHidden:       req.IsHidden,
			SortOrder:      i + 1,
		})
	}

	tx, rollback, err := beginTx(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer rollback()

	if err := s.problemRepo.ReplaceTestCases(ctx, tx, problemID, testCases); err != nil {
		return nil, common.Errorf("failed to replace test cases: %w", err)
	}
	if err := commitTx(tx); err != nil {
		return nil, err
	}

	responses := make([]TestCaseResponse, 0, len(testCases))
	for _, tc := range testCases {
		responses = append(responses, toTestCaseResponse(tc, reviewer))
	}
	return responses, nil
}
