package service

import (
	"context"
	"strings"
	"testing"

	"aqcode/internal/app/sandbox"
	"aqcode/internal/domain/repository"
	"aqcode/internal/platform/locker"
)

// fakeRunner stands in for the python sandbox. Each case passes unless its id
// is listed in failIDs; err short-circuits the whole run.
type fakeRunner struct {
	err     error
	failIDs map[string]bool
	runs    int
}

func (f *fakeRunner) Run(ctx context.Context, code string, cases []sandbox.TestCase) ([]sandbox.CaseResult, error) {
	f.runs++
	if f.err != nil {
		return nil, f.err
	}
	if strings.TrimSpace(code) == "" {
		return nil, sandbox.ErrEmptyCode
	}
	results := make([]sandbox.CaseResult, 0, len(cases))
	for _, tc := range cases {
		passed := !f.failIDs[tc.ID]
		actual := strings.TrimSpace(tc.ExpectedOutput)
		if !passed {
			actual = "wrong"
		}
		res := sandbox.CaseResult{
			TestCaseID:   tc.ID,
			IsHidden:     tc.IsHidden,
			Passed:       passed,
			ActualOutput: &actual,
			Stdout:       actual,
			RuntimeMs:    5,
		}
		if !passed {
			msg := "output mismatch"
			res.Error = &msg
		}
		results = append(results, res)
	}
	return results, nil
}

type testEnv struct {
	problemRepo    repository.ProblemRepository
	submissionRepo repository.SubmissionRepository
	locks          *locker.MemoryLocker
	runner         *fakeRunner

	problems   *ProblemService
	executions *ExecutionService
	submission *SubmissionService
	reviews    *ReviewService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		problemRepo:    repository.NewMemoryProblemRepository(),
		submissionRepo: repository.NewMemorySubmissionRepository(),
		locks:          locker.NewMemoryLocker(),
		runner:         &fakeRunner{failIDs: map[string]bool{}},
	}
	env.problems = NewProblemService(env.problemRepo, nil, nil)
	env.executions = NewExecutionService(env.submissionRepo, env.problemRepo, env.runner, env.locks, nil, nil)
	env.submission = NewSubmissionService(env.submissionRepo, env.problemRepo, env.locks, nil, nil)
	env.reviews = NewReviewService(env.submissionRepo, env.problemRepo, env.locks, nil, nil)
	return env
}

// seedProblem creates a problem with one visible and one hidden test case.
func (env *testEnv) seedProblem(t *testing.T) *ProblemResponse {
	t.Helper()
	problem, err := env.problems.Create(context.Background(), CreateProblemRequest{
		Title:         "Sum Two Numbers",
		Description:   "Read two integers, print their sum.",
		ExampleInput:  "1 2",
		ExampleOutput: "3",
		TestCases: []TestCaseInput{
			{InputData: "1 2", ExpectedOutput: "3", IsHidden: false},
			{InputData: "10 20", ExpectedOutput: "30", IsHidden: true},
		},
	}, true)
	if err != nil {
		t.Fatalf("seed problem: %v", err)
	}
	return problem
}

func (env *testEnv) execute(t *testing.T, problemID string) *ExecutionResponse {
	t.Helper()
	name := "alice"
	resp, err := env.executions.Execute(context.Background(), ExecuteRequest{
		ProblemID:     problemID,
		Code:          "a, b = map(int, input().split())\nprint(a + b)",
		SubmitterName: &name,
	}, false)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	return resp
}

func (env *testEnv) submitFor(t *testing.T, submissionID string) *SubmissionSummary {
	t.Helper()
	summary, err := env.submission.Submit(context.Background(), submissionID, SubmitRequest{}, false)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return summary
}

func strptr(s string) *string { return &s }
