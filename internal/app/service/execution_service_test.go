package service

import (
	"context"
	"errors"
	"testing"

	"aqcode/internal/app/sandbox"
	"aqcode/internal/common"
)

func TestExecuteCreatesSubmissionWithResult(t *testing.T) {
	env := newTestEnv(t)
	problem := env.seedProblem(t)

	resp := env.execute(t, problem.ID)

	if resp.SubmissionID == "" {
		t.Fatal("missing submission id")
	}
	if resp.Summary.Status != sandbox.StatusPassed {
		t.Errorf("status = %q, want passed", resp.Summary.Status)
	}
	if resp.Summary.PassedCount != 2 || resp.Summary.FailedCount != 0 {
		t.Errorf("counts = %d/%d, want 2/0", resp.Summary.PassedCount, resp.Summary.FailedCount)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("got %d case results, want 2", len(resp.Results))
	}

	sub, err := env.submissionRepo.GetSubmissionByID(context.Background(), resp.SubmissionID)
	if err != nil {
		t.Fatalf("stored submission: %v", err)
	}
	if sub.LatestExecutionResultID == nil {
		t.Fatal("latest execution result pointer not set")
	}
	if sub.SubmittedAt != nil {
		t.Error("fresh execution must not be submitted")
	}

	stored, err := env.submissionRepo.GetExecutionResultByID(context.Background(), *sub.LatestExecutionResultID)
	if err != nil {
		t.Fatalf("stored result: %v", err)
	}
	if stored.PassedCount+stored.FailedCount != len(stored.CaseResults) {
		t.Errorf("counts %d+%d do not cover %d stored case rows",
			stored.PassedCount, stored.FailedCount, len(stored.CaseResults))
	}
}

func TestExecuteFailedCaseFailsRun(t *testing.T) {
	env := newTestEnv(t)
	problem := env.seedProblem(t)
	env.runner.failIDs[problem.TestCases[1].ID] = true

	resp := env.execute(t, problem.ID)

	if resp.Summary.Status != sandbox.StatusFailed {
		t.Errorf("status = %q, want failed", resp.Summary.Status)
	}
	if resp.Summary.PassedCount != 1 || resp.Summary.FailedCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", resp.Summary.PassedCount, resp.Summary.FailedCount)
	}
}

func TestExecuteUnknownProblem(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.executions.Execute(context.Background(), ExecuteRequest{
		ProblemID: "nope", Code: "print(1)",
	}, false)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestExecuteRequiresProblemID(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.executions.Execute(context.Background(), ExecuteRequest{Code: "print(1)"}, false)
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestExecuteRejectsProblemWithoutTestCases(t *testing.T) {
	env := newTestEnv(t)
	problem, err := env.problems.Create(context.Background(), CreateProblemRequest{
		Title: "Empty Problem",
	}, true)
	if err != nil {
		t.Fatalf("create problem: %v", err)
	}

	_, err = env.executions.Execute(context.Background(), ExecuteRequest{
		ProblemID: problem.ID, Code: "print(1)",
	}, false)
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if env.runner.runs != 0 {
		t.Error("runner must not be invoked for a caseless problem")
	}
}

func TestExecuteEmptyCodeIsValidationError(t *testing.T) {
	env := newTestEnv(t)
	problem := env.seedProblem(t)

	_, err := env.executions.Execute(context.Background(), ExecuteRequest{
		ProblemID: problem.ID, Code: "   ",
	}, false)
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestExecuteSandboxFatal(t *testing.T) {
	env := newTestEnv(t)
	problem := env.seedProblem(t)
	env.runner.err = sandbox.ErrFatal

	_, err := env.executions.Execute(context.Background(), ExecuteRequest{
		ProblemID: problem.ID, Code: "print(1)",
	}, false)
	if !errors.Is(err, common.ErrSandboxFatal) {
		t.Fatalf("err = %v, want ErrSandboxFatal", err)
	}
}

func TestExecuteRedactsHiddenCases(t *testing.T) {
	env := newTestEnv(t)
	problem := env.seedProblem(t)
	env.runner.failIDs[problem.TestCases[1].ID] = true

	resp := env.execute(t, problem.ID)

	visible, hidden := resp.Results[0], resp.Results[1]
	if visible.InputData == nil || visible.ExpectedOutput == nil || visible.ActualOutput == nil {
		t.Error("visible case must keep its data")
	}
	if hidden.InputData != nil || hidden.ExpectedOutput != nil || hidden.ActualOutput != nil || hidden.Stdout != nil {
		t.Error("hidden case data must be redacted for non-reviewers")
	}
	if !hidden.IsHidden {
		t.Error("hidden flag must survive redaction")
	}
	if hidden.Passed {
		t.Error("verdict must stay visible on hidden cases")
	}
	if hidden.Error == nil || *hidden.Error != "output mismatch" {
		t.Errorf("error text must stay visible, got %v", hidden.Error)
	}
}

func TestExecuteReviewerSeesHiddenCases(t *testing.T) {
	env := newTestEnv(t)
	problem := env.seedProblem(t)

	resp, err := env.executions.Execute(context.Background(), ExecuteRequest{
		ProblemID: problem.ID, Code: "print(1)",
	}, true)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	hidden := resp.Results[1]
	if hidden.InputData == nil || hidden.ExpectedOutput == nil {
		t.Error("reviewer must see hidden case data")
	}
}

func TestRerunCreatesNewResult(t *testing.T) {
	env := newTestEnv(t)
	problem := env.seedProblem(t)
	first := env.execute(t, problem.ID)

	firstSub, _ := env.submissionRepo.GetSubmissionByID(context.Background(), first.SubmissionID)
	firstResultID := *firstSub.LatestExecutionResultID

	resp, err := env.executions.Rerun(context.Background(), first.SubmissionID, RerunRequest{}, false)
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if resp.SubmissionID != first.SubmissionID {
		t.Error("rerun must stay on the same submission")
	}

	sub, _ := env.submissionRepo.GetSubmissionByID(context.Background(), first.SubmissionID)
	if *sub.LatestExecutionResultID == firstResultID {
		t.Error("latest pointer must move to the new result")
	}
	if _, err := env.submissionRepo.GetExecutionResultByID(context.Background(), firstResultID); err != nil {
		t.Error("previous execution result must remain stored")
	}
}

func TestRerunUsesLiveTestCases(t *testing.T) {
	env := newTestEnv(t)
	problem := env.seedProblem(t)
	first := env.execute(t, problem.ID)

	if _, err := env.problems.AddTestCase(context.Background(), problem.ID, TestCaseInput{
		InputData: "100 200", ExpectedOutput: "300",
	}, true); err != nil {
		t.Fatalf("add test case: %v", err)
	}

	resp, err := env.executions.Rerun(context.Background(), first.SubmissionID, RerunRequest{}, false)
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if len(resp.Results) != 3 {
		t.Errorf("got %d results, want 3 (live cases)", len(resp.Results))
	}
}

func TestRerunWithCodeOverride(t *testing.T) {
	env := newTestEnv(t)
	problem := env.seedProblem(t)
	first := env.execute(t, problem.ID)

	override := "print(sum(map(int, input().split())))"
	if _, err := env.executions.Rerun(context.Background(), first.SubmissionID, RerunRequest{
		CodeOverride: &override,
	}, false); err != nil {
		t.Fatalf("rerun: %v", err)
	}

	sub, _ := env.submissionRepo.GetSubmissionByID(context.Background(), first.SubmissionID)
	if sub.Code != override {
		t.Errorf("code = %q, want override applied", sub.Code)
	}
}

func TestRerunUnknownSubmission(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.executions.Rerun(context.Background(), "nope", RerunRequest{}, false)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRerunWhileLockedIsConflict(t *testing.T) {
	env := newTestEnv(t)
	problem := env.seedProblem(t)
	first := env.execute(t, problem.ID)

	release, err := env.locks.Acquire(context.Background(), first.SubmissionID)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release()

	_, err = env.executions.Rerun(context.Background(), first.SubmissionID, RerunRequest{}, false)
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}
