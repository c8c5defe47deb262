package service

import (
	"context"
	"errors"
	"testing"

	"aqcode/internal/common"
	"aqcode/internal/domain/model"
)

func TestSubmitFreezesProblemState(t *testing.T) {
	env := newTestEnv(t)
	problem := env.seedProblem(t)
	exec := env.execute(t, problem.ID)

	summary := env.submitFor(t, exec.SubmissionID)

	if summary.SubmittedAt == nil {
		t.Fatal("submitted_at not stamped")
	}
	if summary.ProblemTitle != problem.Title {
		t.Errorf("title snapshot = %q, want %q", summary.ProblemTitle, problem.Title)
	}
	if summary.ProblemDescription != problem.Description {
		t.Errorf("description snapshot = %q, want %q", summary.ProblemDescription, problem.Description)
	}
	if summary.Review.Status != model.ReviewPending {
		t.Errorf("review status = %q, want pending", summary.Review.Status)
	}
	if len(summary.TestCaseSnapshots) != 2 {
		t.Errorf("got %d test case snapshots, want 2", len(summary.TestCaseSnapshots))
	}
}

func TestSubmitSnapshotSurvivesProblemEdits(t *testing.T) {
	env := newTestEnv(t)
	problem := env.seedProblem(t)
	exec := env.execute(t, problem.ID)
	env.submitFor(t, exec.SubmissionID)

	if _, err := env.problems.Update(context.Background(), problem.ID, UpdateProblemRequest{
		Title: strptr("Renamed Problem"),
	}, true); err != nil {
		t.Fatalf("update problem: %v", err)
	}
	if _, err := env.problems.ReplaceTestCases(context.Background(), problem.ID, []TestCaseInput{
		{InputData: "0 0", ExpectedOutput: "0"},
	}, true); err != nil {
		t.Fatalf("replace test cases: %v", err)
	}

	detail, err := env.reviews.Detail(context.Background(), exec.SubmissionID, true)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.ProblemTitle != problem.Title {
		t.Errorf("snapshot title = %q, edits must not leak in", detail.ProblemTitle)
	}
	if len(detail.TestCaseSnapshots) != 2 {
		t.Errorf("snapshot has %d cases, want the original 2", len(detail.TestCaseSnapshots))
	}
	if detail.CurrentProblem == nil || detail.CurrentProblem.Title != "Renamed Problem" {
		t.Error("detail must also expose the current problem state")
	}
	if len(detail.CurrentTestCases) != 1 {
		t.Errorf("current cases = %d, want 1", len(detail.CurrentTestCases))
	}
}

func TestSubmitSnapshotSurvivesProblemDeletion(t *testing.T) {
	env := newTestEnv(t)
	problem := env.seedProblem(t)
	exec := env.execute(t, problem.ID)
	env.submitFor(t, exec.SubmissionID)

	if err := env.problems.Delete(context.Background(), problem.ID); err != nil {
		t.Fatalf("delete problem: %v", err)
	}

	detail, err := env.reviews.Detail(context.Background(), exec.SubmissionID, true)
	if err != nil {
		t.Fatalf("detail after deletion: %v", err)
	}
	if detail.CurrentProblem != nil {
		t.Error("current problem should be absent after deletion")
	}
	if detail.ProblemTitle != problem.Title {
		t.Error("snapshot must outlive the problem")
	}
}

func TestSubmitTwiceIsConflict(t *testing.T) {
	env := newTestEnv(t)
	problem := env.seedProblem(t)
	exec := env.execute(t, problem.ID)
	env.submitFor(t, exec.SubmissionID)

	_, err := env.submission.Submit(context.Background(), exec.SubmissionID, SubmitRequest{}, false)
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	snapshots, _ := env.submissionRepo.GetTestCaseSnapshots(context.Background(), exec.SubmissionID)
	if len(snapshots) != 2 {
		t.Errorf("snapshot rows = %d, double submit must not duplicate them", len(snapshots))
	}
}

func TestSubmitWithoutExecution(t *testing.T) {
	env := newTestEnv(t)
	problem := env.seedProblem(t)

	sub := &model.Submission{ID: "raw-sub", ProblemID: problem.ID, Code: "print(1)"}
	if err := env.submissionRepo.CreateSubmission(context.Background(), nil, sub); err != nil {
		t.Fatalf("create submission: %v", err)
	}

	_, err := env.submission.Submit(context.Background(), "raw-sub", SubmitRequest{}, false)
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestSubmitUnknownSubmission(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.submission.Submit(context.Background(), "nope", SubmitRequest{}, false)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSubmitCarriesReviewerNotes(t *testing.T) {
	env := newTestEnv(t)
	problem := env.seedProblem(t)
	exec := env.execute(t, problem.ID)

	summary, err := env.submission.Submit(context.Background(), exec.SubmissionID, SubmitRequest{
		Notes: strptr("please check edge cases"),
	}, false)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if summary.Review.Notes == nil || *summary.Review.Notes != "please check edge cases" {
		t.Errorf("notes = %v, want them recorded on the review", summary.Review.Notes)
	}
}

func TestSubmitRedactsHiddenSnapshotsForNonReviewers(t *testing.T) {
	env := newTestEnv(t)
	problem := env.seedProblem(t)
	exec := env.execute(t, problem.ID)

	summary := env.submitFor(t, exec.SubmissionID)

	var hidden *SnapshotResponse
	for i := range summary.TestCaseSnapshots {
		if summary.TestCaseSnapshots[i].IsHidden {
			hidden = &summary.TestCaseSnapshots[i]
		}
	}
	if hidden == nil {
		t.Fatal("expected a hidden snapshot")
	}
	if hidden.InputData != nil || hidden.ExpectedOutput != nil {
		t.Error("hidden snapshot data must be redacted for non-reviewers")
	}
}
