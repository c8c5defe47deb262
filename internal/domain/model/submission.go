package model

import "time"

type ExecutionStatus string

const (
	ExecutionPassed ExecutionStatus = "passed"
	ExecutionFailed ExecutionStatus = "failed"
)

// Submission is the join point between code, verdicts and review state.
// It references its problem by id only; the frozen snapshot fields are the
// historical record once the submission entered review.
type Submission struct {
	ID            string  `json:"id"`
	ProblemID     string  `json:"problem_id"`
	SubmitterName *string `json:"submitter_name,omitempty"`
	Code          string  `json:"code"`

	// Latest pointer: references the most recent ExecutionResult. Updated
	// atomically per execute/rerun, never partially.
	LatestExecutionResultID *string `json:"latest_execution_result_id,omitempty"`

	// Frozen at submit time, never updated afterwards.
	ProblemTitleSnapshot       *string    `json:"problem_title_snapshot,omitempty"`
	ProblemDescriptionSnapshot *string    `json:"problem_description_snapshot,omitempty"`
	ExampleInputSnapshot       *string    `json:"example_input_snapshot,omitempty"`
	ExampleOutputSnapshot      *string    `json:"example_output_snapshot,omitempty"`
	SubmittedAt                *time.Time `json:"submitted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExecutionResult is immutable once written; reruns create a new one.
type ExecutionResult struct {
	ID           string          `json:"id"`
	SubmissionID string          `json:"submission_id"`
	Status       ExecutionStatus `json:"status"`
	PassedCount  int             `json:"passed_count"`
	FailedCount  int             `json:"failed_count"`
	Stdout       *string         `json:"stdout,omitempty"`
	Stderr       *string         `json:"stderr,omitempty"`
	RuntimeMs    int             `json:"runtime_ms"`
	CreatedAt    time.Time       `json:"created_at"`

	CaseResults []ExecutionCaseResult `json:"case_results,omitempty"`
}

// ExecutionCaseResult records one test case's verdict within a run. The
// hidden flag is captured at run time so redaction survives later edits to
// the live test case.
type ExecutionCaseResult struct {
	ID                string  `json:"id"`
	ExecutionResultID string  `json:"execution_result_id"`
	TestCaseID        string  `json:"test_case_id"`
	IsHidden          bool    `json:"is_hidden"`
	Passed            bool    `json:"passed"`
	ActualOutput      *string `json:"actual_output,omitempty"`
	Stdout            *string `json:"stdout,omitempty"`
	Stderr            *string `json:"stderr,omitempty"`
	Error             *string `json:"error,omitempty"`
	RuntimeMs         int     `json:"runtime_ms"`
}
