package service

import (
	"time"

	"aqcode/internal/app/sandbox"
	"aqcode/internal/domain/model"
)

// TestCaseResponse is a test case as seen by a caller. Hidden cases keep
// their flag and identity but lose raw input/expected data unless the caller
// is a reviewer.
type TestCaseResponse struct {
	ID             string  `json:"id"`
	ProblemID      string  `json:"problem_id"`
	IsHidden       bool    `json:"is_hidden"`
	InputData      *string `json:"input_data,omitempty"`
	ExpectedOutput *string `json:"expected_output,omitempty"`
	SortOrder      int     `json:"sort_order"`
}

// CaseResponse is one per-case verdict on the wire. Pass/fail and error text
// are always visible; raw data follows the hidden-case redaction rule.
type CaseResponse struct {
	TestCaseID     string  `json:"test_case_id"`
	IsHidden       bool    `json:"is_hidden"`
	Passed         bool    `json:"passed"`
	InputData      *string `json:"input_data,omitempty"`
	ExpectedOutput *string `json:"expected_output,omitempty"`
	ActualOutput   *string `json:"actual_output,omitempty"`
	Stdout         *string `json:"stdout,omitempty"`
	Stderr         *string `json:"stderr,omitempty"`
	Error          *string `json:"error,omitempty"`
	RuntimeMs      int     `json:"runtime_ms"`
}

type ReviewInfo struct {
	Status   model.ReviewStatus `json:"status"`
	Notes    *string            `json:"notes,omitempty"`
	Feedback *string            `json:"feedback,omitempty"`
}

type SnapshotResponse struct {
	ID             string  `json:"id"`
	IsHidden       bool    `json:"is_hidden"`
	InputData      *string `json:"input_data,omitempty"`
	ExpectedOutput *string `json:"expected_output,omitempty"`
	SortOrder      int     `json:"sort_order"`
}

// SubmissionSummary is the shared read model for listings and transition
// responses. Snapshot fields fall back to the live problem when the
// submission has not been submitted yet.
type SubmissionSummary struct {
	ID                 string             `json:"id"`
	ProblemID          string             `json:"problem_id"`
	ProblemTitle       string             `json:"problem_title"`
	SubmitterName      *string            `json:"submitter_name,omitempty"`
	Code               string             `json:"code"`
	SubmittedAt        *time.Time         `json:"submitted_at,omitempty"`
	Review             ReviewInfo         `json:"review"`
	ExecutionSummary   sandbox.Summary    `json:"execution_summary"`
	Stdout             *string            `json:"stdout,omitempty"`
	Stderr             *string            `json:"stderr,omitempty"`
	ProblemDescription string             `json:"problem_description"`
	ExampleInput       string             `json:"example_input"`
	ExampleOutput      string             `json:"example_output"`
	TestCaseSnapshots  []SnapshotResponse `json:"test_case_snapshots"`
}

// SubmissionDetail adds the current live problem state for the reviewer's
// snapshot-vs-now diff. Derived view only; nothing here mutates state.
type SubmissionDetail struct {
	SubmissionSummary
	CurrentProblem   *ProblemResponse   `json:"current_problem"`
	CurrentTestCases []TestCaseResponse `json:"current_test_cases"`
}

type ProblemResponse struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	Slug          string             `json:"slug"`
	Description   string             `json:"description"`
	ExampleInput  string             `json:"example_input"`
	ExampleOutput string             `json:"example_output"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	TestCases     []TestCaseResponse `json:"test_cases,omitempty"`
}

type ExecutionResponse struct {
	SubmissionID string          `json:"submission_id"`
	Summary      sandbox.Summary `json:"summary"`
	Results      []CaseResponse  `json:"results"`
}

func maskIfHidden(value string, hidden, reviewer bool) *string {
	if hidden && !reviewer {
		return nil
	}
	return &value
}

func maskPtrIfHidden(value *string, hidden, reviewer bool) *string {
	if hidden && !reviewer {
		return nil
	}
	return value
}

func toTestCaseResponse(tc model.TestCase, reviewer bool) TestCaseResponse {
	return TestCaseResponse{
		ID:             tc.ID,
		ProblemID:      tc.ProblemID,
		IsHidden:       tc.IsHidden,
		InputData:      maskIfHidden(tc.InputData, tc.IsHidden, reviewer),
		ExpectedOutput: maskIfHidden(tc.ExpectedOutput, tc.IsHidden, reviewer),
		SortOrder:      tc.SortOrder,
	}
}

func toSnapshotResponse(snap model.SubmissionTestCaseSnapshot, reviewer bool) SnapshotResponse {
	return SnapshotResponse{
		ID:             snap.ID,
		IsHidden:       snap.IsHidden,
		InputData:      maskIfHidden(snap.InputData, snap.IsHidden, reviewer),
		ExpectedOutput: maskIfHidden(snap.ExpectedOutput, snap.IsHidden, reviewer),
		SortOrder:      snap.SortOrder,
	}
}

func toProblemResponse(p *model.Problem, testCases []model.TestCase, reviewer bool) *ProblemResponse {
	resp := &ProblemResponse{
		ID:            p.ID,
		Title:         p.Title,
		Slug:          p.Slug,
		Description:   p.Description,
		ExampleInput:  p.ExampleInput,
		ExampleOutput: p.ExampleOutput,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	for _, tc := range testCases {
		resp.TestCases = append(resp.TestCases, toTestCaseResponse(tc, reviewer))
	}
	return resp
}
