package model

import "time"

// SubmissionTestCaseSnapshot is a frozen copy of one test case, captured at
// submit time. It keeps no reference to the live TestCase row, so later edits
// to the problem never alter the historical record.
type SubmissionTestCaseSnapshot struct {
	ID             string    `json:"id"`
	SubmissionID   string    `json:"submission_id"`
	InputData      string    `json:"input_data"`
	ExpectedOutput string    `json:"expected_output"`
	IsHidden       bool      `json:"is_hidden"`
	SortOrder      int       `json:"sort_order"`
	CreatedAt      time.Time `json:"created_at"`
}
