package model

import (
	"time"
)

type Problem struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Description   string     `json:"description"`
	ExampleInput  string     `json:"example_input"`
	ExampleOutput string     `json:"example_output"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	TestCases     []TestCase `json:"test_cases,omitempty"`
}

// TestCase belongs to exactly one problem and is cascade-deleted with it.
// Hidden cases still run; their raw data is redacted for non-reviewer callers.
type TestCase struct {
	ID             string    `json:"id"`
	ProblemID      string    `json:"problem_id"`
	InputData      string    `json:"input_data"`
	ExpectedOutput string    `json:"expected_output"`
	IsHidden       bool      `json:"is_hidden"`
	SortOrder      int       `json:"sort_order"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
