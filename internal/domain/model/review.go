package model

import "time"

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// Review is unique per submission. It is created (or reset to pending) only
// by the submit transition; approve/reject are terminal for the decision.
type Review struct {
	ID           string       `json:"id"`
	SubmissionID string       `json:"submission_id"`
	Status       ReviewStatus `json:"status"`
	Notes        *string      `json:"notes,omitempty"`
	Feedback     *string      `json:"feedback,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewRejected:
		return true
	}
	return false
}
