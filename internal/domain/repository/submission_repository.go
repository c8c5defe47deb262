package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"aqcode/internal/common"
	"aqcode/internal/domain/model"
)

// SubmissionListFilter narrows the review queue. Zero values mean "no filter".
type SubmissionListFilter struct {
	Status        model.ReviewStatus
	ProblemID     string
	SubmitterName string
	Search        string
}

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error
	GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error)
	UpdateSubmissionCode(ctx context.Context, tx *sql.Tx, submissionID, code string) error

	// CreateExecutionResult persists the aggregate and its case results in one
	// shot; execution results are never updated afterwards.
	CreateExecutionResult(ctx context.Context, tx *sql.Tx, result *model.ExecutionResult) error
	GetExecutionResultByID(ctx context.Context, id string) (*model.ExecutionResult, error)
	SetLatestExecutionResult(ctx context.Context, tx *sql.Tx, submissionID, resultID string) error

	// MarkSubmitted writes the frozen problem fields and submitted_at.
	MarkSubmitted(ctx context.Context, tx *sql.Tx, sub *model.Submission) error
	CreateTestCaseSnapshots(ctx context.Context, tx *sql.Tx, snapshots []model.SubmissionTestCaseSnapshot) error
	GetTestCaseSnapshots(ctx context.Context, submissionID string) ([]model.SubmissionTestCaseSnapshot, error)

	UpsertReview(ctx context.Context, tx *sql.Tx, review *model.Review) error
	GetReviewBySubmissionID(ctx context.Context, submissionID string) (*model.Review, error)
	// SetReviewDecision transitions a pending review to approved/rejected.
	// A review that is missing or no longer pending reports false.
	SetReviewDecision(ctx context.Context, tx *sql.Tx, submissionID string, status model.ReviewStatus, feedback *string) (bool, error)

	// ListSubmissions returns submitted records only, most recent first.
	ListSubmissions(ctx context.Context, filter SubmissionListFilter) ([]model.Submission, error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

func (r *pgSubmissionRepository) exec(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) (sql.Result, error) {
	if tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	return r.db.ExecContext(ctx, query, args...)
}

const submissionColumns = `id, problem_id, submitter_name, code, latest_execution_result_id,
       problem_title_snapshot, problem_description_snapshot, example_input_snapshot,
       example_output_snapshot, submitted_at, created_at, updated_at`

func scanSubmission(row interface{ Scan(...interface{}) error }, sub *model.Submission) error {
	return row.Scan(
		&sub.ID, &sub.ProblemID, &sub.SubmitterName, &sub.Code, &sub.LatestExecutionResultID,
		&sub.ProblemTitleSnapshot, &sub.ProblemDescriptionSnapshot, &sub.ExampleInputSnapshot,
		&sub.ExampleOutputSnapshot, &sub.SubmittedAt, &sub.CreatedAt, &sub.UpdatedAt,
	)
}

func (r *pgSubmissionRepository) CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error {
	query := `INSERT INTO submissions (id, problem_id, submitter_name, code)
	          VALUES ($1, $2, $3, $4)`
	_, err := r.exec(ctx, tx, query, sub.ID, sub.ProblemID, sub.SubmitterName, sub.Code)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.CreateSubmission: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	sub := &model.Submission{}
	err := scanSubmission(r.db.QueryRowContext(ctx, query, id), sub)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionByID: %w", err)
	}
	return sub, nil
}

func (r *pgSubmissionRepository) UpdateSubmissionCode(ctx context.Context, tx *sql.Tx, submissionID, code string) error {
	query := `UPDATE submissions SET code = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	res, err := r.exec(ctx, tx, query, code, submissionID)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.UpdateSubmissionCode: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgSubmissionRepository) CreateExecutionResult(ctx context.Context, tx *sql.Tx, result *model.ExecutionResult) error {
	query := `INSERT INTO execution_results (id, submission_id, status, passed_count, failed_count, stdout, stderr, runtime_ms)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.exec(ctx, tx, query, result.ID, result.SubmissionID, result.Status,
		result.PassedCount, result.FailedCount, result.Stdout, result.Stderr, result.RuntimeMs)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.CreateExecutionResult: %w", err)
	}

	caseQuery := `INSERT INTO execution_case_results
	          (id, execution_result_id, test_case_id, is_hidden, passed, actual_output, stdout, stderr, error, runtime_ms)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for _, cr := range result.CaseResults {
		_, err := r.exec(ctx, tx, caseQuery, cr.ID, result.ID, cr.TestCaseID, cr.IsHidden,
			cr.Passed, cr.ActualOutput, cr.Stdout, cr.Stderr, cr.Error, cr.RuntimeMs)
		if err != nil {
			return fmt.Errorf("pgSubmissionRepository.CreateExecutionResult case %s: %w", cr.TestCaseID, err)
		}
	}
	return nil
}

func (r *pgSubmissionRepository) GetExecutionResultByID(ctx context.Context, id string) (*model.ExecutionResult, error) {
	query := `SELECT id, submission_id, status, passed_count, failed_count, stdout, stderr, runtime_ms, created_at
	          FROM execution_results WHERE id = $1`
	result := &model.ExecutionResult{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&result.ID, &result.SubmissionID, &result.Status, &result.PassedCount,
		&result.FailedCount, &result.Stdout, &result.Stderr, &result.RuntimeMs, &result.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.GetExecutionResultByID: %w", err)
	}

	caseQuery := `SELECT id, execution_result_id, test_case_id, is_hidden, passed, actual_output, stdout, stderr, error, runtime_ms
	          FROM execution_case_results WHERE execution_result_id = $1 ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, caseQuery, id)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.GetExecutionResultByID cases: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cr model.ExecutionCaseResult
		if err := rows.Scan(&cr.ID, &cr.ExecutionResultID, &cr.TestCaseID, &cr.IsHidden,
			&cr.Passed, &cr.ActualOutput, &cr.Stdout, &cr.Stderr, &cr.Error, &cr.RuntimeMs); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.GetExecutionResultByID case scan: %w", err)
		}
		result.CaseResults = append(result.CaseResults, cr)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.GetExecutionResultByID rows.Err: %w", err)
	}
	return result, nil
}

func (r *pgSubmissionRepository) SetLatestExecutionResult(ctx context.Context, tx *sql.Tx, submissionID, resultID string) error {
	query := `UPDATE submissions SET latest_execution_result_id = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	res, err := r.exec(ctx, tx, query, resultID, submissionID)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.SetLatestExecutionResult: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgSubmissionRepository) MarkSubmitted(ctx context.Context, tx *sql.Tx, sub *model.Submission) error {
	query := `UPDATE submissions SET
                problem_title_snapshot = $1, problem_description_snapshot = $2,
                example_input_snapshot = $3, example_output_snapshot = $4,
                submitted_at = $5, updated_at = CURRENT_TIMESTAMP
              WHERE id = $6 AND submitted_at IS NULL`
	res, err := r.exec(ctx, tx, query, sub.ProblemTitleSnapshot, sub.ProblemDescriptionSnapshot,
		sub.ExampleInputSnapshot, sub.ExampleOutputSnapshot, sub.SubmittedAt, sub.ID)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.MarkSubmitted: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		// Already submitted, or gone.
		return common.ErrConflict
	}
	return nil
}

func (r *pgSubmissionRepository) CreateTestCaseSnapshots(ctx context.Context, tx *sql.Tx, snapshots []model.SubmissionTestCaseSnapshot) error {
	query := `INSERT INTO submission_test_case_snapshots (id, submission_id, input_data, expected_output, is_hidden, sort_order)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	for _, snap := range snapshots {
		_, err := r.exec(ctx, tx, query, snap.ID, snap.SubmissionID, snap.InputData,
			snap.ExpectedOutput, snap.IsHidden, snap.SortOrder)
		if err != nil {
			return fmt.Errorf("pgSubmissionRepository.CreateTestCaseSnapshots: %w", err)
		}
	}
	return nil
}

func (r *pgSubmissionRepository) GetTestCaseSnapshots(ctx context.Context, submissionID string) ([]model.SubmissionTestCaseSnapshot, error) {
	query := `SELECT id, submission_id, input_data, expected_output, is_hidden, sort_order, created_at
	          FROM submission_test_case_snapshots WHERE submission_id = $1 ORDER BY sort_order ASC`
	rows, err := r.db.QueryContext(ctx, query, submissionID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.GetTestCaseSnapshots query: %w", err)
	}
	defer rows.Close()

	var snapshots []model.SubmissionTestCaseSnapshot
	for rows.Next() {
		var snap model.SubmissionTestCaseSnapshot
		if err := rows.Scan(&snap.ID, &snap.SubmissionID, &snap.InputData, &snap.ExpectedOutput,
			&snap.IsHidden, &snap.SortOrder, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.GetTestCaseSnapshots scan: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.GetTestCaseSnapshots rows.Err: %w", err)
	}
	return snapshots, nil
}

func (r *pgSubmissionRepository) UpsertReview(ctx context.Context, tx *sql.Tx, review *model.Review) error {
	query := `INSERT INTO reviews (id, submission_id, status, notes, feedback)
	          VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (submission_id) DO UPDATE SET
	            status = EXCLUDED.status, notes = EXCLUDED.notes, updated_at = CURRENT_TIMESTAMP`
	_, err := r.exec(ctx, tx, query, review.ID, review.SubmissionID, review.Status, review.Notes, review.Feedback)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.UpsertReview: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) GetReviewBySubmissionID(ctx context.Context, submissionID string) (*model.Review, error) {
	query := `SELECT id, submission_id, status, notes, feedback, created_at, updated_at
	          FROM reviews WHERE submission_id = $1`
	review := &model.Review{}
	err := r.db.QueryRowContext(ctx, query, submissionID).Scan(
		&review.ID, &review.SubmissionID, &review.Status, &review.Notes,
		&review.Feedback, &review.CreatedAt, &review.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.GetReviewBySubmissionID: %w", err)
	}
	return review, nil
}

func (r *pgSubmissionRepository) SetReviewDecision(ctx context.Context, tx *sql.Tx, submissionID string, status model.ReviewStatus, feedback *string) (bool, error) {
	// Conditional write: only a pending review may be decided, so the loser
	// of a race observes zero rows and reports a conflict.
	query := `UPDATE reviews SET status = $1, feedback = $2, updated_at = CURRENT_TIMESTAMP
	          WHERE submission_id = $3 AND status = $4`
	res, err := r.exec(ctx, tx, query, status, feedback, submissionID, model.ReviewPending)
	if err != nil {
		return false, fmt.Errorf("pgSubmissionRepository.SetReviewDecision: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows == 1, nil
}

func (r *pgSubmissionRepository) ListSubmissions(ctx context.Context, filter SubmissionListFilter) ([]model.Submission, error) {
	var query strings.Builder
	query.WriteString(`SELECT s.id, s.problem_id, s.submitter_name, s.code, s.latest_execution_result_id,
       s.problem_title_snapshot, s.problem_description_snapshot, s.example_input_snapshot,
       s.example_output_snapshot, s.submitted_at, s.created_at, s.updated_at
       FROM submissions s`)

	conditions := []string{"s.submitted_at IS NOT NULL"}
	var args []interface{}
	argID := 1

	if filter.Status != "" {
		query.WriteString(" JOIN reviews rv ON rv.submission_id = s.id")
		conditions = append(conditions, fmt.Sprintf("rv.status = $%d", argID))
		args = append(args, filter.Status)
		argID++
	}
	if filter.ProblemID != "" {
		conditions = append(conditions, fmt.Sprintf("s.problem_id = $%d", argID))
		args = append(args, filter.ProblemID)
		argID++
	}
	if filter.SubmitterName != "" {
		conditions = append(conditions, fmt.Sprintf("s.submitter_name = $%d", argID))
		args = append(args, filter.SubmitterName)
		argID++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(s.submitter_name ILIKE $%d OR s.problem_title_snapshot ILIKE $%d)", argID, argID+1))
		like := "%" + filter.Search + "%"
		args = append(args, like, like)
		argID += 2
	}

	query.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	query.WriteString(" ORDER BY s.submitted_at DESC")

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListSubmissions query: %w", err)
	}
	defer rows.Close()

	submissions := []model.Submission{}
	for rows.Next() {
		var sub model.Submission
		if err := scanSubmission(rows, &sub); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListSubmissions scan: %w", err)
		}
		submissions = append(submissions, sub)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListSubmissions rows.Err: %w", err)
	}
	return submissions, nil
}
