package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"aqcode/internal/common"
	"aqcode/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type ProblemRepository interface {
	CreateProblem(ctx context.Context, tx *sql.Tx, problem *model.Problem) error
	UpdateProblem(ctx context.Context, tx *sql.Tx, problem *model.Problem) error
	DeleteProblem(ctx context.Context, tx *sql.Tx, id string) error
	FindProblemByID(ctx context.Context, id string) (*model.Problem, error)
	ListProblems(ctx context.Context) ([]model.Problem, error)

	AddTestCase(ctx context.Context, tx *sql.Tx, testCase *model.TestCase) error
	UpdateTestCase(ctx context.Context, tx *sql.Tx, testCase *model.TestCase) error
	DeleteTestCase(ctx context.Context, tx *sql.Tx, id string) error
	FindTestCaseByID(ctx context.Context, id string) (*model.TestCase, error)
	// GetTestCasesByProblemID must return a stable order; the runner and the
	// snapshot both depend on it.
	GetTestCasesByProblemID(ctx context.Context, problemID string) ([]model.TestCase, error)
	ReplaceTestCases(ctx context.Context, tx *sql.Tx, problemID string, testCases []model.TestCase) error
}

type pgProblemRepository struct {
	db *sql.DB
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

func (r *pgProblemRepository) exec(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) (sql.Result, error) {
	if tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	return r.db.ExecContext(ctx, query, args...)
}

func (r *pgProblemRepository) CreateProblem(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	query := `INSERT INTO problems (id, title, slug, description, example_input, example_output)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.exec(ctx, tx, query, p.ID, p.Title, p.Slug, p.Description, p.ExampleInput, p.ExampleOutput)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint for slug
			return fmt.Errorf("problem with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgProblemRepository.CreateProblem: %w", err)
	}
	for i := range p.TestCases {
		p.TestCases[i].ProblemID = p.ID
		p.TestCases[i].SortOrder = i + 1
		if err := r.AddTestCase(ctx, tx, &p.TestCases[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *pgProblemRepository) UpdateProblem(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	query := `UPDATE problems SET
                title = $1, slug = $2, description = $3, example_input = $4,
                example_output = $5, updated_at = CURRENT_TIMESTAMP
              WHERE id = $6`
	res, err := r.exec(ctx, tx, query, p.Title, p.Slug, p.Description, p.ExampleInput, p.ExampleOutput, p.ID)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.UpdateProblem: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgProblemRepository) DeleteProblem(ctx context.Context, tx *sql.Tx, id string) error {
	// Test cases go with it via ON DELETE CASCADE.
	res, err := r.exec(ctx, tx, `DELETE FROM problems WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.DeleteProblem: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgProblemRepository) FindProblemByID(ctx context.Context, id string) (*model.Problem, error) {
	query := `SELECT id, title, slug, description, example_input, example_output, created_at, updated_at
	          FROM problems WHERE id = $1`
	problem := &model.Problem{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&problem.ID, &problem.Title, &problem.Slug, &problem.Description,
		&problem.ExampleInput, &problem.ExampleOutput, &problem.CreatedAt, &problem.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.FindProblemByID: %w", err)
	}
	return problem, nil
}

func (r *pgProblemRepository) ListProblems(ctx context.Context) ([]model.Problem, error) {
	query := `SELECT id, title, slug, description, example_input, example_output, created_at, updated_at
	          FROM problems ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.ListProblems query: %w", err)
	}
	defer rows.Close()

	problems := []model.Problem{}
	for rows.Next() {
		var p model.Problem
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Description,
			&p.ExampleInput, &p.ExampleOutput, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.ListProblems scan: %w", err)
		}
		problems = append(problems, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.ListProblems rows.Err: %w", err)
	}
	return problems, nil
}

func (r *pgProblemRepository) AddTestCase(ctx context.Context, tx *sql.Tx, tc *model.TestCase) error {
	query := `INSERT INTO test_cases (id, problem_id, input_data, expected_output, is_hidden, sort_order)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.exec(ctx, tx, query, tc.ID, tc.ProblemID, tc.InputData, tc.ExpectedOutput, tc.IsHidden, tc.SortOrder)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.AddTestCase: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) UpdateTestCase(ctx context.Context, tx *sql.Tx, tc *model.TestCase) error {
	query := `UPDATE test_cases SET
                input_data = $1, expected_output = $2, is_hidden = $3, updated_at = CURRENT_TIMESTAMP
              WHERE id = $4`
	res, err := r.exec(ctx, tx, query, tc.InputData, tc.ExpectedOutput, tc.IsHidden, tc.ID)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.UpdateTestCase: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgProblemRepository) DeleteTestCase(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := r.exec(ctx, tx, `DELETE FROM test_cases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.DeleteTestCase: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgProblemRepository) FindTestCaseByID(ctx context.Context, id string) (*model.TestCase, error) {
	query := `SELECT id, problem_id, input_data, expected_output, is_hidden, sort_order, created_at, updated_at
	          FROM test_cases WHERE id = $1`
	tc := &model.TestCase{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&tc.ID, &tc.ProblemID, &tc.InputData, &tc.ExpectedOutput, &tc.IsHidden,
		&tc.SortOrder, &tc.CreatedAt, &tc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.FindTestCaseByID: %w", err)
	}
	return tc, nil
}

func (r *pgProblemRepository) GetTestCasesByProblemID(ctx context.Context, problemID string) ([]model.TestCase, error) {
	query := `SELECT id, problem_id, input_data, expected_output, is_hidden, sort_order, created_at, updated_at
	          FROM test_cases WHERE problem_id = $1 ORDER BY sort_order ASC, created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, problemID)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.GetTestCasesByProblemID query: %w", err)
	}
	defer rows.Close()

	var testCases []model.TestCase
	for rows.Next() {
		var tc model.TestCase
		if err := rows.Scan(&tc.ID, &tc.ProblemID, &tc.InputData, &tc.ExpectedOutput,
			&tc.IsHidden, &tc.SortOrder, &tc.CreatedAt, &tc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.GetTestCasesByProblemID scan: %w", err)
		}
		testCases = append(testCases, tc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.GetTestCasesByProblemID rows.Err: %w", err)
	}
	return testCases, nil
}

func (r *pgProblemRepository) ReplaceTestCases(ctx context.Context, tx *sql.Tx, problemID string, testCases []model.TestCase) error {
	if _, err := r.exec(ctx, tx, `DELETE FROM test_cases WHERE problem_id = $1`, problemID); err != nil {
		return fmt.Errorf("pgProblemRepository.ReplaceTestCases delete: %w", err)
	}
	for i := range testCases {
		testCases[i].ProblemID = problemID
		testCases[i].SortOrder = i + 1
		if err := r.AddTestCase(ctx, tx, &testCases[i]); err != nil {
			return err
		}
	}
	return nil
}
