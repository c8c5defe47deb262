package repository

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"aqcode/internal/common"
	"aqcode/internal/domain/model"
)

// memoryProblemRepository backs dev mode (no database configured) and the
// test suite. Same contract as the Postgres implementation; *sql.Tx arguments
// are accepted and ignored.
type memoryProblemRepository struct {
	mu        sync.RWMutex
	problems  map[string]model.Problem
	testCases map[string]model.TestCase
}

func NewMemoryProblemRepository() ProblemRepository {
	return &memoryProblemRepository{
		problems:  make(map[string]model.Problem),
		testCases: make(map[string]model.TestCase),
	}
}

func (r *memoryProblemRepository) CreateProblem(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.problems {
		if existing.Slug == p.Slug {
			return common.ErrConflict
		}
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	stored := *p
	stored.TestCases = nil
	r.problems[p.ID] = stored
	for i := range p.TestCases {
		p.TestCases[i].ProblemID = p.ID
		p.TestCases[i].SortOrder = i + 1
		p.TestCases[i].CreatedAt = now
		p.TestCases[i].UpdatedAt = now
		r.testCases[p.TestCases[i].ID] = p.TestCases[i]
	}
	return nil
}

func (r *memoryProblemRepository) UpdateProblem(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.problems[p.ID]
	if !ok {
		return common.ErrNotFound
	}
	existing.Title = p.Title
	existing.Slug = p.Slug
	existing.Description = p.Description
	existing.ExampleInput = p.ExampleInput
	existing.ExampleOutput = p.ExampleOutput
	existing.UpdatedAt = time.Now()
	r.problems[p.ID] = existing
	return nil
}

func (r *memoryProblemRepository) DeleteProblem(ctx context.Context, tx *sql.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.problems[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.problems, id)
	for tcID, tc := range r.testCases {
		if tc.ProblemID == id {
			delete(r.testCases, tcID)
		}
	}
	return nil
}

func (r *memoryProblemRepository) FindProblemByID(ctx context.Context, id string) (*model.Problem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.problems[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := p
	return &out, nil
}

func (r *memoryProblemRepository) ListProblems(ctx context.Context) ([]model.Problem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	problems := make([]model.Problem, 0, len(r.problems))
	for _, p := range r.problems {
		problems = append(problems, p)
	}
	sort.Slice(problems, func(i, j int) bool {
		return problems[i].CreatedAt.After(problems[j].CreatedAt)
	})
	return problems, nil
}

func (r *memoryProblemRepository) AddTestCase(ctx context.Context, tx *sql.Tx, tc *model.TestCase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.problems[tc.ProblemID]; !ok {
		return common.ErrNotFound
	}
	now := time.Now()
	tc.CreatedAt = now
	tc.UpdatedAt = now
	if tc.SortOrder == 0 {
		tc.SortOrder = r.nextSortOrderLocked(tc.ProblemID)
	}
	r.testCases[tc.ID] = *tc
	return nil
}

func (r *memoryProblemRepository) nextSortOrderLocked(problemID string) int {
	max := 0
	for _, tc := range r.testCases {
		if tc.ProblemID == problemID && tc.SortOrder > max {
			max = tc.SortOrder
		}
	}
	return max + 1
}

func (r *memoryProblemRepository) UpdateTestCase(ctx context.Context, tx *sql.Tx, tc *model.TestCase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.testCases[tc.ID]
	if !ok {
		return common.ErrNotFound
	}
	existing.InputData = tc.InputData
	existing.ExpectedOutput = tc.ExpectedOutput
	existing.IsHidden = tc.IsHidden
	existing.UpdatedAt = time.Now()
	r.testCases[tc.ID] = existing
	return nil
}

func (r *memoryProblemRepository) DeleteTestCase(ctx context.Context, tx *sql.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.testCases[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.testCases, id)
	return nil
}

func (r *memoryProblemRepository) FindTestCaseByID(ctx context.Context, id string) (*model.TestCase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tc, ok := r.testCases[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := tc
	return &out, nil
}

func (r *memoryProblemRepository) GetTestCasesByProblemID(ctx context.Context, problemID string) ([]model.TestCase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var testCases []model.TestCase
	for _, tc := range r.testCases {
		if tc.ProblemID == problemID {
			testCases = append(testCases, tc)
		}
	}
	sort.Slice(testCases, func(i, j int) bool {
		if testCases[i].SortOrder != testCases[j].SortOrder {
			return testCases[i].SortOrder < testCases[j].SortOrder
		}
		return testCases[i].CreatedAt.Before(testCases[j].CreatedAt)
	})
	return testCases, nil
}

func (r *memoryProblemRepository) ReplaceTestCases(ctx context.Context, tx *sql.Tx, problemID string, testCases []model.TestCase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.problems[problemID]; !ok {
		return common.ErrNotFound
	}
	for tcID, tc := range r.testCases {
		if tc.ProblemID == problemID {
			delete(r.testCases, tcID)
		}
	}
	now := time.Now()
	for i := range testCases {
		testCases[i].ProblemID = problemID
		testCases[i].SortOrder = i + 1
		testCases[i].CreatedAt = now
		testCases[i].UpdatedAt = now
		r.testCases[testCases[i].ID] = testCases[i]
	}
	return nil
}
