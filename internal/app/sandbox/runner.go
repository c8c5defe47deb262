// Package sandbox executes untrusted solution code, one isolated process per
// test case, under static guardrails and hard resource limits.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// ErrFatal marks failures of the isolation mechanism itself (cannot create
// the workspace, cannot start the interpreter). These abort the whole request
// and are distinct from a failed verdict.
var ErrFatal = errors.New("sandbox failure")

// ErrNoCases is returned when a run is requested with nothing to run against.
var ErrNoCases = errors.New("no test cases to execute")

// TestCase is the runner's view of one case: input fed on stdin, expected
// output compared against trimmed stdout.
type TestCase struct {
	ID             string
	InputData      string
	ExpectedOutput string
	IsHidden       bool
}

// CaseResult is the structured per-case outcome.
type CaseResult struct {
	TestCaseID   string
	IsHidden     bool
	Passed       bool
	ActualOutput *string
	Stdout       string
	Stderr       string
	Error        *string
	RuntimeMs    int
}

// Runner runs one code unit against a set of test cases.
type Runner interface {
	Run(ctx context.Context, code string, cases []TestCase) ([]CaseResult, error)
}

// Config carries the validated sandbox limits.
type Config struct {
	PythonExecutable string
	Timeout          time.Duration
	OutputLimit      int
	RecursionLimit   int
}

// ProcessRunner isolates each test case in a fresh python process. The
// submitted source is written once per run with a recursion ceiling injected
// ahead of it, so pathological recursion fails inside the interpreter instead
// of exhausting the host.
type ProcessRunner struct {
	cfg    Config
	guard  CodeGuard
	logger *zap.Logger
}

func NewProcessRunner(cfg Config, guard CodeGuard, logger *zap.Logger) *ProcessRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessRunner{cfg: cfg, guard: guard, logger: logger}
}

func (r *ProcessRunner) Run(ctx context.Context, code string, cases []TestCase) ([]CaseResult, error) {
	if err := r.guard.Check(code); err != nil {
		var violation *Violation
		if errors.As(err, &violation) {
			r.logger.Warn("guardrail violation, skipping execution",
				zap.String("pattern", violation.Pattern))
			return r.rejectAll(cases, violation), nil
		}
		return nil, err
	}
	if len(cases) == 0 {
		return nil, ErrNoCases
	}

	workDir, err := os.MkdirTemp("", "aqcode-run-*")
	if err != nil {
		return nil, fmt.Errorf("create sandbox workspace: %v: %w", err, ErrFatal)
	}
	defer os.RemoveAll(workDir)

	guardPrefix := fmt.Sprintf("import sys\nsys.setrecursionlimit(%d)\n", r.cfg.RecursionLimit)
	solutionPath := filepath.Join(workDir, "solution.py")
	source := guardPrefix + strings.TrimSpace(code)
	if err := os.WriteFile(solutionPath, []byte(source), 0o600); err != nil {
		return nil, fmt.Errorf("write solution file: %v: %w", err, ErrFatal)
	}

	results := make([]CaseResult, 0, len(cases))
	for _, tc := range cases {
		res, err := r.runCase(ctx, solutionPath, tc)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// rejectAll turns a guardrail violation into a failed verdict per case.
func (r *ProcessRunner) rejectAll(cases []TestCase, violation *Violation) []CaseResult {
	msg := violation.Error()
	results := make([]CaseResult, 0, len(cases))
	for _, tc := range cases {
		results = append(results, CaseResult{
			TestCaseID: tc.ID,
			IsHidden:   tc.IsHidden,
			Passed:     false,
			Error:      &msg,
		})
	}
	return results
}

func (r *ProcessRunner) runCase(ctx context.Context, solutionPath string, tc TestCase) (CaseResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, r.cfg.PythonExecutable, solutionPath)
	cmd.Stdin = strings.NewReader(tc.InputData)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	runtimeMs := int(time.Since(start).Milliseconds())

	if runCtx.Err() == context.DeadlineExceeded {
		msg := fmt.Sprintf("timeout after %s", r.cfg.Timeout)
		return CaseResult{
			TestCaseID: tc.ID,
			IsHidden:   tc.IsHidden,
			Passed:     false,
			Error:      &msg,
			RuntimeMs:  runtimeMs,
		}, nil
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			// Could not spawn or kill the process at all.
			return CaseResult{}, fmt.Errorf("run %s: %v: %w", r.cfg.PythonExecutable, runErr, ErrFatal)
		}
	}

	// Captured streams are capped to bound memory and storage. Truncation is
	// not itself a failure; the truncated output still goes into comparison.
	outStr := truncate(stdout.String(), r.cfg.OutputLimit)
	errStr := truncate(stderr.String(), r.cfg.OutputLimit)

	actual := strings.TrimSpace(outStr)
	expected := strings.TrimSpace(tc.ExpectedOutput)
	// Stderr content or a non-zero exit does not fail a case whose stdout
	// matches; both are still recorded for diagnostics.
	passed := actual == expected

	result := CaseResult{
		TestCaseID:   tc.ID,
		IsHidden:     tc.IsHidden,
		Passed:       passed,
		ActualOutput: &actual,
		Stdout:       outStr,
		Stderr:       errStr,
		RuntimeMs:    runtimeMs,
	}
	if !passed {
		msg := strings.TrimSpace(errStr)
		if msg == "" {
			msg = "output mismatch"
		}
		result.Error = &msg
	}
	return result, nil
}

// truncate caps s at limit bytes without splitting a multi-byte rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
