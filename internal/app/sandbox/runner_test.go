package sandbox

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		PythonExecutable: "python3",
		Timeout:          3 * time.Second,
		OutputLimit:      10000,
		RecursionLimit:   1000,
	}
}

func requirePython(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}
}

func TestRunPassesMatchingOutput(t *testing.T) {
	requirePython(t)
	runner := NewProcessRunner(testConfig(), NewRegexGuard(), nil)

	code := "n = int(input())\nprint(n * 2)"
	cases := []TestCase{
		{ID: "c1", InputData: "21\n", ExpectedOutput: "42"},
		{ID: "c2", InputData: "5\n", ExpectedOutput: "10\n"},
	}

	results, err := runner.Run(context.Background(), code, cases)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for i, res := range results {
		if !res.Passed {
			t.Errorf("case %d: passed = false, error = %v", i, deref(res.Error))
		}
		if res.Error != nil {
			t.Errorf("case %d: unexpected error %q", i, *res.Error)
		}
	}
}

func TestRunFailsOnOutputMismatch(t *testing.T) {
	requirePython(t)
	runner := NewProcessRunner(testConfig(), NewRegexGuard(), nil)

	results, err := runner.Run(context.Background(), "print('wrong')", []TestCase{
		{ID: "c1", InputData: "", ExpectedOutput: "right"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	res := results[0]
	if res.Passed {
		t.Fatal("expected failed verdict")
	}
	if deref(res.Error) != "output mismatch" {
		t.Errorf("error = %q, want \"output mismatch\"", deref(res.Error))
	}
	if deref(res.ActualOutput) != "wrong" {
		t.Errorf("actual = %q, want \"wrong\"", deref(res.ActualOutput))
	}
}

func TestRunMatchingOutputPassesDespiteStderr(t *testing.T) {
	requirePython(t)
	runner := NewProcessRunner(testConfig(), NewRegexGuard(), nil)

	code := "import sys\nprint('ok')\nprint('warning', file=sys.stderr)\nsys.exit(1)"
	results, err := runner.Run(context.Background(), code, []TestCase{
		{ID: "c1", ExpectedOutput: "ok"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	res := results[0]
	if !res.Passed {
		t.Errorf("matching stdout should pass regardless of exit code, error = %v", deref(res.Error))
	}
	if !strings.Contains(res.Stderr, "warning") {
		t.Errorf("stderr %q should still carry diagnostics", res.Stderr)
	}
}

func TestRunRuntimeErrorSurfacesStderr(t *testing.T) {
	requirePython(t)
	runner := NewProcessRunner(testConfig(), NewRegexGuard(), nil)

	results, err := runner.Run(context.Background(), "raise ValueError('boom')", []TestCase{
		{ID: "c1", ExpectedOutput: "anything"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	res := results[0]
	if res.Passed {
		t.Fatal("expected failed verdict")
	}
	if !strings.Contains(deref(res.Error), "ValueError") {
		t.Errorf("error = %q, want traceback text", deref(res.Error))
	}
}

func TestRunTimesOut(t *testing.T) {
	requirePython(t)
	cfg := testConfig()
	cfg.Timeout = 500 * time.Millisecond
	runner := NewProcessRunner(cfg, NewRegexGuard(), nil)

	results, err := runner.Run(context.Background(), "while True:\n    pass", []TestCase{
		{ID: "c1", ExpectedOutput: ""},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	res := results[0]
	if res.Passed {
		t.Fatal("expected timed-out case to fail")
	}
	if !strings.Contains(deref(res.Error), "timeout") {
		t.Errorf("error = %q, want the timeout token", deref(res.Error))
	}
}

func TestRunTruncatesOversizedOutput(t *testing.T) {
	requirePython(t)
	cfg := testConfig()
	cfg.OutputLimit = 100
	runner := NewProcessRunner(cfg, NewRegexGuard(), nil)

	results, err := runner.Run(context.Background(), "print('x' * 1000)", []TestCase{
		{ID: "c1", ExpectedOutput: ""},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	res := results[0]
	if len(res.Stdout) > cfg.OutputLimit {
		t.Errorf("stdout length %d exceeds limit %d after truncation", len(res.Stdout), cfg.OutputLimit)
	}
	// Truncation itself is not a failure; the verdict is still the comparison.
	if res.Passed {
		t.Error("truncated output does not match the expected output")
	}
	if deref(res.Error) != "output mismatch" {
		t.Errorf("error = %q, want \"output mismatch\"", deref(res.Error))
	}
}

func TestRunTruncatedOutputCanStillPass(t *testing.T) {
	requirePython(t)
	cfg := testConfig()
	cfg.OutputLimit = 5
	runner := NewProcessRunner(cfg, NewRegexGuard(), nil)

	results, err := runner.Run(context.Background(), "print('abcdefghij')", []TestCase{
		{ID: "c1", ExpectedOutput: "abcde"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !results[0].Passed {
		t.Errorf("trimmed truncated output matches expected, error = %v", deref(results[0].Error))
	}
}

func TestRunRecursionLimitApplies(t *testing.T) {
	requirePython(t)
	cfg := testConfig()
	cfg.RecursionLimit = 50
	runner := NewProcessRunner(cfg, NewRegexGuard(), nil)

	code := "def f(n):\n    return f(n + 1)\nf(0)\nprint('done')"
	results, err := runner.Run(context.Background(), code, []TestCase{
		{ID: "c1", ExpectedOutput: "done"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if results[0].Passed {
		t.Fatal("expected recursion blowup to fail")
	}
	if !strings.Contains(deref(results[0].Error), "RecursionError") {
		t.Errorf("error = %q, want RecursionError", deref(results[0].Error))
	}
}

func TestRunGuardViolationFailsEveryCaseWithoutSpawning(t *testing.T) {
	runner := NewProcessRunner(testConfig(), NewRegexGuard(), nil)

	cases := []TestCase{
		{ID: "c1", ExpectedOutput: "1", IsHidden: false},
		{ID: "c2", ExpectedOutput: "2", IsHidden: true},
	}
	results, err := runner.Run(context.Background(), "import os\nprint(os.getcwd())", cases)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != len(cases) {
		t.Fatalf("got %d results, want %d", len(results), len(cases))
	}
	for i, res := range results {
		if res.Passed {
			t.Errorf("case %d: guard violation must fail", i)
		}
		if !strings.Contains(deref(res.Error), "banned operation") {
			t.Errorf("case %d: error = %q", i, deref(res.Error))
		}
		if res.IsHidden != cases[i].IsHidden {
			t.Errorf("case %d: hidden flag lost", i)
		}
	}
}

func TestRunEmptyCodeIsError(t *testing.T) {
	runner := NewProcessRunner(testConfig(), NewRegexGuard(), nil)
	if _, err := runner.Run(context.Background(), "   ", []TestCase{{ID: "c1"}}); err == nil {
		t.Fatal("expected error for blank code")
	}
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	// "héllo" is h(1) é(2) l(1) l(1) o(1) bytes.
	s := "héllo"
	cases := []struct {
		limit int
		want  string
	}{
		{10, s},
		{6, s},
		{2, "h"}, // cutting at 2 would split é
		{3, "hé"},
		{1, "h"},
		{0, ""},
	}
	for _, tc := range cases {
		if got := truncate(s, tc.limit); got != tc.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", s, tc.limit, got, tc.want)
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
