package sandbox

import (
	"errors"
	"regexp"
	"strings"
)

// ErrEmptyCode is returned before any execution when the submitted code is
// blank. Callers surface it as a validation failure, not a verdict.
var ErrEmptyCode = errors.New("solution code cannot be empty")

// Violation marks code rejected by the static guardrail check. It becomes a
// failed verdict on every test case; no process is ever spawned for it.
type Violation struct {
	Pattern string
}

func (v *Violation) Error() string {
	return "banned operation: use of restricted modules or patterns is not allowed"
}

// CodeGuard is the pluggable pre-execution check. Implementations may swap
// pattern matching for real static analysis without touching the runner.
type CodeGuard interface {
	Check(code string) error
}

var bannedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\s*import\s+os\b`),
	regexp.MustCompile(`(?m)^\s*from\s+os\b`),
	regexp.MustCompile(`(?m)^\s*import\s+subprocess\b`),
	regexp.MustCompile(`(?m)^\s*from\s+subprocess\b`),
	regexp.MustCompile(`__import__`),
}

// RegexGuard rejects imports of process/OS-control facilities and the
// dynamic-import primitive. Known-weak, kept behind the CodeGuard interface.
type RegexGuard struct {
	patterns []*regexp.Regexp
}

func NewRegexGuard() *RegexGuard {
	return &RegexGuard{patterns: bannedPatterns}
}

func (g *RegexGuard) Check(code string) error {
	stripped := strings.TrimSpace(code)
	if stripped == "" {
		return ErrEmptyCode
	}
	for _, pattern := range g.patterns {
		if pattern.MatchString(stripped) {
			return &Violation{Pattern: pattern.String()}
		}
	}
	return nil
}
