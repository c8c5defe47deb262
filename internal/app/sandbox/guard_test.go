package sandbox

import (
	"errors"
	"testing"
)

func TestRegexGuardAllowsPlainCode(t *testing.T) {
	guard := NewRegexGuard()
	code := "import math\nprint(math.sqrt(16))"
	if err := guard.Check(code); err != nil {
		t.Fatalf("expected clean code to pass, got %v", err)
	}
}

func TestRegexGuardRejectsEmptyCode(t *testing.T) {
	guard := NewRegexGuard()
	for _, code := range []string{"", "   ", "\n\t\n"} {
		if err := guard.Check(code); !errors.Is(err, ErrEmptyCode) {
			t.Errorf("Check(%q) = %v, want ErrEmptyCode", code, err)
		}
	}
}

func TestRegexGuardRejectsBannedImports(t *testing.T) {
	guard := NewRegexGuard()
	cases := []string{
		"import os\nprint(os.getcwd())",
		"from os import path",
		"import subprocess",
		"from subprocess import run",
		"  import os",
		"x = __import__('os')",
		"print(1)\nimport os",
	}
	for _, code := range cases {
		err := guard.Check(code)
		var violation *Violation
		if !errors.As(err, &violation) {
			t.Errorf("Check(%q) = %v, want Violation", code, err)
		}
	}
}

func TestRegexGuardIgnoresLookalikes(t *testing.T) {
	guard := NewRegexGuard()
	cases := []string{
		"import ossify",
		"from osmosis import diffuse",
		"subprocess = 1",
		"# comment mentioning modules by name only",
	}
	for _, code := range cases {
		if err := guard.Check(code); err != nil {
			t.Errorf("Check(%q) = %v, want nil", code, err)
		}
	}
}

func TestViolationMessageRevealsNoPattern(t *testing.T) {
	v := &Violation{Pattern: `(?m)^\s*import\s+os\b`}
	msg := v.Error()
	if msg != "banned operation: use of restricted modules or patterns is not allowed" {
		t.Fatalf("unexpected violation message %q", msg)
	}
}
