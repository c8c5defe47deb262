package security

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestStaticTokenGateWithoutHash(t *testing.T) {
	gate := NewStaticTokenGate("")
	if gate.IsReviewer("") {
		t.Error("empty token must never pass")
	}
	if !gate.IsReviewer("anything") {
		t.Error("any non-empty token passes when no hash is configured")
	}
}

func TestStaticTokenGateWithHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("reviewer-secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	gate := NewStaticTokenGate(string(hash))

	if !gate.IsReviewer("reviewer-secret") {
		t.Error("matching token must pass")
	}
	if gate.IsReviewer("wrong-secret") {
		t.Error("non-matching token must fail")
	}
	if gate.IsReviewer("") {
		t.Error("empty token must fail")
	}
}

func TestJWTGate(t *testing.T) {
	InitJWT([]byte("test-signing-key"))
	gate := NewJWTGate()

	token, err := GenerateReviewerToken("reviewer-1", time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if !gate.IsReviewer(token) {
		t.Error("valid reviewer token must pass")
	}
	if gate.IsReviewer("not-a-jwt") {
		t.Error("garbage token must fail")
	}
	if gate.IsReviewer("") {
		t.Error("empty token must fail")
	}
}

func TestJWTGateRejectsExpiredToken(t *testing.T) {
	InitJWT([]byte("test-signing-key"))
	gate := NewJWTGate()

	token, err := GenerateReviewerToken("reviewer-1", -time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if gate.IsReviewer(token) {
		t.Error("expired token must fail")
	}
}
