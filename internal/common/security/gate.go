// Package security holds the reviewer authorization capability. The check is
// injected behind an interface so real credential verification can replace
// the placeholder without touching the review transition logic.
package security

import (
	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/crypto/bcrypt"
)

// ReviewerGate decides whether a presented token authorizes reviewer actions
// (approve/reject, unredacted hidden-case content).
type ReviewerGate interface {
	IsReviewer(token string) bool
}

// StaticTokenGate is the placeholder gate: any non-empty token passes. When a
// bcrypt hash is configured, the token must additionally match it.
type StaticTokenGate struct {
	tokenHash string
}

func NewStaticTokenGate(tokenHash string) *StaticTokenGate {
	return &StaticTokenGate{tokenHash: tokenHash}
}

func (g *StaticTokenGate) IsReviewer(token string) bool {
	if token == "" {
		return false
	}
	if g.tokenHash == "" {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(g.tokenHash), []byte(token)) == nil
}

// JWTGate verifies a signed token carrying role=reviewer. Requires InitJWT.
type JWTGate struct{}

func NewJWTGate() *JWTGate {
	return &JWTGate{}
}

func (g *JWTGate) IsReviewer(token string) bool {
	if token == "" || TokenAuth == nil {
		return false
	}
	decoded, err := jwtauth.VerifyToken(TokenAuth, token)
	if err != nil {
		return false
	}
	role, ok := decoded.Get("role")
	if !ok {
		return false
	}
	roleStr, ok := role.(string)
	return ok && roleStr == "reviewer"
}
