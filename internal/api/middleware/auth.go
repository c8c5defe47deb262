package middleware

import (
	"context"
	"net/http"
	"strings"

	"aqcode/internal/common"
	"aqcode/internal/common/security"
)

type contextKey string

const ReviewerCtxKey contextKey = "isReviewer"

// ReviewerContext resolves the bearer token against the gate and records the
// outcome in the request context. Missing or bad tokens are not an error here;
// the caller simply sees the redacted view.
func ReviewerContext(gate security.ReviewerGate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			ctx := context.WithValue(r.Context(), ReviewerCtxKey, gate.IsReviewer(token))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireReviewer guards the endpoints that mutate review state.
func RequireReviewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsReviewerFromContext(r.Context()) {
			common.RespondWithError(w, http.StatusForbidden, "Reviewer access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func IsReviewerFromContext(ctx context.Context) bool {
	reviewer, ok := ctx.Value(ReviewerCtxKey).(bool)
	return ok && reviewer
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
