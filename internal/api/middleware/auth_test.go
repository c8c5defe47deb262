package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"aqcode/internal/common/security"
)

func reviewerFlagProbe(t *testing.T, got *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = IsReviewerFromContext(r.Context())
	})
}

func TestReviewerContextSetsFlag(t *testing.T) {
	gate := security.NewStaticTokenGate("")

	cases := []struct {
		name   string
		header string
		want   bool
	}{
		{"no header", "", false},
		{"bearer token", "Bearer secret", true},
		{"lowercase scheme", "bearer secret", true},
		{"wrong scheme", "Basic secret", false},
		{"scheme only", "Bearer", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got bool
			handler := ReviewerContext(gate)(reviewerFlagProbe(t, &got))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if got != tc.want {
				t.Errorf("reviewer flag = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRequireReviewerForbidsNonReviewers(t *testing.T) {
	gate := security.NewStaticTokenGate("")
	var reached bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { reached = true })
	handler := ReviewerContext(gate)(RequireReviewer(inner))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if reached {
		t.Error("inner handler must not run without reviewer access")
	}
}

func TestRequireReviewerAllowsReviewers(t *testing.T) {
	gate := security.NewStaticTokenGate("")
	var reached bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { reached = true })
	handler := ReviewerContext(gate)(RequireReviewer(inner))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer secret")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !reached {
		t.Error("reviewer must reach the inner handler")
	}
}
