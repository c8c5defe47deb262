package api

import (
	"net/http"
	"time"

	"aqcode/internal/api/handler"
	"aqcode/internal/api/middleware"
	"aqcode/internal/app/service"
	"aqcode/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(
	problemService *service.ProblemService,
	executionService *service.ExecutionService,
	submissionService *service.SubmissionService,
	reviewService *service.ReviewService,
	gate security.ReviewerGate,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Reviewer status is resolved once per request and drives redaction.
	r.Use(middleware.ReviewerContext(gate))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(v1 chi.Router) {
		executionHandler := handler.NewExecutionHandler(executionService)
		executionHandler.RegisterRoutes(v1)

		problemHandler := handler.NewProblemHandler(problemService)
		v1.Route("/problems", problemHandler.RegisterRoutes)

		submissionHandler := handler.NewSubmissionHandler(executionService, submissionService, reviewService)
		v1.Route("/submissions", submissionHandler.RegisterRoutes)
	})

	return r
}
