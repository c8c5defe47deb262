package handler

import (
	"encoding/json"
	"net/http"

	"aqcode/internal/api/middleware"
	"aqcode/internal/app/service"
	"aqcode/internal/common"
	"aqcode/internal/domain/model"
	"aqcode/internal/domain/repository"

	"github.com/go-chi/chi/v5"
)

type SubmissionHandler struct {
	executionService  *service.ExecutionService
	submissionService *service.SubmissionService
	reviewService     *service.ReviewService
}

func NewSubmissionHandler(
	es *service.ExecutionService,
	ss *service.SubmissionService,
	rs *service.ReviewService,
) *SubmissionHandler {
	return &SubmissionHandler{
		executionService:  es,
		submissionService: ss,
		reviewService:     rs,
	}
}

func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listSubmissions)
	r.Get("/{submissionID}", h.getSubmission)
	r.Post("/{submissionID}/submit", h.submit)
	r.Post("/{submissionID}/rerun", h.rerun)

	r.Group(func(reviewerRouter chi.Router) {
		reviewerRouter.Use(middleware.RequireReviewer)
		reviewerRouter.Post("/{submissionID}/review", h.review)
	})
}

func (h *SubmissionHandler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	filter := repository.SubmissionListFilter{
		Status:        model.ReviewStatus(r.URL.Query().Get("status")),
		ProblemID:     r.URL.Query().Get("problem_id"),
		SubmitterName: r.URL.Query().Get("submitter_name"),
		Search:        r.URL.Query().Get("search"),
	}
	reviewer := middleware.IsReviewerFromContext(r.Context())

	submissions, err := h.reviewService.List(r.Context(), filter, reviewer)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, submissions)
}

func (h *SubmissionHandler) getSubmission(w http.ResponseWriter, r *http.Request) {
	reviewer := middleware.IsReviewerFromContext(r.Context())
	detail, err := h.reviewService.Detail(r.Context(), chi.URLParam(r, "submissionID"), reviewer)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, detail)
}

func (h *SubmissionHandler) submit(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
			return
		}
	}
	reviewer := middleware.IsReviewerFromContext(r.Context())

	summary, err := h.submissionService.Submit(r.Context(), chi.URLParam(r, "submissionID"), req, reviewer)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, summary)
}

func (h *SubmissionHandler) rerun(w http.ResponseWriter, r *http.Request) {
	var req service.RerunRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
			return
		}
	}
	reviewer := middleware.IsReviewerFromContext(r.Context())

	result, err := h.executionService.Rerun(r.Context(), chi.URLParam(r, "submissionID"), req, reviewer)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}

func (h *SubmissionHandler) review(w http.ResponseWriter, r *http.Request) {
	var req service.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	summary, err := h.reviewService.Review(r.Context(), chi.URLParam(r, "submissionID"), req, true)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, summary)
}
