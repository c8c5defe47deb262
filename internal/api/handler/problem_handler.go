package handler

import (
	"encoding/json"
	"net/http"

	"aqcode/internal/api/middleware"
	"aqcode/internal/app/service"
	"aqcode/internal/common"

	"github.com/go-chi/chi/v5"
)

type ProblemHandler struct {
	problemService *service.ProblemService
}

func NewProblemHandler(ps *service.ProblemService) *ProblemHandler {
	return &ProblemHandler{problemService: ps}
}

func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listProblems)
	r.Post("/", h.createProblem)
	r.Get("/{problemID}", h.getProblem)
	r.Patch("/{problemID}", h.updateProblem)
	r.Delete("/{problemID}", h.deleteProblem)

	r.Post("/{problemID}/test-cases", h.addTestCase)
	r.Put("/{problemID}/test-cases", h.replaceTestCases)
	r.Patch("/test-cases/{testCaseID}", h.updateTestCase)
	r.Delete("/test-cases/{testCaseID}", h.deleteTestCase)
}

func (h *ProblemHandler) createProblem(w http.ResponseWriter, r *http.Request) {
	var req service.CreateProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	reviewer := middleware.IsReviewerFromContext(r.Context())

	problem, err := h.problemService.Create(r.Context(), req, reviewer)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, problem)
}

func (h *ProblemHandler) listProblems(w http.ResponseWriter, r *http.Request) {
	reviewer := middleware.IsReviewerFromContext(r.Context())
	problems, err := h.problemService.List(r.Context(), reviewer)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problems)
}

func (h *ProblemHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	reviewer := middleware.IsReviewerFromContext(r.Context())
	problem, err := h.problemService.Get(r.Context(), chi.URLParam(r, "problemID"), reviewer)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) updateProblem(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	reviewer := middleware.IsReviewerFromContext(r.Context())

	problem, err := h.problemService.Update(r.Context(), chi.URLParam(r, "problemID"), req, reviewer)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) deleteProblem(w http.ResponseWriter, r *http.Request) {
	if err := h.problemService.Delete(r.Context(), chi.URLParam(r, "problemID")); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProblemHandler) addTestCase(w http.ResponseWriter, r *http.Request) {
	var req service.TestCaseInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	reviewer := middleware.IsReviewerFromContext(r.Context())

	testCase, err := h.problemService.AddTestCase(r.Context(), chi.URLParam(r, "problemID"), req, reviewer)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, testCase)
}

func (h *ProblemHandler) replaceTestCases(w http.ResponseWriter, r *http.Request) {
	var reqs []service.TestCaseInput
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	reviewer := middleware.IsReviewerFromContext(r.Context())

	testCases, err := h.problemService.ReplaceTestCases(r.Context(), chi.URLParam(r, "problemID"), reqs, reviewer)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, testCases)
}

func (h *ProblemHandler) updateTestCase(w http.ResponseWriter, r *http.Request) {
	var req service.TestCaseInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	reviewer := middleware.IsReviewerFromContext(r.Context())

	testCase, err := h.problemService.UpdateTestCase(r.Context(), chi.URLParam(r, "testCaseID"), req, reviewer)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, testCase)
}

func (h *ProblemHandler) deleteTestCase(w http.ResponseWriter, r *http.Request) {
	if err := h.problemService.DeleteTestCase(r.Context(), chi.URLParam(r, "testCaseID")); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
