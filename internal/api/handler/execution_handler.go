package handler

import (
	"encoding/json"
	"net/http"

	"aqcode/internal/api/middleware"
	"aqcode/internal/app/service"
	"aqcode/internal/common"

	"github.com/go-chi/chi/v5"
)

type ExecutionHandler struct {
	executionService *service.ExecutionService
}

func NewExecutionHandler(es *service.ExecutionService) *ExecutionHandler {
	return &ExecutionHandler{executionService: es}
}

// RegisterRoutes mounts the anonymous execute endpoint.
func (h *ExecutionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/execute", h.execute)
}

func (h *ExecutionHandler) execute(w http.ResponseWriter, r *http.Request) {
	var req service.ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	reviewer := middleware.IsReviewerFromContext(r.Context())

	result, err := h.executionService.Execute(r.Context(), req, reviewer)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, result)
}
