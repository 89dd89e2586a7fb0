// internal/server/handlers/builder.go

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hive/internal/domain/builder"
	"hive/internal/service/builderflow"
)

// BuilderHandler handles builder request HTTP requests
type BuilderHandler struct {
	workflow *builderflow.Workflow
}

// NewBuilderHandler creates a new builder handler
func NewBuilderHandler(workflow *builderflow.Workflow) *BuilderHandler {
	return &BuilderHandler{
		workflow: workflow,
	}
}

// SubmitRequest submits a builder request for a space
func (h *BuilderHandler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	spaceID := chi.URLParam(r, "id")
	if spaceID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing space ID", nil)
		return
	}

	type submitRequest struct {
		UserID      string              `json:"user_id"`
		RequestType builder.RequestType `json:"request_type"`
		Message     string              `json:"message"`
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing user ID", nil)
		return
	}
	if req.RequestType == "" {
		req.RequestType = builder.RequestStandard
	}

	created, err := h.workflow.Submit(r.Context(), req.UserID, spaceID, builderflow.Submission{
		RequestType: req.RequestType,
		Message:     req.Message,
	})
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success":    true,
		"request_id": created.ID,
	})
}

// ReviewRequest applies an admin decision to a pending builder request
func (h *BuilderHandler) ReviewRequest(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")
	if requestID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing request ID", nil)
		return
	}

	type reviewRequest struct {
		AdminID  string           `json:"admin_id"`
		Decision builder.Decision `json:"decision"`
		Notes    string           `json:"notes"`
	}
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.AdminID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing admin ID", nil)
		return
	}
	if req.Decision != builder.DecisionApprove && req.Decision != builder.DecisionDeny {
		respondWithError(w, http.StatusBadRequest, "Decision must be approved or denied", nil)
		return
	}

	if err := h.workflow.Review(r.Context(), requestID, req.AdminID, req.Decision, req.Notes); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// ListRequests lists a space's builder requests for review screens
func (h *BuilderHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	spaceID := chi.URLParam(r, "id")
	if spaceID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing space ID", nil)
		return
	}

	requests, err := h.workflow.ListForSpace(r.Context(), spaceID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}

	respondWithJSON(w, http.StatusOK, requests)
}
