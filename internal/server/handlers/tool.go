// internal/server/handlers/tool.go

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hive/internal/domain/tool"
	toolService "hive/internal/service/tool"
)

// ToolHandler handles tool placement and interaction HTTP requests
type ToolHandler struct {
	service *toolService.Service
}

// NewToolHandler creates a new tool handler
func NewToolHandler(service *toolService.Service) *ToolHandler {
	return &ToolHandler{
		service: service,
	}
}

// PlaceTool places a tool into a space
func (h *ToolHandler) PlaceTool(w http.ResponseWriter, r *http.Request) {
	spaceID := chi.URLParam(r, "id")
	if spaceID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing space ID", nil)
		return
	}

	type placeRequest struct {
		BuilderID string     `json:"builder_id"`
		Tool      tool.Draft `json:"tool"`
	}
	var req placeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.BuilderID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing builder ID", nil)
		return
	}

	placed, err := h.service.Place(r.Context(), spaceID, req.BuilderID, req.Tool)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, placed)
}

// ListTools lists a space's tools
func (h *ToolHandler) ListTools(w http.ResponseWriter, r *http.Request) {
	spaceID := chi.URLParam(r, "id")
	if spaceID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing space ID", nil)
		return
	}

	tools, err := h.service.ListForSpace(r.Context(), spaceID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list tools", err)
		return
	}

	respondWithJSON(w, http.StatusOK, tools)
}

// RecordInteraction records one user interaction with a tool. Recording is
// fire-and-forget, so the response only acknowledges receipt.
func (h *ToolHandler) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	toolID := chi.URLParam(r, "id")
	if toolID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing tool ID", nil)
		return
	}

	type interactionRequest struct {
		UserID string `json:"user_id"`
	}
	var req interactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.service.RecordInteraction(r.Context(), toolID, req.UserID)

	respondWithJSON(w, http.StatusAccepted, map[string]interface{}{"success": true})
}
