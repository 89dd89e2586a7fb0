// internal/server/handlers/space.go

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"hive/internal/domain/space"
	spaceService "hive/internal/service/space"
)

// SpaceHandler handles space-related HTTP requests
type SpaceHandler struct {
	manager *spaceService.Manager
}

// NewSpaceHandler creates a new space handler
func NewSpaceHandler(manager *spaceService.Manager) *SpaceHandler {
	return &SpaceHandler{
		manager: manager,
	}
}

// ListSpaces returns a list of spaces
func (h *SpaceHandler) ListSpaces(w http.ResponseWriter, r *http.Request) {
	var filter space.Filter

	if statesStr := r.URL.Query().Get("states"); statesStr != "" {
		for _, s := range strings.Split(statesStr, ",") {
			filter.LifecycleStates = append(filter.LifecycleStates, space.LifecycleState(s))
		}
	} else {
		// Default to visible states
		filter.LifecycleStates = []space.LifecycleState{
			space.StateCreated,
			space.StateActive,
			space.StateDormant,
		}
	}

	if typesStr := r.URL.Query().Get("types"); typesStr != "" {
		for _, t := range strings.Split(typesStr, ",") {
			filter.SpaceTypes = append(filter.SpaceTypes, space.SpaceType(t))
		}
	}

	if surgingStr := r.URL.Query().Get("surging"); surgingStr != "" {
		surging, err := strconv.ParseBool(surgingStr)
		if err == nil {
			filter.Surging = &surging
		}
	}

	filter.MemberID = r.URL.Query().Get("member")
	filter.SearchTerms = r.URL.Query().Get("q")

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	spaces, err := h.manager.ListSpaces(r.Context(), filter)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list spaces", err)
		return
	}

	respondWithJSON(w, http.StatusOK, spaces)
}

// GetSpace returns a space by ID
func (h *SpaceHandler) GetSpace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Missing space ID", nil)
		return
	}

	sp, err := h.manager.GetSpace(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, sp)
}

// CreateSpace provisions a new space in the created state
func (h *SpaceHandler) CreateSpace(w http.ResponseWriter, r *http.Request) {
	type createSpaceRequest struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		SpaceType   space.SpaceType `json:"space_type"`
	}

	var req createSpaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "Space name is required", nil)
		return
	}

	sp, err := h.manager.Provision(r.Context(), req.Name, req.Description, req.SpaceType)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to create space", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, sp)
}

// ArchiveSpace moves a space to the terminal archived state
func (h *SpaceHandler) ArchiveSpace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Missing space ID", nil)
		return
	}

	type archiveRequest struct {
		AdminID string `json:"admin_id"`
	}
	var req archiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.manager.Archive(r.Context(), id, req.AdminID); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
