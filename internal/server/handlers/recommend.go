// internal/server/handlers/recommend.go

package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hive/internal/domain/recommend"
)

// RecommendationReader reads persisted recommendation lists
type RecommendationReader interface {
	GetForUser(ctx context.Context, userID string) ([]recommend.Recommendation, error)
}

// RecommendHandler handles recommendation HTTP requests
type RecommendHandler struct {
	reader RecommendationReader
}

// NewRecommendHandler creates a new recommendation handler
func NewRecommendHandler(reader RecommendationReader) *RecommendHandler {
	return &RecommendHandler{
		reader: reader,
	}
}

// GetRecommendations returns a user's current ranked recommendations
func (h *RecommendHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing user ID", nil)
		return
	}

	recs, err := h.reader.GetForUser(r.Context(), userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get recommendations", err)
		return
	}
	if recs == nil {
		recs = []recommend.Recommendation{}
	}

	respondWithJSON(w, http.StatusOK, recs)
}
