// internal/server/handlers/social.go

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hive/internal/domain/social"
	socialService "hive/internal/service/social"
)

// SocialHandler handles activity, follow and metrics HTTP requests
type SocialHandler struct {
	aggregator *socialService.Aggregator
}

// NewSocialHandler creates a new social handler
func NewSocialHandler(aggregator *socialService.Aggregator) *SocialHandler {
	return &SocialHandler{
		aggregator: aggregator,
	}
}

// RecordActivity tracks one user activity
func (h *SocialHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	type activityRequest struct {
		UserID     string                  `json:"user_id"`
		Category   social.ActivityCategory `json:"category"`
		Action     string                  `json:"action"`
		TargetID   string                  `json:"target_id"`
		TargetType string                  `json:"target_type"`
	}
	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing user ID", nil)
		return
	}

	err := h.aggregator.RecordActivity(r.Context(), social.Activity{
		UserID:     req.UserID,
		Category:   req.Category,
		Action:     req.Action,
		TargetID:   req.TargetID,
		TargetType: req.TargetType,
	})
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{"success": true})
}

// Follow creates a follow edge toward the user in the URL
func (h *SocialHandler) Follow(w http.ResponseWriter, r *http.Request) {
	followedID := chi.URLParam(r, "id")
	if followedID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing user ID", nil)
		return
	}

	type followRequest struct {
		FollowerID string `json:"follower_id"`
	}
	var req followRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.FollowerID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing follower ID", nil)
		return
	}

	if err := h.aggregator.Follow(r.Context(), req.FollowerID, followedID); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{"success": true})
}

// Unfollow removes a follow edge toward the user in the URL
func (h *SocialHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	followedID := chi.URLParam(r, "id")
	if followedID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing user ID", nil)
		return
	}

	followerID := r.URL.Query().Get("follower_id")
	if followerID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing follower ID", nil)
		return
	}

	if err := h.aggregator.Unfollow(r.Context(), followerID, followedID); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// GetMetrics returns a user's engagement and social-graph metrics
func (h *SocialHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing user ID", nil)
		return
	}

	m, err := h.aggregator.GetMetrics(r.Context(), userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get metrics", err)
		return
	}

	respondWithJSON(w, http.StatusOK, m)
}
