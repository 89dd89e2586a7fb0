// internal/server/handlers/respond.go

package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"hive/internal/domain/builder"
	"hive/internal/domain/social"
	"hive/internal/domain/space"
	"hive/internal/domain/tool"
)

// respondWithJSON writes a JSON payload with the given status code
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithError writes a JSON error body. Internal detail is logged
// server-side only; the client sees the short message.
func respondWithError(w http.ResponseWriter, code int, message string, err error) {
	if err != nil {
		log.Printf("%s: %v", message, err)
	}
	respondWithJSON(w, code, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// respondWithDomainError maps typed domain errors to 4xx responses with
// their user-facing message. Anything unrecognized becomes a generic 500.
func respondWithDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, builder.ErrDuplicateRequest),
		errors.Is(err, builder.ErrBuilderLimit),
		errors.Is(err, builder.ErrAlreadyReviewed),
		errors.Is(err, space.ErrInvalidTransition):
		respondWithError(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, tool.ErrNoPermission):
		respondWithError(w, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, builder.ErrRequestNotFound),
		errors.Is(err, space.ErrSpaceNotFound),
		errors.Is(err, tool.ErrToolNotFound),
		errors.Is(err, social.ErrUserNotFound):
		respondWithError(w, http.StatusNotFound, err.Error(), nil)
	default:
		respondWithError(w, http.StatusInternalServerError, "Something went wrong, please try again", err)
	}
}
