// Package api provides HTTP handlers for the activity board API.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/T44VI/raittiusseuranhakubot/internal/access"
	"github.com/T44VI/raittiusseuranhakubot/internal/identity"
	"github.com/T44VI/raittiusseuranhakubot/internal/store"
	"github.com/T44VI/raittiusseuranhakubot/internal/sweep"
	"github.com/T44VI/raittiusseuranhakubot/internal/wizard"
	"github.com/go-chi/chi/v5"
)

// Handler serves the interaction surface: board browsing, wizard steps
// and owner/admin actions.
type Handler struct {
	repo    store.Repository
	sweeper *sweep.Sweeper
	wiz     *wizard.Controller
	access  *access.Checker
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, sweeper *sweep.Sweeper, wiz *wizard.Controller, checker *access.Checker) *Handler {
	return &Handler{
		repo:    repo,
		sweeper: sweeper,
		wiz:     wiz,
		access:  checker,
	}
}

// RegisterRoutes registers all board routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/activities", h.ListActivities)
		r.Get("/activities/{id}", h.GetActivity)
		r.Post("/activities/{id}/join", h.Join)
		r.Post("/activities/{id}/delete", h.Delete)
		r.Post("/activities/{id}/block", h.Block)
		r.Get("/categories", h.ListCategories)
		r.Get("/categories/{category}/activities", h.ListByCategory)
		r.Get("/mine", h.ListMine)

		r.Get("/draft", h.GetDraft)
		r.Post("/draft/clear", h.ClearDraft)
		r.Post("/draft/save", h.SaveDraft)
		r.Post("/draft/{step}", h.DraftStep)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// sender resolves the acting identity, rejecting blocked users. Returns
// false when the response has already been written.
func (h *Handler) sender(w http.ResponseWriter, r *http.Request) (wizard.Identity, bool) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return wizard.Identity{}, false
	}
	if h.access.IsBlocked(r.Context(), userID) {
		Error(w, http.StatusForbidden, "blocked")
		return wizard.Identity{}, false
	}
	return wizard.Identity{ID: userID, Handle: identity.HandleFromContext(r.Context())}, true
}
