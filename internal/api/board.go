package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/T44VI/raittiusseuranhakubot/internal/domain"
	"github.com/T44VI/raittiusseuranhakubot/internal/wizard"
	"github.com/go-chi/chi/v5"
)

// goneMessage is shown whenever the target activity no longer exists.
// Expiry between listing and acting is a normal outcome, not an error.
const goneMessage = "Aktiviteetti on jo loppunut tai jotain meni vikaan :("

type activityView struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    domain.Category `json:"category"`
	EndsAt      time.Time       `json:"ends_at"`
	EndClock    string          `json:"end_clock"`
	TimeLeft    string          `json:"time_left"`

	// Host identity is exposed to admins only.
	HostID     string `json:"host_id,omitempty"`
	HostHandle string `json:"host_handle,omitempty"`
}

func newActivityView(act *domain.Activity, now time.Time, isAdmin bool) activityView {
	v := activityView{
		ID:          act.ID,
		Name:        act.Name,
		Description: act.Description,
		Category:    act.Category,
		EndsAt:      act.EndsAt,
		EndClock:    act.EndClock(),
		TimeLeft:    act.TimeLeftLabel(now),
	}
	if isAdmin {
		v.HostID = act.HostID
		v.HostHandle = act.HostHandle
	}
	return v
}

func (h *Handler) views(acts []*domain.Activity, now time.Time, isAdmin bool) []activityView {
	out := make([]activityView, 0, len(acts))
	for _, act := range acts {
		// The sweep cooldown can leave an expired entry in storage for
		// up to one window; it must never surface in a menu.
		if act.Expired(now) {
			continue
		}
		out = append(out, newActivityView(act, now, isAdmin))
	}
	return out
}

func (h *Handler) sweepForRead(r *http.Request) {
	if err := h.sweeper.Sweep(r.Context()); err != nil {
		slog.Warn("Read-path sweep failed", "error", err)
	}
}

// ListActivities returns every live activity.
func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	sender, ok := h.sender(w, r)
	if !ok {
		return
	}
	h.sweepForRead(r)

	acts, err := h.repo.ListActivities(r.Context())
	if err != nil {
		slog.Error("Failed to list activities", "error", err)
		Error(w, http.StatusInternalServerError, "storage failure")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"activities": h.views(acts, time.Now(), h.access.IsAdmin(r.Context(), sender.ID)),
	})
}

// ListCategories returns every category with its live activity count.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.sender(w, r); !ok {
		return
	}
	h.sweepForRead(r)

	now := time.Now()
	type categoryView struct {
		Name  domain.Category `json:"name"`
		Count int             `json:"count"`
	}
	out := make([]categoryView, 0, len(domain.Categories()))
	for _, cat := range domain.Categories() {
		acts, err := h.repo.ListByCategory(r.Context(), cat)
		if err != nil {
			slog.Error("Failed to list category", "error", err, "category", cat)
			Error(w, http.StatusInternalServerError, "storage failure")
			return
		}
		count := 0
		for _, act := range acts {
			if !act.Expired(now) {
				count++
			}
		}
		out = append(out, categoryView{Name: cat, Count: count})
	}

	JSON(w, http.StatusOK, map[string]interface{}{"categories": out})
}

// ListByCategory returns the live activities in one category.
func (h *Handler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	sender, ok := h.sender(w, r)
	if !ok {
		return
	}

	cat := domain.Category(chi.URLParam(r, "category"))
	if !cat.Valid() {
		Error(w, http.StatusBadRequest, "unknown category")
		return
	}
	h.sweepForRead(r)

	acts, err := h.repo.ListByCategory(r.Context(), cat)
	if err != nil {
		slog.Error("Failed to list category", "error", err, "category", cat)
		Error(w, http.StatusInternalServerError, "storage failure")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"activities": h.views(acts, time.Now(), h.access.IsAdmin(r.Context(), sender.ID)),
	})
}

// ListMine returns the activities hosted by the caller.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	sender, ok := h.sender(w, r)
	if !ok {
		return
	}
	h.sweepForRead(r)

	acts, err := h.repo.ListByHost(r.Context(), sender.ID)
	if err != nil {
		slog.Error("Failed to list own activities", "error", err, "user_id", sender.ID)
		Error(w, http.StatusInternalServerError, "storage failure")
		return
	}

	// Hosts always see their own host fields.
	JSON(w, http.StatusOK, map[string]interface{}{
		"activities": h.views(acts, time.Now(), true),
	})
}

// GetActivity returns one activity by ID.
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	sender, ok := h.sender(w, r)
	if !ok {
		return
	}
	h.sweepForRead(r)

	act, err := h.repo.GetActivity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		slog.Error("Failed to get activity", "error", err)
		Error(w, http.StatusInternalServerError, "storage failure")
		return
	}
	now := time.Now()
	if act == nil || act.Expired(now) {
		Error(w, http.StatusNotFound, goneMessage)
		return
	}

	isAdmin := sender.ID == act.HostID || h.access.IsAdmin(r.Context(), sender.ID)
	JSON(w, http.StatusOK, newActivityView(act, now, isAdmin))
}

// Join asks to join an activity: the host is notified and the caller
// receives contact instructions.
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	sender, ok := h.sender(w, r)
	if !ok {
		return
	}

	msg, err := h.wiz.Join(r.Context(), sender, chi.URLParam(r, "id"))
	if errors.Is(err, wizard.ErrNotFound) {
		Error(w, http.StatusNotFound, goneMessage)
		return
	}
	if err != nil {
		slog.Error("Join failed", "error", err)
		Error(w, http.StatusInternalServerError, "storage failure")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"message": msg})
}

// Delete terminates an activity. Hosts may end their own activities;
// admins may remove anyone's.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	sender, ok := h.sender(w, r)
	if !ok {
		return
	}

	asAdmin := h.access.IsAdmin(r.Context(), sender.ID)
	err := h.wiz.Delete(r.Context(), sender, chi.URLParam(r, "id"), asAdmin)
	switch {
	case errors.Is(err, wizard.ErrNotFound):
		Error(w, http.StatusNotFound, goneMessage)
		return
	case errors.Is(err, wizard.ErrNotAllowed):
		Error(w, http.StatusForbidden, "not allowed")
		return
	case err != nil:
		slog.Error("Delete failed", "error", err)
		Error(w, http.StatusInternalServerError, "storage failure")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"message": "Aktiviteetti poistettu"})
}

// Block puts an activity's host on the deny-list. Admin only.
func (h *Handler) Block(w http.ResponseWriter, r *http.Request) {
	sender, ok := h.sender(w, r)
	if !ok {
		return
	}
	if !h.access.IsAdmin(r.Context(), sender.ID) {
		Error(w, http.StatusForbidden, "not allowed")
		return
	}

	err := h.wiz.Block(r.Context(), sender, chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, wizard.ErrNotFound):
		Error(w, http.StatusNotFound, goneMessage)
		return
	case errors.Is(err, wizard.ErrNotAllowed):
		Error(w, http.StatusForbidden, "cannot block yourself")
		return
	case err != nil:
		slog.Error("Block failed", "error", err)
		Error(w, http.StatusInternalServerError, "storage failure")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"message": "Käyttäjä blokattu"})
}
