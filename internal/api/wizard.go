package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/T44VI/raittiusseuranhakubot/internal/domain"
	"github.com/T44VI/raittiusseuranhakubot/internal/wizard"
	"github.com/go-chi/chi/v5"
)

type draftView struct {
	Draft    domain.Draft         `json:"draft"`
	Summary  string               `json:"summary"`
	Steps    map[wizard.Step]bool `json:"steps"`
	CanSave  bool                 `json:"can_save"`
	CanClear bool                 `json:"can_clear"`
}

func newDraftView(d domain.Draft) draftView {
	steps := make(map[wizard.Step]bool, 4)
	for _, step := range []wizard.Step{wizard.StepName, wizard.StepDescription, wizard.StepCategory, wizard.StepLength} {
		steps[step] = wizard.Visible(d, step)
	}
	return draftView{
		Draft:    d,
		Summary:  d.Summary(time.Now()),
		Steps:    steps,
		CanSave:  wizard.SaveVisible(d),
		CanClear: wizard.ClearVisible(d),
	}
}

// GetDraft returns the caller's draft with step visibility flags.
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	sender, ok := h.sender(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, newDraftView(h.wiz.Draft(sender.ID)))
}

// DraftStep feeds raw text to one wizard step. Validation outcomes are
// reported through the draft's status line, never as an HTTP error.
func (h *Handler) DraftStep(w http.ResponseWriter, r *http.Request) {
	sender, ok := h.sender(w, r)
	if !ok {
		return
	}

	step := wizard.Step(chi.URLParam(r, "step"))
	switch step {
	case wizard.StepName, wizard.StepDescription, wizard.StepCategory, wizard.StepLength:
	default:
		Error(w, http.StatusNotFound, "unknown step")
		return
	}

	var body struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	JSON(w, http.StatusOK, newDraftView(h.wiz.HandleInput(sender.ID, step, body.Value)))
}

// SaveDraft commits the draft as an activity. Save failures surface in
// the draft's status line; the response stays 200 either way, mirroring
// a button press that always "lands".
func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	sender, ok := h.sender(w, r)
	if !ok {
		return
	}

	act, err := h.wiz.Save(r.Context(), sender.ID, sender)
	view := newDraftView(h.wiz.Draft(sender.ID))
	resp := map[string]interface{}{
		"saved": err == nil,
		"draft": view,
	}
	if act != nil {
		resp["activity_id"] = act.ID
	}
	JSON(w, http.StatusOK, resp)
}

// ClearDraft resets the caller's draft from any state.
func (h *Handler) ClearDraft(w http.ResponseWriter, r *http.Request) {
	sender, ok := h.sender(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, newDraftView(h.wiz.Clear(sender.ID)))
}
