// Package wizard implements the stateful draft-to-activity flow.
package wizard

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"time"

	"github.com/T44VI/raittiusseuranhakubot/internal/domain"
	"github.com/T44VI/raittiusseuranhakubot/internal/notify"
	"github.com/T44VI/raittiusseuranhakubot/internal/store"
	"github.com/T44VI/raittiusseuranhakubot/internal/sweep"
)

// Step identifies a wizard input field.
type Step string

const (
	StepName        Step = "name"
	StepDescription Step = "description"
	StepCategory    Step = "category"
	StepLength      Step = "length"
)

// Identity is the resolved sender of an interaction.
type Identity struct {
	ID     string
	Handle string
}

// idAlphabet is the fixed alphabet activity identifiers draw from.
const idAlphabet = "ABCDEFGHIJKLMOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Controller orchestrates the multi-step draft flow: it advances drafts
// field by field, gates the save action behind whole-draft validation,
// and commits finished drafts to the repository.
type Controller struct {
	repo    store.Repository
	drafts  *DraftStore
	channel notify.Channel
	sweeper *sweep.Sweeper
	bounds  Bounds
	idLen   int
	retries int

	newID func(n int) (string, error)
	now   func() time.Time
}

// NewController creates a Controller with the given collaborators.
func NewController(repo store.Repository, drafts *DraftStore, channel notify.Channel, sweeper *sweep.Sweeper, bounds Bounds, idLen, retries int) *Controller {
	return &Controller{
		repo:    repo,
		drafts:  drafts,
		channel: channel,
		sweeper: sweeper,
		bounds:  bounds,
		idLen:   idLen,
		retries: retries,
		newID:   randomID,
		now:     time.Now,
	}
}

// Visible reports whether a step's control should be offered for the
// draft. Steps unlock strictly in order: name, description, category,
// length.
func Visible(d domain.Draft, step Step) bool {
	switch step {
	case StepName:
		return true
	case StepDescription:
		return d.Name != ""
	case StepCategory:
		return d.Description != ""
	case StepLength:
		return d.Category != ""
	}
	return false
}

// SaveVisible reports whether the save action should be offered.
func SaveVisible(d domain.Draft) bool {
	return d.Minutes != 0
}

// ClearVisible reports whether the clear action should be offered.
func ClearVisible(d domain.Draft) bool {
	return d.Name != ""
}

// Draft returns the session's current draft.
func (c *Controller) Draft(sessionID string) domain.Draft {
	return c.drafts.Get(sessionID)
}

// HandleInput feeds raw text to a wizard step. The targeted field is
// overwritten only when validation succeeds; failures are absorbed into
// the status line and never escape this boundary.
func (c *Controller) HandleInput(sessionID string, step Step, raw string) domain.Draft {
	draft := c.drafts.Get(sessionID)

	if !Visible(draft, step) {
		draft.Status = "‼️ Täytä edelliset kentät ensin"
		c.drafts.Set(sessionID, draft)
		return draft
	}

	var err error
	switch step {
	case StepName:
		var name string
		if name, err = ValidateName(raw); err == nil {
			draft.Name = name
			draft.Status = "✅ Uusi nimi asetettu!"
		}
	case StepDescription:
		var desc string
		if desc, err = ValidateDescription(raw); err == nil {
			draft.Description = desc
			draft.Status = "✅ Uusi kuvaus asetettu!"
		}
	case StepCategory:
		var cat domain.Category
		if cat, err = ValidateCategory(raw); err == nil {
			draft.Category = cat
			draft.Status = "✅ Uusi kategoria asetettu!"
		}
	case StepLength:
		var minutes int
		if minutes, err = ParseLength(raw, c.now(), c.bounds); err == nil {
			draft.Minutes = minutes
			draft.Status = "✅ Uusi kesto asetettu! Muista vielä tallentaa!"
		}
	}
	if err != nil {
		draft.Status = "‼️ " + err.Error()
	}

	c.drafts.Set(sessionID, draft)
	return draft
}

// Clear resets the session's draft to empty from any state.
func (c *Controller) Clear(sessionID string) domain.Draft {
	draft := domain.Draft{Status: "⚠️ Kentät tyhjennetty!"}
	c.drafts.Set(sessionID, draft)
	return draft
}

// Save validates the whole draft once more, commits it as an activity
// and announces it. The draft is reset as soon as the activity is
// durably stored; announcement failures are swallowed because the
// activity exists regardless of broadcast outcome.
func (c *Controller) Save(ctx context.Context, sessionID string, sender Identity) (*domain.Activity, error) {
	draft := c.drafts.Get(sessionID)

	// Re-validate: the stored draft may predate a config change.
	if err := ValidateDraft(draft, c.bounds); err != nil {
		c.setStatus(sessionID, draft, "‼️ "+err.Error())
		return nil, err
	}
	if sender.ID == "" {
		c.setStatus(sessionID, draft, "‼️ Epäselvä lähettäjä, ota vichy!")
		return nil, ErrUnknownSender
	}

	if err := c.sweeper.Sweep(ctx); err != nil {
		slog.Warn("Sweep before save failed", "error", err)
	}

	// Collisions are astronomically unlikely but checked, not assumed.
	var id string
	for attempt := 0; attempt < c.retries; attempt++ {
		candidate, err := c.newID(c.idLen)
		if err != nil {
			c.setStatus(sessionID, draft, "‼️ Jotain meni vikaan :(")
			return nil, err
		}
		existing, err := c.repo.GetActivity(ctx, candidate)
		if err != nil {
			c.setStatus(sessionID, draft, "‼️ Jotain meni vikaan :(")
			return nil, err
		}
		if existing == nil {
			id = candidate
			break
		}
		slog.Warn("Activity ID collision, regenerating", "id", candidate, "attempt", attempt+1)
	}
	if id == "" {
		c.setStatus(sessionID, draft, "‼️ Yritä uudelleen")
		return nil, ErrIDRetriesExhausted
	}

	now := c.now()
	act := &domain.Activity{
		ID:          id,
		Name:        draft.Name,
		Description: draft.Description,
		HostID:      sender.ID,
		HostHandle:  sender.Handle,
		Category:    draft.Category,
		EndsAt:      now.Add(time.Duration(draft.Minutes) * time.Minute),
		CreatedAt:   now,
	}
	if err := c.repo.InsertActivity(ctx, act); err != nil {
		c.setStatus(sessionID, draft, "‼️ Jotain meni vikaan :(")
		return nil, err
	}

	// Committed; everything below is best-effort.
	c.drafts.Set(sessionID, domain.Draft{Status: fmt.Sprintf("✅ Tapahtuma %s luotu!", act.Name)})

	text := fmt.Sprintf("Uusi tapahtuma kategoriaan %s:\n%s\n\nPäättyy noin: %s",
		act.Category, act.Name, act.EndClock())
	ref, err := c.channel.Send(ctx, notify.Broadcast, text)
	if err != nil {
		slog.Warn("Announcement failed", "error", err, "activity_id", act.ID)
		return act, nil
	}
	act.AnnounceRef = ref
	if err := c.repo.SetAnnounceRef(ctx, act.ID, ref); err != nil {
		slog.Warn("Failed to record announce ref", "error", err, "activity_id", act.ID)
	}

	return act, nil
}

// Delete removes an activity, either by its own host or by an admin.
// The announcement is retracted and the host notified; the notification
// text differs between self-termination and admin removal.
func (c *Controller) Delete(ctx context.Context, actor Identity, activityID string, asAdmin bool) error {
	if err := c.sweeper.Sweep(ctx); err != nil {
		slog.Warn("Sweep before delete failed", "error", err)
	}

	act, err := c.repo.GetActivity(ctx, activityID)
	if err != nil {
		return err
	}
	if act == nil {
		return ErrNotFound
	}
	if !asAdmin && act.HostID != actor.ID {
		return ErrNotAllowed
	}

	if err := c.repo.DeleteActivity(ctx, act.ID); err != nil {
		return err
	}

	if act.AnnounceRef != "" {
		if err := c.channel.Delete(ctx, notify.Broadcast, act.AnnounceRef); err != nil {
			slog.Warn("Failed to retract announcement", "error", err, "activity_id", act.ID)
		}
	}

	text := "Aktiviteetti lopetettu"
	if act.HostID != actor.ID {
		text = "Järjestelmänvalvoja poisti aktiviteettisi"
	}
	if _, err := c.channel.Send(ctx, act.HostID, text); err != nil {
		slog.Warn("Host notification failed", "error", err, "activity_id", act.ID)
	}

	return nil
}

// Block puts the activity's host on the deny-list and notifies them.
// An admin cannot block themself through their own activity.
func (c *Controller) Block(ctx context.Context, actor Identity, activityID string) error {
	if err := c.sweeper.Sweep(ctx); err != nil {
		slog.Warn("Sweep before block failed", "error", err)
	}

	act, err := c.repo.GetActivity(ctx, activityID)
	if err != nil {
		return err
	}
	if act == nil {
		return ErrNotFound
	}
	if act.HostID == actor.ID {
		return ErrNotAllowed
	}

	if err := c.repo.AddBlock(ctx, act.HostID, act.HostHandle); err != nil {
		return err
	}

	if _, err := c.channel.Send(ctx, act.HostID, "Järjestelmänvalvoja esti sinut"); err != nil {
		slog.Warn("Host notification failed", "error", err, "activity_id", act.ID)
	}

	return nil
}

// Join notifies the host of a join request and returns the contact
// instructions shown to the requester.
func (c *Controller) Join(ctx context.Context, actor Identity, activityID string) (string, error) {
	if err := c.sweeper.Sweep(ctx); err != nil {
		slog.Warn("Sweep before join failed", "error", err)
	}

	act, err := c.repo.GetActivity(ctx, activityID)
	if err != nil {
		return "", err
	}
	if act == nil {
		return "", ErrNotFound
	}

	text := fmt.Sprintf("@%s haluaisi liittyä aktiviteettiin %s!", actor.Handle, act.Name)
	if _, err := c.channel.Send(ctx, act.HostID, text); err != nil {
		slog.Warn("Host notification failed", "error", err, "activity_id", act.ID)
	}

	return fmt.Sprintf("Loistavaa! Liittymisohjeet löytyy @%s", act.HostHandle), nil
}

func (c *Controller) setStatus(sessionID string, d domain.Draft, status string) {
	d.Status = status
	c.drafts.Set(sessionID, d)
}

func randomID(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate activity id: %w", err)
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(out), nil
}
