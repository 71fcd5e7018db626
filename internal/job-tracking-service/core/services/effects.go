package services

import "mechanic-setu/internal/job-tracking-service/core/domain/model"

// Effects are declarative outputs of the reducer. The reducer never
// touches storage, the connection, or the screen itself; the tracking
// service interprets these values exactly once per event.

type Effect interface {
	EffectType() string
}

type NotifyLevel string

const (
	NotifySuccess NotifyLevel = "success"
	NotifyError   NotifyLevel = "error"
	NotifyInfo    NotifyLevel = "info"
)

type NotifyEffect struct {
	Level   NotifyLevel
	Message string
}

func (NotifyEffect) EffectType() string { return "notify" }

// NavigateEffect moves the user to Route. Delayed navigation waits the
// configured grace so the toast stays readable first.
type NavigateEffect struct {
	Route   string
	Delayed bool
}

func (NavigateEffect) EffectType() string { return "navigate" }

// PersistEffect writes Record to the session store. A nil Record clears
// the slot together with the form draft.
type PersistEffect struct {
	Record *model.ActiveJobRecord
}

func (PersistEffect) EffectType() string { return "persist" }
