package driven

import "mechanic-setu/internal/job-tracking-service/core/domain/model"

// SessionStore is the single persisted slot holding the active job plus
// the draft of the last submitted request form. Load never fails loudly:
// a corrupt or mismatched record behaves as absent.
type SessionStore interface {
	// Load returns the stored record when it exists and its RequestID
	// matches expectedRequestID. Pass "" to accept any record.
	Load(expectedRequestID string) (*model.ActiveJobRecord, bool)
	Save(rec *model.ActiveJobRecord) error
	// Clear removes the active job and the form draft together.
	Clear() error

	SaveDraft(d *model.RequestDetails) error
	LoadDraft() (*model.RequestDetails, bool)
}
