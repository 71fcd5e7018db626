package storage

import (
	"database/sql"
	"io"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mechanic-setu/internal/job-tracking-service/core/domain/model"
	"mechanic-setu/internal/mylogger"
)

func newTestStore(t *testing.T) *SessionStore {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := Open(db, mylogger.NewWithWriter(mylogger.LevelError, io.Discard))
	require.NoError(t, err)
	return store
}

func sampleRecord() *model.ActiveJobRecord {
	return &model.ActiveJobRecord{
		RequestID: "42",
		Phase:     model.PhaseAssigned,
		AssignedMechanic: &model.Mechanic{
			FirstName:   "Ramesh",
			LastName:    "Patel",
			PhoneNumber: "12345",
		},
		RequestDetails: &model.RequestDetails{
			VehicleType: "car",
			Problem:     "Puncture Repair",
			Location:    "SG Highway",
		},
		UserPosition:     &model.Coordinates{Latitude: 23.0225, Longitude: 72.5714},
		MechanicPosition: &model.Coordinates{Latitude: 23.04, Longitude: 72.59},
		EstimatedMinutes: 12,
		UpdatedAt:        time.Now().UTC().Truncate(time.Second),
	}
}

func TestLoadEmptyStore(t *testing.T) {
	store := newTestStore(t)

	rec, ok := store.Load("")
	assert.False(t, ok)
	assert.Nil(t, rec)

	draft, ok := store.LoadDraft()
	assert.False(t, ok)
	assert.Nil(t, draft)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	want := sampleRecord()

	require.NoError(t, store.Save(want))

	got, ok := store.Load("42")
	require.True(t, ok)
	assert.Equal(t, want, got)

	// Load without an expectation returns whatever is stored.
	got, ok = store.Load("")
	require.True(t, ok)
	assert.Equal(t, "42", got.RequestID)
}

func TestSaveOverwritesSingleSlot(t *testing.T) {
	store := newTestStore(t)

	first := sampleRecord()
	require.NoError(t, store.Save(first))

	second := sampleRecord()
	second.RequestID = "43"
	second.Phase = model.PhaseSearching
	require.NoError(t, store.Save(second))

	got, ok := store.Load("")
	require.True(t, ok)
	assert.Equal(t, "43", got.RequestID)

	var count int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM active_job`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestLoadRequestIDMismatch(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(sampleRecord()))

	rec, ok := store.Load("99")
	assert.False(t, ok)
	assert.Nil(t, rec)
}

func TestLoadCorruptPayload(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(sampleRecord()))

	_, err := store.db.Exec(`UPDATE active_job SET payload = 'not json' WHERE slot = 1`)
	require.NoError(t, err)

	rec, ok := store.Load("42")
	assert.False(t, ok)
	assert.Nil(t, rec)
}

func TestLoadEmptyRequestID(t *testing.T) {
	store := newTestStore(t)

	_, err := store.db.Exec(`INSERT INTO active_job (slot, payload) VALUES (1, '{}')`)
	require.NoError(t, err)

	rec, ok := store.Load("")
	assert.False(t, ok)
	assert.Nil(t, rec)
}

func TestSaveNilClears(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(sampleRecord()))

	require.NoError(t, store.Save(nil))

	_, ok := store.Load("")
	assert.False(t, ok)
}

func TestClearRemovesJobAndDraft(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(sampleRecord()))
	require.NoError(t, store.SaveDraft(&model.RequestDetails{Problem: "Air Fill-up"}))

	require.NoError(t, store.Clear())

	_, ok := store.Load("")
	assert.False(t, ok)
	_, ok = store.LoadDraft()
	assert.False(t, ok)
}

func TestDraftRoundTrip(t *testing.T) {
	store := newTestStore(t)
	want := &model.RequestDetails{
		VehicleType:     "bike",
		Problem:         "Battery Jumpstart",
		AdditionalNotes: "near the petrol pump",
		Location:        "CG Road",
	}

	require.NoError(t, store.SaveDraft(want))

	got, ok := store.LoadDraft()
	require.True(t, ok)
	assert.Equal(t, want, got)
}
