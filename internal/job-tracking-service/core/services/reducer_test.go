package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mechanic-setu/internal/config"
	"mechanic-setu/internal/job-tracking-service/core/domain/model"
	websocketdto "mechanic-setu/internal/job-tracking-service/core/domain/websocket_dto"
)

func newTestReducer() *Reducer {
	return NewReducer(&config.Trackingconfig{
		AvgSpeedKmh:      30,
		StartupBufferMin: 5,
	})
}

func searchingRecord(id string) *model.ActiveJobRecord {
	return &model.ActiveJobRecord{
		RequestID:    id,
		Phase:        model.PhaseSearching,
		UserPosition: &model.Coordinates{Latitude: 23.0225, Longitude: 72.5714},
		RequestDetails: &model.RequestDetails{
			VehicleType: "car",
			Problem:     "Puncture Repair",
			Location:    "SG Highway",
		},
	}
}

func assignedRecord(id string) *model.ActiveJobRecord {
	rec := searchingRecord(id)
	rec.Phase = model.PhaseAssigned
	rec.AssignedMechanic = &model.Mechanic{FirstName: "Ramesh", LastName: "Patel", PhoneNumber: "12345"}
	rec.MechanicPosition = &model.Coordinates{Latitude: 23.04, Longitude: 72.59}
	return rec
}

func TestMechanicAcceptedAssigns(t *testing.T) {
	r := newTestReducer()
	rec := searchingRecord("17")

	next, effects := r.Apply(rec, websocketdto.Event{
		Type:      websocketdto.MessageTypeMechanicAccepted,
		RequestID: "17",
		Mechanic: &websocketdto.MechanicDetails{
			FirstName:        "Ramesh",
			LastName:         "Patel",
			PhoneNumber:      "12345",
			CurrentLatitude:  23.05,
			CurrentLongitude: 72.60,
		},
	})

	require.NotNil(t, next)
	assert.Equal(t, model.PhaseAssigned, next.Phase)
	require.NotNil(t, next.AssignedMechanic)
	assert.Equal(t, "Ramesh Patel", next.AssignedMechanic.FullName())
	require.NotNil(t, next.MechanicPosition)
	assert.Greater(t, next.EstimatedMinutes, 0)

	require.Len(t, effects, 3)
	notify := effects[0].(NotifyEffect)
	assert.Equal(t, NotifySuccess, notify.Level)
	persist := effects[1].(PersistEffect)
	assert.Equal(t, next, persist.Record)
	nav := effects[2].(NavigateEffect)
	assert.Equal(t, RouteMechanicFound("17"), nav.Route)
	assert.False(t, nav.Delayed)
}

func TestMechanicAcceptedIgnoredOutsideSearching(t *testing.T) {
	r := newTestReducer()
	rec := assignedRecord("17")

	next, effects := r.Apply(rec, websocketdto.Event{
		Type:      websocketdto.MessageTypeMechanicAccepted,
		RequestID: "17",
		Mechanic:  &websocketdto.MechanicDetails{FirstName: "Other"},
	})

	assert.Same(t, rec, next)
	assert.Empty(t, effects)
}

func TestScopeIsolation(t *testing.T) {
	r := newTestReducer()

	kinds := []string{
		websocketdto.MessageTypeMechanicAccepted,
		websocketdto.MessageTypeLocationUpdate,
		websocketdto.MessageTypeJobCompleted,
		websocketdto.MessageTypeJobCancelled,
		websocketdto.MessageTypeJobCancelledNotify,
		websocketdto.MessageTypeNoMechanicFound,
		websocketdto.MessageTypeEstimatedTime,
	}
	for _, kind := range kinds {
		rec := assignedRecord("17")
		next, effects := r.Apply(rec, websocketdto.Event{Type: kind, RequestID: "99"})
		assert.Same(t, rec, next, "kind %s must not cross request scope", kind)
		assert.Empty(t, effects, "kind %s must not emit effects for another request", kind)
	}

	// An event with no subject at all is equally out of scope.
	rec := assignedRecord("17")
	next, effects := r.Apply(rec, websocketdto.Event{Type: websocketdto.MessageTypeJobCompleted})
	assert.Same(t, rec, next)
	assert.Empty(t, effects)
}

func TestLocationUpdateRecomputesETA(t *testing.T) {
	r := newTestReducer()
	rec := assignedRecord("17")
	rec.EstimatedMinutes = 40

	next, effects := r.Apply(rec, websocketdto.Event{
		Type:      websocketdto.MessageTypeLocationUpdate,
		RequestID: "17",
		Latitude:  23.0230,
		Longitude: 72.5718,
	})

	require.NotNil(t, next)
	assert.Equal(t, 23.0230, next.MechanicPosition.Latitude)
	assert.Less(t, next.EstimatedMinutes, 40)
	require.Len(t, effects, 1)
	assert.IsType(t, PersistEffect{}, effects[0])
}

func TestLocationUpdateIgnoredWhileSearching(t *testing.T) {
	r := newTestReducer()
	rec := searchingRecord("17")

	next, effects := r.Apply(rec, websocketdto.Event{
		Type:      websocketdto.MessageTypeLocationUpdate,
		RequestID: "17",
		Latitude:  1, Longitude: 1,
	})

	assert.Same(t, rec, next)
	assert.Empty(t, effects)
}

func TestServerETAThenFreshPositionWins(t *testing.T) {
	r := newTestReducer()
	rec := assignedRecord("17")

	next, _ := r.Apply(rec, websocketdto.Event{
		Type:             websocketdto.MessageTypeEstimatedTime,
		RequestID:        "17",
		EstimatedMinutes: 90,
	})
	require.NotNil(t, next)
	assert.Equal(t, 90, next.EstimatedMinutes)

	// A new position supersedes the pushed value.
	next, _ = r.Apply(next, websocketdto.Event{
		Type:      websocketdto.MessageTypeLocationUpdate,
		RequestID: "17",
		Latitude:  23.0226,
		Longitude: 72.5715,
	})
	require.NotNil(t, next)
	assert.NotEqual(t, 90, next.EstimatedMinutes)
	assert.LessOrEqual(t, next.EstimatedMinutes, 6)
}

func TestJobCompletedClearsAndNavigates(t *testing.T) {
	r := newTestReducer()
	rec := assignedRecord("17")

	next, effects := r.Apply(rec, websocketdto.Event{
		Type:      websocketdto.MessageTypeJobCompleted,
		RequestID: "17",
		Message:   "Done",
	})

	assert.Nil(t, next)
	require.Len(t, effects, 3)
	assert.Equal(t, NotifyEffect{Level: NotifySuccess, Message: "Done"}, effects[0])
	assert.Equal(t, PersistEffect{Record: nil}, effects[1])
	assert.Equal(t, NavigateEffect{Route: RouteHome, Delayed: true}, effects[2])
}

func TestTerminalEventsAreIdempotent(t *testing.T) {
	r := newTestReducer()
	rec := assignedRecord("17")
	ev := websocketdto.Event{Type: websocketdto.MessageTypeJobCompleted, RequestID: "17"}

	next, effects := r.Apply(rec, ev)
	assert.Nil(t, next)
	assert.NotEmpty(t, effects)

	// Second application is a no-op: the record is already cleared.
	next, effects = r.Apply(next, ev)
	assert.Nil(t, next)
	assert.Empty(t, effects)
}

func TestCancelledNotificationClears(t *testing.T) {
	r := newTestReducer()
	for _, kind := range []string{websocketdto.MessageTypeJobCancelled, websocketdto.MessageTypeJobCancelledNotify} {
		rec := searchingRecord("17")
		next, effects := r.Apply(rec, websocketdto.Event{Type: kind, RequestID: "17"})
		assert.Nil(t, next, "kind %s", kind)
		require.Len(t, effects, 3, "kind %s", kind)
		assert.Equal(t, NotifySuccess, effects[0].(NotifyEffect).Level)
	}
}

func TestNoMechanicFoundOnlyWhileSearching(t *testing.T) {
	r := newTestReducer()

	rec := searchingRecord("17")
	next, effects := r.Apply(rec, websocketdto.Event{
		Type:      websocketdto.MessageTypeNoMechanicFound,
		RequestID: "17",
	})
	assert.Nil(t, next)
	require.Len(t, effects, 3)
	assert.Equal(t, NotifyError, effects[0].(NotifyEffect).Level)

	// An assigned job cannot be "not found".
	rec = assignedRecord("17")
	next, effects = r.Apply(rec, websocketdto.Event{
		Type:      websocketdto.MessageTypeNoMechanicFound,
		RequestID: "17",
	})
	assert.Same(t, rec, next)
	assert.Empty(t, effects)
}

func TestServerErrorKeepsRecord(t *testing.T) {
	r := newTestReducer()
	rec := searchingRecord("17")

	next, effects := r.Apply(rec, websocketdto.Event{
		Type:      websocketdto.MessageTypeError,
		RequestID: "17",
		Message:   "dispatch failed",
	})

	require.NotNil(t, next)
	assert.Equal(t, model.PhaseError, next.Phase)
	require.Len(t, effects, 2)
	assert.Equal(t, NotifyEffect{Level: NotifyError, Message: "dispatch failed"}, effects[0])
	assert.Equal(t, next, effects[1].(PersistEffect).Record)
}

func TestUnknownKindIsIdentity(t *testing.T) {
	r := newTestReducer()
	rec := searchingRecord("17")

	next, effects := r.Apply(rec, websocketdto.Event{Type: "promo_banner", RequestID: "17"})

	assert.Same(t, rec, next)
	assert.Empty(t, effects)
}

func TestSearchingConfirmationIsIdentity(t *testing.T) {
	r := newTestReducer()
	rec := searchingRecord("17")

	next, effects := r.Apply(rec, websocketdto.Event{Type: websocketdto.MessageTypeSearching, RequestID: "17"})

	assert.Same(t, rec, next)
	assert.Empty(t, effects)
}
