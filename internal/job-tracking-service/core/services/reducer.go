package services

import (
	"time"

	"mechanic-setu/internal/config"
	"mechanic-setu/internal/job-tracking-service/core/domain/model"
	websocketdto "mechanic-setu/internal/job-tracking-service/core/domain/websocket_dto"
)

// Reducer maps (current record, inbound event) to (next record, side
// effects). It is pure: no I/O, no clocks beyond stamping UpdatedAt, so
// every transition is testable without a connection or a screen.
type Reducer struct {
	avgSpeedKmh      float64
	startupBufferMin int
	now              func() time.Time
}

func NewReducer(cfg *config.Trackingconfig) *Reducer {
	return &Reducer{
		avgSpeedKmh:      cfg.AvgSpeedKmh,
		startupBufferMin: cfg.StartupBufferMin,
		now:              time.Now,
	}
}

// Apply runs one event through the transition table. Events that fail
// the scope filter, arrive in the wrong phase, or carry an unrecognized
// type return the input record unchanged with no effects.
func (r *Reducer) Apply(rec *model.ActiveJobRecord, ev websocketdto.Event) (*model.ActiveJobRecord, []Effect) {
	// Duplicate terminal events land here once the record is cleared.
	if rec == nil {
		return nil, nil
	}

	// Scope filter: an event for another request never touches this
	// record, terminal kinds included.
	if ev.RequestID == "" || ev.RequestID != rec.RequestID {
		return rec, nil
	}

	switch ev.Type {
	case websocketdto.MessageTypeMechanicAccepted, websocketdto.MessageTypeMechanicAssigned:
		if rec.Phase != model.PhaseSearching {
			return rec, nil
		}
		next := rec.Clone()
		next.Phase = model.PhaseAssigned
		next.AssignedMechanic = mechanicFromWire(ev.Mechanic)
		if next.AssignedMechanic != nil && next.AssignedMechanic.Position != nil {
			next.MechanicPosition = next.AssignedMechanic.Position
		}
		r.refreshEstimate(next)
		next.UpdatedAt = r.now()
		return next, []Effect{
			NotifyEffect{Level: NotifySuccess, Message: assignedMessage(next.AssignedMechanic)},
			PersistEffect{Record: next},
			NavigateEffect{Route: RouteMechanicFound(next.RequestID)},
		}

	case websocketdto.MessageTypeLocationUpdate:
		if rec.Phase != model.PhaseAssigned {
			return rec, nil
		}
		next := rec.Clone()
		next.MechanicPosition = &model.Coordinates{Latitude: ev.Latitude, Longitude: ev.Longitude}
		r.refreshEstimate(next)
		next.UpdatedAt = r.now()
		return next, []Effect{PersistEffect{Record: next}}

	case websocketdto.MessageTypeEstimatedTime:
		next := rec.Clone()
		next.EstimatedMinutes = ev.EstimatedMinutes
		next.UpdatedAt = r.now()
		return next, []Effect{PersistEffect{Record: next}}

	case websocketdto.MessageTypeJobCompleted:
		return nil, []Effect{
			NotifyEffect{Level: NotifySuccess, Message: orDefault(ev.Message, "The request has been resolved.")},
			PersistEffect{Record: nil},
			NavigateEffect{Route: RouteHome, Delayed: true},
		}

	case websocketdto.MessageTypeJobCancelled, websocketdto.MessageTypeJobCancelledNotify:
		return nil, []Effect{
			NotifyEffect{Level: NotifySuccess, Message: orDefault(ev.Message, "The request has been cancelled.")},
			PersistEffect{Record: nil},
			NavigateEffect{Route: RouteHome, Delayed: true},
		}

	case websocketdto.MessageTypeNoMechanicFound:
		if rec.Phase != model.PhaseSearching {
			return rec, nil
		}
		return nil, []Effect{
			NotifyEffect{Level: NotifyError, Message: orDefault(ev.Message, "No mechanic could be found nearby.")},
			PersistEffect{Record: nil},
			NavigateEffect{Route: RouteHome, Delayed: true},
		}

	case websocketdto.MessageTypeSearching:
		// Confirmation that the search is still running.
		return rec, nil

	case websocketdto.MessageTypeError:
		next := rec.Clone()
		next.Phase = model.PhaseError
		next.UpdatedAt = r.now()
		return next, []Effect{
			NotifyEffect{Level: NotifyError, Message: orDefault(ev.Message, "Something went wrong with your request.")},
			PersistEffect{Record: next},
		}
	}

	// Unrecognized kind: identity transition, caller logs it.
	return rec, nil
}

func (r *Reducer) refreshEstimate(rec *model.ActiveJobRecord) {
	if rec.UserPosition == nil || rec.MechanicPosition == nil {
		return
	}
	rec.EstimatedMinutes = EstimateMinutes(*rec.UserPosition, *rec.MechanicPosition, r.avgSpeedKmh, r.startupBufferMin)
}

func mechanicFromWire(m *websocketdto.MechanicDetails) *model.Mechanic {
	if m == nil {
		return nil
	}
	out := &model.Mechanic{
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		PhoneNumber:  m.PhoneNumber,
		Rating:       m.Rating,
		VehiclePlate: m.VehiclePlate,
		ProfilePic:   m.ProfilePic,
	}
	if m.CurrentLatitude != 0 || m.CurrentLongitude != 0 {
		out.Position = &model.Coordinates{Latitude: m.CurrentLatitude, Longitude: m.CurrentLongitude}
	}
	return out
}

func assignedMessage(m *model.Mechanic) string {
	if m == nil {
		return "A mechanic has accepted your request."
	}
	return m.FullName() + " has accepted your request."
}

func orDefault(msg, def string) string {
	if msg == "" {
		return def
	}
	return msg
}
