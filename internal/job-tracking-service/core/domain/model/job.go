package model

import "time"

// Phase is the lifecycle state of the tracked service request.
type Phase string

const (
	PhaseSearching Phase = "searching"
	PhaseAssigned  Phase = "assigned"
	PhaseResolved  Phase = "resolved"
	PhaseCancelled Phase = "cancelled"
	PhaseNotFound  Phase = "not_found"
	PhaseError     Phase = "error"
)

// Terminal reports whether tracking ends in this phase.
func (p Phase) Terminal() bool {
	return p == PhaseResolved || p == PhaseCancelled || p == PhaseNotFound
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Mechanic struct {
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	PhoneNumber  string       `json:"phone_number"`
	Rating       float64      `json:"rating,omitempty"`
	VehiclePlate string       `json:"vehicle_plate,omitempty"`
	ProfilePic   string       `json:"profile_pic,omitempty"`
	Position     *Coordinates `json:"position,omitempty"`
}

func (m *Mechanic) FullName() string {
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}

// RequestDetails is the snapshot of the submitted form, captured at
// submission time and independent of the live connection.
type RequestDetails struct {
	VehicleType     string       `json:"vehicle_type"`
	Problem         string       `json:"problem"`
	AdditionalNotes string       `json:"additional_notes,omitempty"`
	Location        string       `json:"location"`
	Coordinates     *Coordinates `json:"coordinates,omitempty"`
}

// ActiveJobRecord is the single tracked request for this session.
// At most one exists in storage at a time.
type ActiveJobRecord struct {
	RequestID        string          `json:"request_id"`
	Phase            Phase           `json:"phase"`
	AssignedMechanic *Mechanic       `json:"assigned_mechanic,omitempty"`
	RequestDetails   *RequestDetails `json:"request_details,omitempty"`
	MechanicPosition *Coordinates    `json:"mechanic_position,omitempty"`
	UserPosition     *Coordinates    `json:"user_position,omitempty"`
	EstimatedMinutes int             `json:"estimated_minutes,omitempty"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Clone returns a deep copy so reducer output never aliases reducer input.
func (r *ActiveJobRecord) Clone() *ActiveJobRecord {
	if r == nil {
		return nil
	}
	out := *r
	if r.AssignedMechanic != nil {
		m := *r.AssignedMechanic
		if r.AssignedMechanic.Position != nil {
			p := *r.AssignedMechanic.Position
			m.Position = &p
		}
		out.AssignedMechanic = &m
	}
	if r.RequestDetails != nil {
		d := *r.RequestDetails
		if r.RequestDetails.Coordinates != nil {
			c := *r.RequestDetails.Coordinates
			d.Coordinates = &c
		}
		out.RequestDetails = &d
	}
	if r.MechanicPosition != nil {
		p := *r.MechanicPosition
		out.MechanicPosition = &p
	}
	if r.UserPosition != nil {
		p := *r.UserPosition
		out.UserPosition = &p
	}
	return &out
}
