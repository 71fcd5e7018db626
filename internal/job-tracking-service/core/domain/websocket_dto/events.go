package websocketdto

import (
	"encoding/json"
	"fmt"
)

// WebSocket message types
const (
	MessageTypeSubscribe          = "subscribe_to_request"
	MessageTypeCancelRequest      = "cancel_request"
	MessageTypeUserHeartbeat      = "user_heartbeat"
	MessageTypeMechanicAccepted   = "mechanic_accepted"
	MessageTypeMechanicAssigned   = "mechanic_assigned"
	MessageTypeLocationUpdate     = "mechanic_location_update"
	MessageTypeJobCompleted       = "job_completed"
	MessageTypeJobCancelled       = "job_cancelled"
	MessageTypeJobCancelledNotify = "job_cancelled_notification"
	MessageTypeNoMechanicFound    = "no_mechanic_found"
	MessageTypeSearching          = "searching_mechanic"
	MessageTypeEstimatedTime      = "estimated_time_update"
	MessageTypeError              = "error"
)

// Base message structure
type WebSocketMessage struct {
	Type string `json:"type"`
}

// Subscribe to updates for one request
type SubscribeMessage struct {
	WebSocketMessage
	RequestID string `json:"request_id"`
}

// Cancel command, echoed to the other party watching the same request
type CancelMessage struct {
	WebSocketMessage
	RequestID string `json:"request_id"`
	Message   string `json:"message,omitempty"`
}

// Periodic keep-alive while a job screen is mounted
type HeartbeatMessage struct {
	WebSocketMessage
	JobID string `json:"job_id"`
}

// Mechanic details as pushed by the notification service
type MechanicDetails struct {
	FirstName        string  `json:"first_name"`
	LastName         string  `json:"last_name"`
	PhoneNumber      string  `json:"phone_number"`
	Rating           float64 `json:"rating,omitempty"`
	VehiclePlate     string  `json:"vehicle_plate,omitempty"`
	ProfilePic       string  `json:"Mechanic_profile_pic,omitempty"`
	CurrentLatitude  float64 `json:"current_latitude,omitempty"`
	CurrentLongitude float64 `json:"current_longitude,omitempty"`
}

// Event is a decoded inbound message. Payload fields vary by Type;
// unset ones keep their zero value. Unrecognized types still decode,
// the router ignores them.
type Event struct {
	Type             string
	RequestID        string
	Message          string
	Mechanic         *MechanicDetails
	Latitude         float64
	Longitude        float64
	EstimatedMinutes int
}

func (e Event) Terminal() bool {
	switch e.Type {
	case MessageTypeJobCompleted, MessageTypeJobCancelled, MessageTypeJobCancelledNotify, MessageTypeNoMechanicFound:
		return true
	}
	return false
}

// subjectID tolerates both string and numeric ids on the wire. The
// backend is not consistent about it across message kinds.
type subjectID string

func (id *subjectID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = subjectID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("subject id is neither string nor number: %s", data)
	}
	*id = subjectID(n.String())
	return nil
}

type rawEvent struct {
	Type             string           `json:"type"`
	RequestID        subjectID        `json:"request_id"`
	JobID            subjectID        `json:"job_id"`
	Message          string           `json:"message"`
	MechanicDetails  *MechanicDetails `json:"mechanic_details"`
	Mechanic         *MechanicDetails `json:"mechanic"`
	Latitude         float64          `json:"latitude"`
	Longitude        float64          `json:"longitude"`
	EstimatedMinutes int              `json:"estimated_minutes"`
}

// Decode parses one inbound frame. A frame without a type field is an
// error; everything else decodes into an Event.
func Decode(data []byte) (Event, error) {
	var raw rawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return Event{}, fmt.Errorf("decoding inbound message: %w", err)
	}
	if raw.Type == "" {
		return Event{}, fmt.Errorf("inbound message has no type: %s", data)
	}

	ev := Event{
		Type:             raw.Type,
		RequestID:        string(raw.RequestID),
		Message:          raw.Message,
		Mechanic:         raw.MechanicDetails,
		Latitude:         raw.Latitude,
		Longitude:        raw.Longitude,
		EstimatedMinutes: raw.EstimatedMinutes,
	}
	if ev.RequestID == "" {
		ev.RequestID = string(raw.JobID)
	}
	if ev.Mechanic == nil {
		ev.Mechanic = raw.Mechanic
	}
	return ev, nil
}
