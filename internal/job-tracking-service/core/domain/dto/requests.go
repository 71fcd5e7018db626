package dto

import (
	"encoding/json"
	"fmt"
)

// Request/Response models for the backend HTTP API

type WSTokenResponse struct {
	WSToken string `json:"ws_token"`
}

type CreateServiceRequest struct {
	VehicleType     string  `json:"vehicle_type"`
	Problem         string  `json:"problem"`
	AdditionalNotes string  `json:"additional_notes,omitempty"`
	Location        string  `json:"location"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
}

type CreateServiceResponse struct {
	RequestID FlexID `json:"request_id"`
	Message   string `json:"message,omitempty"`
}

type CancelServiceRequest struct {
	CancellationReason string `json:"cancellation_reason"`
}

type APIError struct {
	Message string `json:"message"`
}

// FlexID accepts both string and numeric ids. The backend returns
// numbers from the create endpoint and strings elsewhere.
type FlexID string

func (id *FlexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %s", data)
	}
	*id = FlexID(n.String())
	return nil
}
