package driven

import (
	"context"

	websocketdto "mechanic-setu/internal/job-tracking-service/core/domain/websocket_dto"
)

type ConnStatus string

const (
	ConnDisconnected ConnStatus = "disconnected"
	ConnConnecting   ConnStatus = "connecting"
	ConnConnected    ConnStatus = "connected"
	ConnError        ConnStatus = "error"
)

// Conn is the one live connection for the authenticated session.
type Conn interface {
	Connect(ctx context.Context) error
	// Send serializes and transmits one command. When not connected it
	// queues at most one pending message and reports no error.
	Send(msg any) error
	Events() <-chan websocketdto.Event
	LastMessage() *websocketdto.Event
	Status() ConnStatus
	Close() error
}
