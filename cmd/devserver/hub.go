package main

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	websocketdto "mechanic-setu/internal/job-tracking-service/core/domain/websocket_dto"
	"mechanic-setu/internal/mylogger"
)

// Hub tracks which live connection is watching which request, mirroring
// the notification service the real backend runs.
type Hub struct {
	logger mylogger.Logger

	mu          sync.RWMutex
	subscribers map[string][]*subscriber // request id -> connections
}

type subscriber struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func NewHub(l mylogger.Logger) *Hub {
	return &Hub{
		logger:      l.Action("hub"),
		subscribers: make(map[string][]*subscriber),
	}
}

func (h *Hub) Subscribe(requestID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[requestID] = append(h.subscribers[requestID], sub)
	h.logger.Info("subscribed", "request_id", requestID, "conn", sub.id)
}

func (h *Hub) Unsubscribe(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for requestID, subs := range h.subscribers {
		kept := subs[:0]
		for _, s := range subs {
			if s != sub {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			delete(h.subscribers, requestID)
		} else {
			h.subscribers[requestID] = kept
		}
	}
}

// Broadcast sends msg to every connection watching requestID.
func (h *Hub) Broadcast(requestID string, msg any) {
	h.mu.RLock()
	subs := append([]*subscriber(nil), h.subscribers[requestID]...)
	h.mu.RUnlock()

	for _, s := range subs {
		if err := s.send(msg); err != nil {
			h.logger.Error("broadcasting to subscriber", err, "request_id", requestID, "conn", s.id)
		}
	}
}

// scriptedJob replays a canned dispatch: a mechanic accepts, drives
// toward the user, and completes the job.
type scriptedJob struct {
	requestID string
	userLat   float64
	userLng   float64

	mu        sync.Mutex
	cancelled bool
}

func (j *scriptedJob) cancel() {
	j.mu.Lock()
	j.cancelled = true
	j.mu.Unlock()
}

func (j *scriptedJob) isCancelled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelled
}

type locationUpdate struct {
	websocketdto.WebSocketMessage
	RequestID string  `json:"request_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type assignedMessage struct {
	websocketdto.WebSocketMessage
	RequestID       string                        `json:"request_id"`
	MechanicDetails *websocketdto.MechanicDetails `json:"mechanic_details"`
}

type terminalMessage struct {
	websocketdto.WebSocketMessage
	RequestID string `json:"request_id"`
	Message   string `json:"message"`
}

// run drives the script against the hub. Steps are spaced out so the
// client's tracking screen can be watched by hand.
func (j *scriptedJob) run(h *Hub) {
	time.Sleep(3 * time.Second)
	if j.isCancelled() {
		return
	}

	// The mechanic starts roughly 2 km north-east of the user.
	lat := j.userLat + 0.015
	lng := j.userLng + 0.012

	h.Broadcast(j.requestID, assignedMessage{
		WebSocketMessage: websocketdto.WebSocketMessage{Type: websocketdto.MessageTypeMechanicAccepted},
		RequestID:        j.requestID,
		MechanicDetails: &websocketdto.MechanicDetails{
			FirstName:        "Ramesh",
			LastName:         "Patel",
			PhoneNumber:      "+91 98765 43210",
			Rating:           4.7,
			VehiclePlate:     "GJ-01-AB-1234",
			CurrentLatitude:  lat,
			CurrentLongitude: lng,
		},
	})

	for i := 0; i < 6; i++ {
		time.Sleep(2 * time.Second)
		if j.isCancelled() {
			return
		}
		lat -= (lat - j.userLat) / 3
		lng -= (lng - j.userLng) / 3
		h.Broadcast(j.requestID, locationUpdate{
			WebSocketMessage: websocketdto.WebSocketMessage{Type: websocketdto.MessageTypeLocationUpdate},
			RequestID:        j.requestID,
			Latitude:         lat,
			Longitude:        lng,
		})
	}

	time.Sleep(2 * time.Second)
	if j.isCancelled() {
		return
	}
	h.Broadcast(j.requestID, terminalMessage{
		WebSocketMessage: websocketdto.WebSocketMessage{Type: websocketdto.MessageTypeJobCompleted},
		RequestID:        j.requestID,
		Message:          "Your vehicle is ready. Drive safe!",
	})
}
