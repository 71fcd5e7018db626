// devserver emulates the Mechanic Setu backend locally: the ws-token
// endpoint, the job endpoints, and the job notification websocket. It
// exists so the client can be exercised end to end without the real
// service.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"mechanic-setu/internal/job-tracking-service/core/domain/dto"
	websocketdto "mechanic-setu/internal/job-tracking-service/core/domain/websocket_dto"
	"mechanic-setu/internal/mylogger"
)

var tokenSecret = []byte("mechanic-setu-dev")

type server struct {
	logger mylogger.Logger
	hub    *Hub

	mu     sync.Mutex
	nextID int
	jobs   map[string]*scriptedJob
}

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	flag.Parse()

	appLogger, err := mylogger.New(mylogger.LevelInfo)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	s := &server{
		logger: appLogger,
		hub:    NewHub(appLogger),
		nextID: 1000,
		jobs:   make(map[string]*scriptedJob),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/core/ws-token/", s.handleToken)
	mux.HandleFunc("/jobs/CreateServiceRequest/", s.handleCreate)
	mux.HandleFunc("/jobs/CancelServiceRequest/", s.handleCancel)
	mux.HandleFunc("/ws/job_notifications/", s.handleWS)

	appLogger.Action("devserver_started").Info("job notification emulator listening", "addr", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatalf("devserver: %v", err)
	}
}

func (s *server) handleToken(w http.ResponseWriter, r *http.Request) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "dev-user",
		"exp": time.Now().Add(5 * time.Minute).Unix(),
	})
	signed, err := token.SignedString(tokenSecret)
	if err != nil {
		http.Error(w, "token signing failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, dto.WSTokenResponse{WSToken: signed})
}

func (s *server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.CreateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	s.nextID++
	requestID := strconv.Itoa(s.nextID)
	job := &scriptedJob{requestID: requestID, userLat: req.Latitude, userLng: req.Longitude}
	s.jobs[requestID] = job
	s.mu.Unlock()

	s.logger.Action("request_created").Info("service request created",
		"request_id", requestID, "vehicle", req.VehicleType, "problem", req.Problem)
	go job.run(s.hub)

	writeJSON(w, dto.CreateServiceResponse{RequestID: dto.FlexID(requestID), Message: "Searching for a mechanic"})
}

func (s *server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	requestID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/jobs/CancelServiceRequest/"), "/")
	if requestID == "" {
		writeError(w, http.StatusBadRequest, "missing request id")
		return
	}

	s.mu.Lock()
	job, ok := s.jobs[requestID]
	if ok {
		job.cancel()
		delete(s.jobs, requestID)
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "no such request")
		return
	}

	var req dto.CancelServiceRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	s.logger.Action("request_cancelled").Info("service request cancelled",
		"request_id", requestID, "reason", req.CancellationReason)

	s.hub.Broadcast(requestID, terminalMessage{
		WebSocketMessage: websocketdto.WebSocketMessage{Type: websocketdto.MessageTypeJobCancelledNotify},
		RequestID:        requestID,
		Message:          "The request was cancelled.",
	})
	writeJSON(w, map[string]string{"message": "cancelled"})
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if _, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return tokenSecret, nil
	}); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrading connection", err)
		return
	}

	sub := &subscriber{id: uuid.NewString(), conn: conn}
	s.logger.Info("client connected", "conn", sub.id)

	defer func() {
		s.hub.Unsubscribe(sub)
		conn.Close()
		s.logger.Info("client disconnected", "conn", sub.id)
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		ev, err := websocketdto.Decode(payload)
		if err != nil {
			s.logger.Error("dropping client message", err)
			continue
		}

		switch ev.Type {
		case websocketdto.MessageTypeSubscribe:
			s.hub.Subscribe(ev.RequestID, sub)
		case websocketdto.MessageTypeCancelRequest:
			// Echo from one party; fan out as the backend would.
			s.hub.Broadcast(ev.RequestID, terminalMessage{
				WebSocketMessage: websocketdto.WebSocketMessage{Type: websocketdto.MessageTypeJobCancelledNotify},
				RequestID:        ev.RequestID,
				Message:          "The request was cancelled.",
			})
		case websocketdto.MessageTypeUserHeartbeat:
			s.logger.Debug("heartbeat", "job_id", ev.RequestID, "conn", sub.id)
		default:
			s.logger.Warn("unhandled client message", "type", ev.Type)
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.APIError{Message: msg})
}
