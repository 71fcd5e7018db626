package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mechanic-setu/internal/config"
	"mechanic-setu/internal/job-tracking-service/core/domain/dto"
	"mechanic-setu/internal/job-tracking-service/core/domain/model"
	websocketdto "mechanic-setu/internal/job-tracking-service/core/domain/websocket_dto"
	"mechanic-setu/internal/job-tracking-service/core/ports/driven"
	"mechanic-setu/internal/mylogger"
)

var ErrNoActiveJob = errors.New("no active job for this session")

// TrackingService is the screen-level controller: it seeds state from
// the handoff or the session store, subscribes over the live
// connection, feeds inbound events through the reducer, and interprets
// the resulting effects exactly once each.
type TrackingService struct {
	cfg     *config.Config
	log     mylogger.Logger
	store   driven.SessionStore
	conn    driven.Conn
	backend driven.Backend
	notify  driven.Notifier
	nav     driven.Navigator
	reducer *Reducer

	// OnUpdate, when set before Mount, receives a snapshot after every
	// state change. Used by the terminal renderer.
	OnUpdate func(rec *model.ActiveJobRecord, searchSeconds int)

	mu            sync.Mutex
	record        *model.ActiveJobRecord
	requestID     string
	currentRoute  string
	mounted       bool
	generation    int
	searchSeconds int
	stop          chan struct{}
	terminal      chan struct{}
	navTimer      *time.Timer
}

func NewTrackingService(
	cfg *config.Config,
	l mylogger.Logger,
	store driven.SessionStore,
	conn driven.Conn,
	backend driven.Backend,
	notify driven.Notifier,
	nav driven.Navigator,
) *TrackingService {
	return &TrackingService{
		cfg:     cfg,
		log:     l,
		store:   store,
		conn:    conn,
		backend: backend,
		notify:  notify,
		nav:     nav,
		reducer: NewReducer(cfg.Tracking),
	}
}

// Submit creates a new service request and seeds the session store.
// Creating a new request replaces any prior record: one active job at a
// time.
func (s *TrackingService) Submit(ctx context.Context, details model.RequestDetails) (string, error) {
	req := dto.CreateServiceRequest{
		VehicleType:     details.VehicleType,
		Problem:         details.Problem,
		AdditionalNotes: details.AdditionalNotes,
		Location:        details.Location,
	}
	if details.Coordinates != nil {
		req.Latitude = details.Coordinates.Latitude
		req.Longitude = details.Coordinates.Longitude
	}

	requestID, err := s.backend.CreateRequest(ctx, req)
	if err != nil {
		s.notify.Error("Could not submit your request. Please try again.")
		return "", fmt.Errorf("creating service request: %w", err)
	}

	rec := &model.ActiveJobRecord{
		RequestID:      requestID,
		Phase:          model.PhaseSearching,
		RequestDetails: &details,
		UserPosition:   details.Coordinates,
		UpdatedAt:      time.Now(),
	}
	if err := s.store.Save(rec); err != nil {
		s.log.Error("persisting new active job", err, "request_id", requestID)
	}
	if err := s.store.SaveDraft(&details); err != nil {
		s.log.Error("persisting form draft", err, "request_id", requestID)
	}

	s.mu.Lock()
	s.record = rec
	s.requestID = requestID
	s.mu.Unlock()

	s.log.Action("request_submitted").Info("service request created", "request_id", requestID)
	s.navigate(RouteFindingMechanic(requestID))
	return requestID, nil
}

// Resume returns the persisted active job, if any. The home screen uses
// it for the "a job is in progress" banner.
func (s *TrackingService) Resume() (*model.ActiveJobRecord, bool) {
	return s.store.Load("")
}

// Mount resolves initial state and starts the tracking loop. Priority:
// the in-memory handoff from the preceding screen, then the persisted
// record when its id matches the route, then a short grace period
// before giving up and redirecting home.
func (s *TrackingService) Mount(ctx context.Context, requestID string, handoff *model.ActiveJobRecord) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mounted = true
	s.requestID = requestID
	s.searchSeconds = 0
	s.stop = make(chan struct{})
	s.terminal = make(chan struct{})

	rec := s.record
	if rec == nil || rec.RequestID != requestID {
		rec = nil
	}
	if rec == nil && handoff != nil && handoff.RequestID == requestID {
		rec = handoff.Clone()
	}
	if rec == nil {
		if stored, ok := s.store.Load(requestID); ok {
			rec = stored
		}
	}
	s.record = rec
	s.mu.Unlock()

	if rec == nil {
		// Let late navigation state settle before declaring failure.
		select {
		case <-time.After(s.cfg.Tracking.MountGracePeriod):
		case <-ctx.Done():
			return ctx.Err()
		}
		if !s.stillMounted(gen) {
			return nil
		}
		stored, ok := s.store.Load(requestID)
		if !ok {
			s.notify.Error("Could not find active job details.")
			s.navigate(RouteHome)
			return ErrNoActiveJob
		}
		s.mu.Lock()
		s.record = stored
		rec = stored
		s.mu.Unlock()
	}

	// The request details slot survives reloads separately from the job
	// slot; reattach it so the screen can re-display the original form.
	s.mu.Lock()
	if s.record != nil && s.record.RequestDetails == nil {
		if draft, ok := s.store.LoadDraft(); ok {
			s.record.RequestDetails = draft
			if s.record.UserPosition == nil {
				s.record.UserPosition = draft.Coordinates
			}
		}
	}
	s.currentRoute = routeForPhase(s.record)
	s.mu.Unlock()

	if s.conn.Status() != driven.ConnConnected {
		if err := s.conn.Connect(ctx); err != nil {
			// Tracked state is still readable from storage; the badge
			// shows the degraded connection.
			s.log.Error("live connection unavailable", err, "request_id", requestID)
		}
	}
	if err := s.conn.Send(websocketdto.SubscribeMessage{
		WebSocketMessage: websocketdto.WebSocketMessage{Type: websocketdto.MessageTypeSubscribe},
		RequestID:        requestID,
	}); err != nil {
		s.log.Error("sending subscribe command", err, "request_id", requestID)
	}

	go s.run(gen)
	s.publishUpdate()
	return nil
}

// Unmount stops timers and the event loop. It does not close the
// connection; that belongs to the session owner.
func (s *TrackingService) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.mounted = false
	s.generation++
	close(s.stop)
	if s.navTimer != nil {
		s.navTimer.Stop()
		s.navTimer = nil
	}
}

// Cancel runs the user-initiated cancel flow. A reason is required.
// Local state is not mutated until the server confirms.
func (s *TrackingService) Cancel(ctx context.Context, reason string) error {
	if reason == "" {
		s.notify.Error("Please select a reason for cancellation.")
		return fmt.Errorf("cancellation reason is required")
	}

	s.mu.Lock()
	requestID := s.requestID
	if requestID == "" && s.record != nil {
		requestID = s.record.RequestID
	}
	s.mu.Unlock()
	if requestID == "" {
		if stored, ok := s.store.Load(""); ok {
			requestID = stored.RequestID
		}
	}
	if requestID == "" {
		return ErrNoActiveJob
	}

	if err := s.backend.CancelRequest(ctx, requestID, reason); err != nil {
		s.notify.Error(orDefault(serverMessage(err), "Cancellation failed."))
		return fmt.Errorf("cancelling request %s: %w", requestID, err)
	}

	// Best-effort echo so the assigned mechanic's client hears about it
	// before the backend fan-out lands. Correctness relies on the
	// fan-out, not on this.
	if err := s.conn.Send(websocketdto.CancelMessage{
		WebSocketMessage: websocketdto.WebSocketMessage{Type: websocketdto.MessageTypeCancelRequest},
		RequestID:        requestID,
		Message:          reason,
	}); err != nil {
		s.log.Warn("cancel echo not sent", "request_id", requestID)
	}

	if err := s.store.Clear(); err != nil {
		s.log.Error("clearing session store after cancel", err, "request_id", requestID)
	}

	s.mu.Lock()
	s.record = nil
	mounted := s.mounted
	if s.terminal != nil {
		select {
		case <-s.terminal:
		default:
			close(s.terminal)
		}
	}
	s.mu.Unlock()

	s.notify.Success("Service request cancelled.")
	s.log.Action("request_cancelled").Info("service request cancelled", "request_id", requestID, "reason", reason)
	if mounted {
		s.navigate(RouteHome)
	}
	return nil
}

// Record returns a snapshot of the tracked job for rendering.
func (s *TrackingService) Record() *model.ActiveJobRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.Clone()
}

// SearchSeconds returns the locally measured search duration.
func (s *TrackingService) SearchSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchSeconds
}

// Done is closed once the tracked job reaches a terminal state.
func (s *TrackingService) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminal
}

func (s *TrackingService) run(gen int) {
	heartbeat := time.NewTicker(s.cfg.WS.HeartbeatPeriod)
	defer heartbeat.Stop()
	searchTick := time.NewTicker(time.Second)
	defer searchTick.Stop()

	s.mu.Lock()
	stop := s.stop
	s.mu.Unlock()

	for {
		select {
		case <-stop:
			return
		case ev, ok := <-s.conn.Events():
			if !ok {
				return
			}
			if !s.stillMounted(gen) {
				return
			}
			s.handleEvent(ev)
		case <-heartbeat.C:
			if !s.stillMounted(gen) {
				return
			}
			s.sendHeartbeat()
		case <-searchTick.C:
			s.mu.Lock()
			searching := s.mounted && s.generation == gen &&
				s.record != nil && s.record.Phase == model.PhaseSearching
			if searching {
				s.searchSeconds++
			}
			s.mu.Unlock()
			if searching {
				s.publishUpdate()
			}
		}
	}
}

func (s *TrackingService) handleEvent(ev websocketdto.Event) {
	s.mu.Lock()
	prev := s.record
	next, effects := s.reducer.Apply(prev, ev)
	s.record = next
	s.mu.Unlock()

	if len(effects) == 0 {
		if next == prev {
			s.log.Debug("ignored inbound message", "type", ev.Type, "request_id", ev.RequestID)
		}
		return
	}

	for _, eff := range effects {
		s.runEffect(eff)
	}
	s.publishUpdate()
}

func (s *TrackingService) runEffect(eff Effect) {
	switch e := eff.(type) {
	case NotifyEffect:
		switch e.Level {
		case NotifySuccess:
			s.notify.Success(e.Message)
		case NotifyError:
			s.notify.Error(e.Message)
		default:
			s.notify.Info(e.Message)
		}
	case PersistEffect:
		if e.Record == nil {
			if err := s.store.Clear(); err != nil {
				s.log.Error("clearing session store", err)
			}
			s.markTerminal()
		} else if err := s.store.Save(e.Record); err != nil {
			s.log.Error("persisting active job", err, "request_id", e.Record.RequestID)
		}
	case NavigateEffect:
		s.applyNavigation(e)
	default:
		s.log.Warn("unknown effect", "type", eff.EffectType())
	}
}

// applyNavigation enforces the terminal-event rule: navigate home only
// when the user is on the tracking screen for this job or already home;
// from anywhere else the cleared record is enough.
func (s *TrackingService) applyNavigation(e NavigateEffect) {
	s.mu.Lock()
	route := s.currentRoute
	requestID := s.requestID
	s.mu.Unlock()

	if e.Route == RouteHome {
		onTracking := route == RouteFindingMechanic(requestID) || route == RouteMechanicFound(requestID)
		if !onTracking && route != RouteHome && route != "" {
			return
		}
	}

	if !e.Delayed {
		s.navigate(e.Route)
		return
	}

	s.mu.Lock()
	if s.navTimer != nil {
		s.navTimer.Stop()
	}
	s.navTimer = time.AfterFunc(s.cfg.Tracking.NavigateDelay, func() {
		s.navigate(e.Route)
	})
	s.mu.Unlock()
}

func (s *TrackingService) navigate(route string) {
	s.mu.Lock()
	s.currentRoute = route
	s.mu.Unlock()
	s.nav.Navigate(route)
}

func (s *TrackingService) sendHeartbeat() {
	s.mu.Lock()
	requestID := s.requestID
	s.mu.Unlock()
	if requestID == "" {
		return
	}
	if err := s.conn.Send(websocketdto.HeartbeatMessage{
		WebSocketMessage: websocketdto.WebSocketMessage{Type: websocketdto.MessageTypeUserHeartbeat},
		JobID:            requestID,
	}); err != nil {
		s.log.Warn("heartbeat not sent", "job_id", requestID)
	}
}

func (s *TrackingService) markTerminal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminal == nil {
		return
	}
	select {
	case <-s.terminal:
	default:
		close(s.terminal)
	}
}

func (s *TrackingService) stillMounted(gen int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted && s.generation == gen
}

func (s *TrackingService) publishUpdate() {
	s.mu.Lock()
	cb := s.OnUpdate
	rec := s.record.Clone()
	secs := s.searchSeconds
	s.mu.Unlock()
	if cb != nil {
		cb(rec, secs)
	}
}

func routeForPhase(rec *model.ActiveJobRecord) string {
	if rec == nil {
		return RouteHome
	}
	if rec.Phase == model.PhaseAssigned {
		return RouteMechanicFound(rec.RequestID)
	}
	return RouteFindingMechanic(rec.RequestID)
}

// FormatSearchTime renders elapsed seconds as MM:SS.
func FormatSearchTime(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// serverMessage digs the API error message out of a wrapped error.
func serverMessage(err error) string {
	var sm interface{ ServerMessage() string }
	if errors.As(err, &sm) {
		return sm.ServerMessage()
	}
	return ""
}
