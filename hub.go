package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"carsim/backend/internal/config"
	grpcstream "carsim/backend/internal/grpc"
	"carsim/backend/internal/logging"
	"carsim/backend/internal/simulation"
	"carsim/backend/internal/vehicle"
)

// Client is a single WebSocket consumer. Outbound frames go through a buffered
// send channel; a consumer that cannot keep up is dropped rather than allowed
// to stall the fan-out.
type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	id        string
	sessionID string
}

// HubOption customises hub construction.
type HubOption func(*Hub)

// Hub owns the WebSocket clients and fans simulation diffs out to them and to
// gRPC telemetry subscribers. Inbound frames are control payloads routed into
// the simulation runner.
type Hub struct {
	cfg      *config.Config
	log      *logging.Logger
	runner   *simulation.Runner
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*Client]bool
	pending int

	startedAt  time.Time
	startupMu  sync.RWMutex
	startupErr error

	wsAuthenticator websocketAuthenticator

	diffMu          sync.Mutex
	diffSubscribers map[uint64]*telemetrySubscriber
	nextDiffID      uint64
}

type telemetrySubscriber struct {
	sessionID string
	ch        chan grpcstream.TelemetryEvent
}

// NewHub wires the fan-out hub to the simulation runner.
func NewHub(cfg *config.Config, runner *simulation.Runner, logger *logging.Logger, opts ...HubOption) *Hub {
	if logger == nil {
		logger = logging.L()
	}
	hub := &Hub{
		cfg:             cfg,
		log:             logger,
		runner:          runner,
		clients:         make(map[*Client]bool),
		startedAt:       time.Now(),
		wsAuthenticator: allowAllAuthenticator{},
		diffSubscribers: make(map[uint64]*telemetrySubscriber),
	}
	hub.upgrader = websocket.Upgrader{
		CheckOrigin: hub.checkOrigin,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(hub)
		}
	}
	return hub
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	//1.- An empty allowlist keeps local development friction-free.
	if h == nil || h.cfg == nil || len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

// ServeWS upgrades the request and binds the connection to a driving session.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.runner == nil {
		http.Error(w, "simulation unavailable", http.StatusServiceUnavailable)
		return
	}

	subject, err := h.wsAuthenticator.Authenticate(r)
	if err != nil {
		h.log.Warn("websocket auth rejected",
			logging.String("remote_addr", r.RemoteAddr),
			logging.Error(err),
		)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	//1.- Reserve a slot before the upgrade so the client cap holds under bursts.
	h.mu.Lock()
	if h.cfg != nil && h.cfg.MaxClients > 0 && len(h.clients)+h.pending >= h.cfg.MaxClients {
		h.mu.Unlock()
		http.Error(w, "too many clients", http.StatusServiceUnavailable)
		return
	}
	h.pending++
	h.mu.Unlock()

	conn, err := h.upgrader.Upgrade(w, r, nil)

	h.mu.Lock()
	h.pending--
	h.mu.Unlock()

	if err != nil {
		h.log.Warn("websocket upgrade failed", logging.Error(err))
		return
	}

	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		sessionID = subject
	}
	if sessionID == "" {
		sessionID = "default"
	}

	client := &Client{
		conn:      conn,
		send:      make(chan []byte, 256),
		id:        r.RemoteAddr,
		sessionID: sessionID,
	}
	if h.cfg != nil && h.cfg.MaxPayloadBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxPayloadBytes)
	}

	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	//2.- The session exists from the moment the driver connects.
	state := h.runner.EnsureSession(sessionID)
	if payload, err := json.Marshal(stateMessage{Type: "state", State: &state}); err == nil {
		client.send <- payload
	}

	h.log.Info("client connected",
		logging.String("client_id", client.id),
		logging.String("session_id", sessionID),
	)

	go h.readPump(client)
	go h.writePump(client)
}

func (h *Hub) readPump(client *Client) {
	defer func() {
		h.removeClient(client)
		_ = client.conn.Close()
	}()
	logger := h.log.With(
		logging.String("client_id", client.id),
		logging.String("session_id", client.sessionID),
	)
	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("websocket read failed", logging.Error(err))
			}
			return
		}
		payload, err := decodeControlPayload(raw)
		if err != nil {
			logger.Debug("dropping malformed control frame", logging.Error(err))
			continue
		}
		if err := validateControlPayload(payload); err != nil {
			logger.Debug("dropping invalid control frame", logging.Error(err))
			continue
		}
		sessionID := payload.SessionID
		if sessionID == "" {
			sessionID = client.sessionID
		}
		//1.- Gate rejections are logged inside applyControls and never kill the socket.
		_ = h.applyControls(sessionID, payload, logger)
	}
}

func (h *Hub) writePump(client *Client) {
	interval := config.DefaultPingInterval
	if h.cfg != nil && h.cfg.PingInterval > 0 {
		interval = h.cfg.PingInterval
	}
	ticker := time.NewTicker(interval)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-client.send:
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := client.conn.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
}

type stateMessage struct {
	Type  string         `json:"type"`
	State *vehicle.State `json:"state"`
}

type diffMessage struct {
	Type    string          `json:"type"`
	Tick    uint64          `json:"tick"`
	Updated []vehicle.State `json:"updated,omitempty"`
	Removed []string        `json:"removed,omitempty"`
}

// PublishDiff fans a per-tick state diff out to WebSocket clients and gRPC
// telemetry subscribers. It is installed as the runner's publisher.
func (h *Hub) PublishDiff(diff vehicle.SessionDiff) {
	if h == nil || (len(diff.Updated) == 0 && len(diff.Removed) == 0) {
		return
	}
	var tick uint64
	var simulatedMs uint64
	for _, state := range diff.Updated {
		if state.Tick > tick {
			tick = state.Tick
		}
		if state.SimulatedMs > 0 && uint64(state.SimulatedMs) > simulatedMs {
			simulatedMs = uint64(state.SimulatedMs)
		}
	}
	payload, err := json.Marshal(diffMessage{
		Type:    "state_diff",
		Tick:    tick,
		Updated: diff.Updated,
		Removed: diff.Removed,
	})
	if err != nil {
		h.log.Error("failed to encode state diff", logging.Error(err))
		return
	}

	h.broadcast(payload)
	h.fanOutTelemetry(diff, tick, simulatedMs, payload)
}

func (h *Hub) broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			//1.- A full buffer marks the consumer as too slow to serve.
			close(client.send)
			delete(h.clients, client)
		}
	}
}

func (h *Hub) fanOutTelemetry(diff vehicle.SessionDiff, tick, simulatedMs uint64, full []byte) {
	h.diffMu.Lock()
	defer h.diffMu.Unlock()
	for _, sub := range h.diffSubscribers {
		payload := full
		if sub.sessionID != "" {
			filtered, ok := filterDiffForSession(diff, tick, sub.sessionID)
			if !ok {
				continue
			}
			payload = filtered
		}
		event := grpcstream.TelemetryEvent{Tick: tick, SimulatedMs: simulatedMs, Payload: payload}
		select {
		case sub.ch <- event:
		default:
			//2.- Slow telemetry consumers skip ticks instead of blocking the loop.
		}
	}
}

func filterDiffForSession(diff vehicle.SessionDiff, tick uint64, sessionID string) ([]byte, bool) {
	msg := diffMessage{Type: "state_diff", Tick: tick}
	for _, state := range diff.Updated {
		if state.SessionID == sessionID {
			msg.Updated = append(msg.Updated, state)
		}
	}
	for _, removed := range diff.Removed {
		if removed == sessionID {
			msg.Removed = append(msg.Removed, removed)
		}
	}
	if len(msg.Updated) == 0 && len(msg.Removed) == 0 {
		return nil, false
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, false
	}
	return payload, true
}

// SnapshotClientCounts reports connected and pending WebSocket clients.
func (h *Hub) SnapshotClientCounts() (int, int) {
	if h == nil {
		return 0, 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients), h.pending
}

// SetStartupError records a fatal boot problem surfaced via readiness checks.
func (h *Hub) SetStartupError(err error) {
	if h == nil {
		return
	}
	h.startupMu.Lock()
	h.startupErr = err
	h.startupMu.Unlock()
}

// StartupError returns the recorded boot problem, if any.
func (h *Hub) StartupError() error {
	if h == nil {
		return nil
	}
	h.startupMu.RLock()
	defer h.startupMu.RUnlock()
	return h.startupErr
}

// Uptime reports how long the hub has been serving clients.
func (h *Hub) Uptime() time.Duration {
	if h == nil {
		return 0
	}
	return time.Since(h.startedAt)
}

// Close disconnects every WebSocket client and drops telemetry subscribers.
func (h *Hub) Close() {
	if h == nil {
		return
	}
	h.mu.Lock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
		_ = client.conn.Close()
	}
	h.mu.Unlock()

	h.diffMu.Lock()
	for id, sub := range h.diffSubscribers {
		close(sub.ch)
		delete(h.diffSubscribers, id)
	}
	h.diffMu.Unlock()
}

// NotifyArrival pushes a one-shot arrival message to the session's clients.
// It is installed as the runner's arrival hook.
func (h *Hub) NotifyArrival(sessionID string, state vehicle.State) {
	if h == nil {
		return
	}
	payload, err := json.Marshal(struct {
		Type      string         `json:"type"`
		SessionID string         `json:"session_id"`
		State     *vehicle.State `json:"state"`
	}{Type: "arrived", SessionID: sessionID, State: &state})
	if err != nil {
		return
	}
	h.mu.Lock()
	for client := range h.clients {
		if client.sessionID != sessionID {
			continue
		}
		select {
		case client.send <- payload:
		default:
		}
	}
	h.mu.Unlock()
	h.log.Info("destination reached",
		logging.String("session_id", sessionID),
		logging.Float64("distance_km", state.DistanceToKm),
	)
}
