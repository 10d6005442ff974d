// Package session is the connection handler: per accepted client, it
// reads the handshake, dispatches to the status responder, and either
// relays straight through to a Started backend or hands the connection
// to the join-hold/lobby fallback while the backend wakes up. Modeled
// on the per-connection sessionHandler shape in the teacher proxy's
// pkg/proxy/connection.go, generalised from Gate's multi-backend router
// to lazymc's single always-or-not-yet-ready backend.
package session

import (
	"bufio"
	"context"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/koskev/lazymc/pkg/lifecycle"
	"github.com/koskev/lazymc/pkg/lobby"
	"github.com/koskev/lazymc/pkg/occupancy"
	"github.com/koskev/lazymc/pkg/proto"
	"github.com/koskev/lazymc/pkg/relay"
	"github.com/koskev/lazymc/pkg/status"
	"github.com/koskev/lazymc/pkg/uuidutil"
)

// Forge marker substrings the handshake's server_address carries on
// Forge (and FML2/3) clients; preserved verbatim when relaying.
const (
	forgeMarker1 = "\x00FML\x00"
	forgeMarker2 = "\x00FML2\x00"
	forgeMarker3 = "\x00FML3\x00"
)

// Controller is the subset of *lifecycle.Controller the handler needs.
type Controller interface {
	Snapshot() lifecycle.State
	CachedStatus() *status.ServerStatus
	EnsureRunning()
}

// Handler dispatches accepted client connections.
type Handler struct {
	Controller  Controller
	BackendAddr string
	Occupancy   *occupancy.Tracker
	Logger      *zap.Logger

	StatusTemplate status.Template
	LobbyEnabled   bool
	LobbyConfig    lobby.Config

	// ForgeCompat allows Forge/FML-marked clients into the fake lobby.
	// The simplified lobby join sequence does not negotiate a Forge mod
	// list, so by default Forge clients are kick-held instead, the same
	// way the teacher proxy's dedicated forge/modinfo handling exists
	// because vanilla-shaped packets are not enough for them.
	ForgeCompat bool

	// WakeOnStatus treats an incoming status ping itself as wake intent,
	// per spec.md's "wake on status" configurable heuristic.
	WakeOnStatus bool

	DialTimeout time.Duration
}

// Handle processes one accepted connection until it is relayed, held,
// or closed, and does not return until that session has ended.
func (h *Handler) Handle(ctx context.Context, conn net.Conn) {
	log := h.Logger
	if log == nil {
		log = zap.NewNop()
	}
	defer conn.Close()

	br := bufio.NewReader(conn)
	hsFrame, err := proto.ReadFrame(br)
	if err != nil {
		log.Debug("failed to read handshake", zap.Error(err))
		return
	}
	if hsFrame.ID != proto.PacketHandshake {
		log.Debug("unexpected first packet", zap.Int32("id", hsFrame.ID))
		return
	}
	var hs proto.Handshake
	if err := hs.Decode(hsFrame.Payload); err != nil {
		log.Debug("malformed handshake", zap.Error(err))
		return
	}

	switch hs.NextState {
	case proto.NextStateStatus:
		h.handleStatus(br, conn, hs)
	case proto.NextStateLogin:
		h.handleLogin(ctx, br, conn, hs, hsFrame)
	default:
		log.Debug("unknown next_state", zap.Int32("value", int32(hs.NextState)))
	}
}

func (h *Handler) handleStatus(br *bufio.Reader, conn net.Conn, hs proto.Handshake) {
	reqFrame, err := proto.ReadFrame(br)
	if err != nil || reqFrame.ID != proto.PacketStatusRequest {
		return
	}

	if h.WakeOnStatus {
		h.Controller.EnsureRunning()
	}

	phase, online := h.currentPhase()
	body, err := status.Build(h.StatusTemplate, h.Controller.CachedStatus(), phase, online, int(hs.ProtocolVersion))
	if err != nil {
		return
	}
	resp := proto.StatusResponse{JSON: body}
	if err := proto.WriteFrame(conn, proto.PacketStatusResponse, resp.Encode()); err != nil {
		return
	}

	pingFrame, err := proto.ReadFrame(br)
	if err != nil || pingFrame.ID != proto.PacketStatusPing {
		return
	}
	var ping proto.StatusPing
	if err := ping.Decode(pingFrame.Payload); err != nil {
		return
	}
	_ = proto.WriteFrame(conn, proto.PacketStatusPong, ping.Encode())
}

func (h *Handler) currentPhase() (status.Phase, int) {
	online := 0
	if h.Occupancy != nil {
		online = h.Occupancy.Count()
	}
	switch h.Controller.Snapshot().Kind {
	case lifecycle.Starting:
		return status.PhaseStarting, online
	case lifecycle.Stopping:
		return status.PhaseStopping, online
	case lifecycle.Started:
		return status.PhaseRunning, online
	default:
		return status.PhaseSleeping, online
	}
}

func (h *Handler) handleLogin(ctx context.Context, br *bufio.Reader, conn net.Conn, hs proto.Handshake, hsFrame *proto.Frame) {
	log := h.Logger
	if log == nil {
		log = zap.NewNop()
	}

	loginFrame, err := proto.ReadFrame(br)
	if err != nil || loginFrame.ID != proto.PacketLoginStart {
		return
	}
	var login proto.LoginStart
	if err := login.Decode(loginFrame.Payload, false); err != nil {
		log.Debug("malformed login start", zap.Error(err))
		return
	}

	isForge := isForgeHandshake(hs.ServerAddress)
	if isForge {
		log.Debug("forge client detected", zap.String("user", login.Username))
	}

	switch h.Controller.Snapshot().Kind {
	case lifecycle.Started:
		h.relayToBackend(ctx, conn, hsFrame, loginFrame, login.Username)
	default:
		h.Controller.EnsureRunning()
		if h.LobbyEnabled && (!isForge || h.ForgeCompat) {
			h.enterLobby(ctx, conn, login.Username)
			return
		}
		if err := lobby.KickHold(conn, h.StatusTemplate.MotdStarting); err != nil {
			log.Debug("kick-hold failed", zap.Error(err))
		}
	}
}

func isForgeHandshake(serverAddress string) bool {
	return strings.Contains(serverAddress, forgeMarker1) ||
		strings.Contains(serverAddress, forgeMarker2) ||
		strings.Contains(serverAddress, forgeMarker3)
}

func (h *Handler) relayToBackend(ctx context.Context, client net.Conn, hsFrame, loginFrame *proto.Frame, username string) {
	log := h.Logger
	if log == nil {
		log = zap.NewNop()
	}

	dialTimeout := h.DialTimeout
	if dialTimeout == 0 {
		dialTimeout = 5 * time.Second
	}
	dialer := net.Dialer{Timeout: dialTimeout}
	backend, err := dialer.DialContext(ctx, "tcp", h.BackendAddr)
	if err != nil {
		log.Warn("failed to dial backend for relay", zap.String("user", username), zap.Error(err))
		_ = lobby.KickHold(client, "Failed to connect to the server, please try again.")
		return
	}

	if err := proto.WriteFrame(backend, hsFrame.ID, hsFrame.Payload); err != nil {
		backend.Close()
		return
	}
	if err := proto.WriteFrame(backend, loginFrame.ID, loginFrame.Payload); err != nil {
		backend.Close()
		return
	}

	if h.Occupancy != nil {
		h.Occupancy.Inc()
		defer h.Occupancy.Dec()
	}
	if err := relay.Pump(ctx, client, backend); err != nil {
		log.Debug("relay ended", zap.String("user", username), zap.Error(err))
	}
}

func (h *Handler) enterLobby(ctx context.Context, conn net.Conn, username string) {
	log := h.Logger
	if log == nil {
		log = zap.NewNop()
	}
	id := uuidutil.Offline(username)

	if h.Occupancy != nil {
		h.Occupancy.Inc()
		defer h.Occupancy.Dec()
	}

	ready := func() bool { return h.Controller.Snapshot().Kind == lifecycle.Started }
	if err := lobby.Run(ctx, conn, username, id, h.LobbyConfig, 0, ready); err != nil {
		log.Debug("lobby session ended", zap.String("user", username), zap.Error(err))
	}
}
