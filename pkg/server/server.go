// Package server wires together every other package into the running
// proxy: it owns the listener accept loop, the lifecycle controller,
// the occupancy tracker, and config-reload plumbing. Shaped after the
// teacher's pkg/proxy.Proxy, the single type cmd/gate.Run constructs
// and calls Run/Shutdown on.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pires/go-proxyproto"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/koskev/lazymc/pkg/config"
	"github.com/koskev/lazymc/pkg/favicon"
	"github.com/koskev/lazymc/pkg/lifecycle"
	"github.com/koskev/lazymc/pkg/lobby"
	"github.com/koskev/lazymc/pkg/occupancy"
	"github.com/koskev/lazymc/pkg/probe"
	"github.com/koskev/lazymc/pkg/process"
	"github.com/koskev/lazymc/pkg/rcon"
	"github.com/koskev/lazymc/pkg/session"
	"github.com/koskev/lazymc/pkg/status"
)

// Server owns the listener and every long-running dependency started
// alongside it.
type Server struct {
	logger *zap.Logger

	cfg atomic.Value // config.Config

	listener   net.Listener
	controller *lifecycle.Controller
	occupancy  *occupancy.Tracker
	handler    *session.Handler

	wg sync.WaitGroup
}

// New builds a Server from cfg but does not yet bind a listener or
// start the lifecycle controller; call Run for that.
func New(cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{logger: logger}
	s.cfg.Store(cfg)
	return s
}

func (s *Server) config() config.Config { return s.cfg.Load().(config.Config) }

// Run binds the listener, starts the lifecycle controller, and blocks
// accepting connections until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	cfg := s.config()

	ln, err := net.Listen("tcp", cfg.Network.PublicAddress)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", cfg.Network.PublicAddress, err)
	}
	s.listener = ln
	if cfg.Network.ProxyProtocolMode == "receive" {
		s.listener = &proxyproto.Listener{Listener: ln}
	}
	defer s.listener.Close()

	sup := &process.Supervisor{StartCommand: cfg.Server.StartCommand, WorkingDir: cfg.Server.WorkingDir}
	prb := &probe.Prober{
		BackendAddr:     cfg.Network.BackendAddress,
		ProtocolVersion: int32(cfg.Motd.ProtocolVersion),
		Port:            backendPort(cfg.Network.BackendAddress),
	}

	var stopper lifecycle.Stopper
	if cfg.Server.SendStopViaRCON {
		stopper = rcon.Client{
			Address:  fmt.Sprintf("127.0.0.1:%d", cfg.Server.RCONPort),
			Password: cfg.Server.RCONPassword,
		}
	}

	s.controller = lifecycle.New(ctx, lifecycle.Options{
		Spawner:      sup,
		Prober:       prb,
		Stopper:      stopper,
		StartTimeout: cfg.Timing.StartDeadline(),
		StopTimeout:  cfg.Timing.StopDeadline(),
		SleepAfter:   cfg.Timing.SleepAfter(),
		WakeOnCrash:  cfg.Server.WakeOnCrash,
		Logger:       s.logger,
	})
	s.occupancy = occupancy.New(time.Second, s.controller.OnOccupancyZero, s.controller.OnOccupancyNonZero)

	var faviconPNG []byte
	if cfg.Motd.FaviconPath != "" {
		b, err := favicon.Load(cfg.Motd.FaviconPath)
		if err != nil {
			s.logger.Warn("failed to load favicon, status replies will omit it",
				zap.String("path", cfg.Motd.FaviconPath), zap.Error(err))
		} else {
			faviconPNG = b
		}
	}

	s.handler = &session.Handler{
		Controller:  s.controller,
		BackendAddr: cfg.Network.BackendAddress,
		Occupancy:   s.occupancy,
		Logger:      s.logger,
		StatusTemplate: status.Template{
			MotdSleeping: cfg.Motd.Sleeping,
			MotdStarting: cfg.Motd.Starting,
			MotdStopping: cfg.Motd.Stopping,
			VersionName:  cfg.Motd.VersionName,
			Protocol:     cfg.Motd.ProtocolVersion,
			MaxPlayers:   20,
			FaviconPNG:   faviconPNG,
		},
		LobbyEnabled: cfg.Lobby.Enabled,
		LobbyConfig:  lobbyConfigFrom(cfg),
		ForgeCompat:  cfg.Server.ForgeCompat,
		WakeOnStatus: cfg.Server.WakeOnStatus,
	}

	if cfg.Server.WakeOnStart {
		s.controller.EnsureRunning()
	}

	s.logger.Info("listening", zap.String("address", cfg.Network.PublicAddress))

	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return nil
			default:
				return fmt.Errorf("server: accept: %w", err)
			}
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			stop := make(chan struct{})
			defer close(stop)
			go func() {
				select {
				case <-ctx.Done():
					_ = conn.Close()
				case <-stop:
				}
			}()
			s.handler.Handle(ctx, conn)
		}()
	}
}

// Reload swaps the active config and pushes the parts that affect
// running components (timeouts, RCON target) into the lifecycle
// controller, without restarting the listener or the backend process.
func (s *Server) Reload(cfg config.Config) {
	s.cfg.Store(cfg)
	if s.controller == nil {
		return
	}
	var stopper lifecycle.Stopper
	if cfg.Server.SendStopViaRCON {
		stopper = rcon.Client{
			Address:  fmt.Sprintf("127.0.0.1:%d", cfg.Server.RCONPort),
			Password: cfg.Server.RCONPassword,
		}
	}
	s.controller.Reload(lifecycle.Options{
		Spawner:      &process.Supervisor{StartCommand: cfg.Server.StartCommand, WorkingDir: cfg.Server.WorkingDir},
		Prober: &probe.Prober{
			BackendAddr:     cfg.Network.BackendAddress,
			ProtocolVersion: int32(cfg.Motd.ProtocolVersion),
			Port:            backendPort(cfg.Network.BackendAddress),
		},
		Stopper:      stopper,
		StartTimeout: cfg.Timing.StartDeadline(),
		StopTimeout:  cfg.Timing.StopDeadline(),
		SleepAfter:   cfg.Timing.SleepAfter(),
		WakeOnCrash:  cfg.Server.WakeOnCrash,
		Logger:       s.logger,
	})
}

// Snapshot exposes the current backend lifecycle state.
func (s *Server) Snapshot() lifecycle.State { return s.controller.Snapshot() }

func lobbyConfigFrom(cfg config.Config) lobby.Config {
	return lobby.Config{
		Message:      cfg.Lobby.Message,
		ReadyMessage: "Server ready, please reconnect",
		Timeout:      cfg.Lobby.Timeout(),
		KeepAlive:    10 * time.Second,
	}
}

func backendPort(addr string) uint16 {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 25565
	}
	var port int
	_, _ = fmt.Sscanf(portStr, "%d", &port)
	return uint16(port)
}
