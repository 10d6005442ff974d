// Package lobby implements the two join-hold strategies a connection
// handler falls back to while a backend is not yet Started: a one-shot
// kick-hold, and a full fake-lobby session that completes the login →
// play transition so the client stays connected. The lobby's pending
// keepalive tracking is grounded on the teacher proxy's
// loginPluginMessages deque in pkg/proxy/session_client_play.go, the
// same push-back/pop-front queue shape applied to keepalive ids instead
// of plugin messages: ids are pushed on send and popped once the
// matching serverbound echo arrives, and a client that falls
// maxOutstandingKeepAlives behind is disconnected as unresponsive.
package lobby

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"time"

	"github.com/gammazero/deque"
	"github.com/google/uuid"

	"github.com/koskev/lazymc/pkg/chat"
	"github.com/koskev/lazymc/pkg/proto"
)

// maxOutstandingKeepAlives bounds how many un-acked keepalives the lobby
// tolerates before treating the client as gone; a healthy client echoes
// every keepalive within a round trip, so this is generous headroom for
// a slow network rather than a real budget.
const maxOutstandingKeepAlives = 4

// KickHold sends a single LoginDisconnect with msg and closes the
// connection; always available regardless of whether the lobby is
// enabled, per the "Server is starting, please reconnect" fallback.
func KickHold(conn net.Conn, msg string) error {
	defer conn.Close()
	reason, err := chat.String(chat.Text(msg))
	if err != nil {
		return err
	}
	d := proto.LoginDisconnect{Reason: reason}
	return proto.WriteFrame(conn, proto.PacketLoginDisconnect, d.Encode())
}

// Config holds the templated strings and timing the lobby needs; it
// mirrors the [lobby] section of the configuration file.
type Config struct {
	Message      string
	ReadyMessage string
	Timeout      time.Duration
	KeepAlive    time.Duration // must be <= 15s per the component design
}

// Ready reports when the backend has become reachable; Run polls it
// once per keepalive tick rather than requiring a dedicated channel, so
// callers can hand it a plain closure over lifecycle.Controller.Snapshot.
type Ready func() bool

// Run drives one client through the fake lobby until the backend is
// ready, the client disconnects, or lobby.timeout elapses. id is the
// offline-derived identity already computed by the caller.
func Run(ctx context.Context, conn net.Conn, username string, id uuid.UUID, cfg Config, protocolVersion int32, ready Ready) error {
	defer conn.Close()

	if err := sendLoginSuccess(conn, id, username); err != nil {
		return fmt.Errorf("lobby: login success: %w", err)
	}
	if err := sendJoinSequence(conn, cfg); err != nil {
		return fmt.Errorf("lobby: join sequence: %w", err)
	}

	keepAlive := cfg.KeepAlive
	if keepAlive <= 0 || keepAlive > 15*time.Second {
		keepAlive = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	clientGone := make(chan error, 1)
	acks := make(chan int64, maxOutstandingKeepAlives+1)
	go func() {
		br := bufio.NewReader(conn)
		for {
			frame, err := proto.ReadFrame(br)
			if err != nil {
				clientGone <- err
				return
			}
			if frame.ID != proto.PacketPlayKeepAliveServerbound {
				// Other play-state packets (client settings, plugin
				// messages) are accepted but not otherwise interpreted
				// during the hold.
				continue
			}
			var ka proto.KeepAlive
			if err := ka.Decode(frame.Payload); err != nil {
				continue
			}
			select {
			case acks <- ka.ID:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	var outstanding deque.Deque[int64]
	var nextID int64

	for {
		select {
		case <-ctx.Done():
			return sendDisconnect(conn, timeoutMessage(cfg))

		case err := <-clientGone:
			return err

		case id := <-acks:
			ackKeepAlive(&outstanding, id)

		case <-ticker.C:
			if ready != nil && ready() {
				msg := cfg.ReadyMessage
				if msg == "" {
					msg = "Server ready, please reconnect"
				}
				return sendDisconnect(conn, msg)
			}

			if outstanding.Len() >= maxOutstandingKeepAlives {
				return sendDisconnect(conn, "Disconnected: no keepalive response")
			}

			ka := proto.KeepAlive{ID: nextID}
			nextID++
			if err := proto.WriteFrame(conn, proto.PacketPlayKeepAliveClientbound, ka.Encode()); err != nil {
				return fmt.Errorf("lobby: write keepalive: %w", err)
			}
			outstanding.PushBack(ka.ID)
		}
	}
}

// ackKeepAlive pops every id up to and including a matching one from the
// front of outstanding. Keepalives are always acked in the order they
// were sent, so a match anywhere but the front means one or more earlier
// ids were skipped by the client and are dropped along with it; an id
// that matches nothing (a stale or forged echo) is ignored entirely.
func ackKeepAlive(outstanding *deque.Deque[int64], id int64) {
	for i := 0; i < outstanding.Len(); i++ {
		if outstanding.At(i) == id {
			for j := 0; j <= i; j++ {
				outstanding.PopFront()
			}
			return
		}
	}
}

func timeoutMessage(cfg Config) string {
	if cfg.Message != "" {
		return "Still waiting for the server to start. Please try again later."
	}
	return "Timed out waiting for the server to start."
}

func sendLoginSuccess(conn net.Conn, id uuid.UUID, username string) error {
	s := proto.LoginSuccess{UUID: id, Username: username}
	return proto.WriteFrame(conn, proto.PacketLoginSuccess, s.Encode())
}

func sendJoinSequence(conn net.Conn, cfg Config) error {
	join := proto.JoinGame{
		EntityID:            1,
		Gamemode:            3, // spectator: no HUD elements the lobby can't back
		PreviousGamemode:    -1,
		DimensionNames:      []string{proto.LobbyDimension},
		DimensionCodec:      proto.BuildDimensionCodec(),
		DimensionType:       proto.LobbyDimension,
		WorldName:           proto.LobbyDimension,
		MaxPlayers:          1,
		ViewDistance:        2,
		SimulationDistance:  2,
		ReducedDebugInfo:    true,
		EnableRespawnScreen: false,
		IsFlat:              true,
	}
	if err := proto.WriteFrame(conn, proto.PacketPlayJoinGame, join.Encode()); err != nil {
		return err
	}

	chunk := proto.ChunkData{ChunkX: 0, ChunkZ: 0}
	if err := proto.WriteFrame(conn, proto.PacketPlayChunkData, chunk.Encode()); err != nil {
		return err
	}

	pos := proto.PlayerPositionAndLook{X: 8, Y: 10, Z: 8, TeleportID: 1}
	if err := proto.WriteFrame(conn, proto.PacketPlayPlayerPosLook, pos.Encode()); err != nil {
		return err
	}

	if cfg.Message != "" {
		title, err := chat.String(chat.Text(cfg.Message))
		if err != nil {
			return err
		}
		bar := proto.BossBar{UUID: uuid.New(), Title: title, Health: 1}
		if err := proto.WriteFrame(conn, proto.PacketPlayBossBar, bar.Encode()); err != nil {
			return err
		}
	}
	return nil
}

func sendDisconnect(conn net.Conn, msg string) error {
	reason, err := chat.String(chat.Text(msg))
	if err != nil {
		return err
	}
	d := proto.PlayDisconnect{Reason: reason}
	return proto.WriteFrame(conn, proto.PacketPlayDisconnect, d.Encode())
}
