package session

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koskev/lazymc/pkg/lifecycle"
	"github.com/koskev/lazymc/pkg/proto"
	"github.com/koskev/lazymc/pkg/status"
)

type fakeController struct {
	kind    lifecycle.Kind
	cached  *status.ServerStatus
	ensured chan struct{}
}

func (f *fakeController) Snapshot() lifecycle.State { return lifecycle.State{Kind: f.kind} }
func (f *fakeController) CachedStatus() *status.ServerStatus { return f.cached }
func (f *fakeController) EnsureRunning() {
	if f.ensured != nil {
		select {
		case f.ensured <- struct{}{}:
		default:
		}
	}
}

func writeHandshake(t *testing.T, conn net.Conn, next proto.NextState) {
	t.Helper()
	hs := proto.Handshake{ProtocolVersion: 765, ServerAddress: "localhost", ServerPort: 25565, NextState: next}
	require.NoError(t, proto.WriteFrame(conn, proto.PacketHandshake, hs.Encode()))
}

func TestHandleStatusRespondsWithJSON(t *testing.T) {
	server, client := net.Pipe()
	h := &Handler{
		Controller:     &fakeController{kind: lifecycle.Stopped},
		StatusTemplate: status.Template{MotdSleeping: "zzz", VersionName: "1.20.4", Protocol: 765, MaxPlayers: 20},
	}

	done := make(chan struct{})
	go func() {
		h.Handle(context.Background(), server)
		close(done)
	}()

	writeHandshake(t, client, proto.NextStateStatus)
	require.NoError(t, proto.WriteFrame(client, proto.PacketStatusRequest, nil))

	br := bufio.NewReader(client)
	frame, err := proto.ReadFrame(br)
	require.NoError(t, err)
	assert.Equal(t, int32(proto.PacketStatusResponse), frame.ID)

	var resp proto.StatusResponse
	require.NoError(t, resp.Decode(frame.Payload))
	assert.Contains(t, resp.JSON, "zzz")

	ping := proto.StatusPing{Payload: 42}
	require.NoError(t, proto.WriteFrame(client, proto.PacketStatusPing, ping.Encode()))
	pongFrame, err := proto.ReadFrame(br)
	require.NoError(t, err)
	assert.Equal(t, int32(proto.PacketStatusPong), pongFrame.ID)

	client.Close()
	<-done
}

func TestHandleLoginWhenStoppedTriggersEnsureRunningAndKickHold(t *testing.T) {
	server, client := net.Pipe()
	ensured := make(chan struct{}, 1)
	h := &Handler{
		Controller:     &fakeController{kind: lifecycle.Stopped, ensured: ensured},
		StatusTemplate: status.Template{MotdStarting: "starting up"},
		LobbyEnabled:   false,
	}

	done := make(chan struct{})
	go func() {
		h.Handle(context.Background(), server)
		close(done)
	}()

	writeHandshake(t, client, proto.NextStateLogin)
	login := proto.LoginStart{Username: "Notch"}
	require.NoError(t, proto.WriteFrame(client, proto.PacketLoginStart, login.Encode(false)))

	select {
	case <-ensured:
	case <-time.After(time.Second):
		t.Fatal("EnsureRunning was not called")
	}

	br := bufio.NewReader(client)
	frame, err := proto.ReadFrame(br)
	require.NoError(t, err)
	assert.Equal(t, int32(proto.PacketLoginDisconnect), frame.ID)

	<-done
}

func TestHandleLoginWhenStartedRelaysToBackend(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	backendGotHandshake := make(chan struct{}, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		br := bufio.NewReader(conn)
		if _, err := proto.ReadFrame(br); err != nil { // handshake
			return
		}
		if _, err := proto.ReadFrame(br); err != nil { // login start
			return
		}
		backendGotHandshake <- struct{}{}
	}()

	server, client := net.Pipe()
	h := &Handler{
		Controller:  &fakeController{kind: lifecycle.Started},
		BackendAddr: ln.Addr().String(),
	}

	done := make(chan struct{})
	go func() {
		h.Handle(context.Background(), server)
		close(done)
	}()

	writeHandshake(t, client, proto.NextStateLogin)
	login := proto.LoginStart{Username: "Notch"}
	require.NoError(t, proto.WriteFrame(client, proto.PacketLoginStart, login.Encode(false)))

	select {
	case <-backendGotHandshake:
	case <-time.After(2 * time.Second):
		t.Fatal("backend never received replayed handshake + login start")
	}

	client.Close()
	<-done
}
