package proto

import (
	"bytes"
	"encoding/binary"

	"github.com/google/uuid"
)

// Packet ids for the subset of the Java Edition protocol lazymc speaks.
// These match the Notchian protocol for the version range lazymc targets
// (1.7 through modern releases keep these ids stable across the
// handshake/status/login states that matter here).
const (
	PacketHandshake = 0x00

	PacketStatusRequest  = 0x00
	PacketStatusResponse = 0x00
	PacketStatusPing     = 0x01
	PacketStatusPong     = 0x01

	PacketLoginStart       = 0x00
	PacketLoginDisconnect  = 0x00
	PacketLoginSuccess     = 0x02

	PacketPlayDisconnect           = 0x1B
	PacketPlayKeepAliveClientbound = 0x21
	PacketPlayKeepAliveServerbound = 0x0F
	PacketPlayJoinGame             = 0x25
	PacketPlayChunkData            = 0x22
	PacketPlayPlayerPosLook        = 0x38
	PacketPlayPluginMessage        = 0x17
	PacketPlayBossBar              = 0x0A
	PacketPlaySetTitleText         = 0x5A
)

// Handshake is the first packet sent on any connection.
type Handshake struct {
	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
	NextState       NextState
}

// Decode parses a Handshake from frame payload bytes.
func (h *Handshake) Decode(payload []byte) error {
	r := bytes.NewReader(payload)
	v, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	addr, err := ReadString(r, MaxIdentifierLength)
	if err != nil {
		return err
	}
	port, err := ReadUnsignedShort(r)
	if err != nil {
		return err
	}
	next, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	h.ProtocolVersion = v
	h.ServerAddress = addr
	h.ServerPort = port
	h.NextState = NextState(next)
	return nil
}

// Encode serialises the Handshake to wire bytes, used by the probe's
// status dial. Relay replays the client's original handshake frame
// payload instead of re-encoding it.
func (h *Handshake) Encode() []byte {
	var buf bytes.Buffer
	_ = WriteVarInt(&buf, h.ProtocolVersion)
	_ = WriteString(&buf, h.ServerAddress)
	_ = WriteUnsignedShort(&buf, h.ServerPort)
	_ = WriteVarInt(&buf, int32(h.NextState))
	return buf.Bytes()
}

// StatusResponse carries the raw JSON payload of a server list ping
// response; JSON construction itself lives in pkg/status.
type StatusResponse struct {
	JSON string
}

func (s *StatusResponse) Decode(payload []byte) error {
	r := bytes.NewReader(payload)
	v, err := ReadString(r, 1<<20)
	if err != nil {
		return err
	}
	s.JSON = v
	return nil
}

func (s *StatusResponse) Encode() []byte {
	var buf bytes.Buffer
	_ = WriteString(&buf, s.JSON)
	return buf.Bytes()
}

// StatusPing/Pong echo an opaque 8-byte payload.
type StatusPing struct{ Payload int64 }

func (p *StatusPing) Decode(payload []byte) error {
	r := bytes.NewReader(payload)
	v, err := readInt64(r)
	if err != nil {
		return err
	}
	p.Payload = v
	return nil
}

func (p *StatusPing) Encode() []byte {
	var buf bytes.Buffer
	writeInt64(&buf, p.Payload)
	return buf.Bytes()
}

// LoginStart is the client's declared identity at the start of a login
// sequence. UUID is only present on protocol versions that send it; a
// nil UUID means "derive it offline".
type LoginStart struct {
	Username string
	UUID     *uuid.UUID
}

func (l *LoginStart) Decode(payload []byte, hasUUID bool) error {
	r := bytes.NewReader(payload)
	name, err := ReadString(r, MaxIdentifierLength)
	if err != nil {
		return err
	}
	l.Username = name
	if hasUUID && r.Len() >= 16 {
		id, err := ReadUUID(r)
		if err != nil {
			return err
		}
		l.UUID = &id
	}
	return nil
}

func (l *LoginStart) Encode(hasUUID bool) []byte {
	var buf bytes.Buffer
	_ = WriteString(&buf, l.Username)
	if hasUUID {
		id := uuid.Nil
		if l.UUID != nil {
			id = *l.UUID
		}
		_ = WriteUUID(&buf, id)
	}
	return buf.Bytes()
}

// LoginDisconnect kicks a connection still in the login state with a
// chat-component JSON reason.
type LoginDisconnect struct{ Reason string }

func (d *LoginDisconnect) Encode() []byte {
	var buf bytes.Buffer
	_ = WriteString(&buf, d.Reason)
	return buf.Bytes()
}

// LoginSuccess completes a synthesised login, handing the client its
// (offline-derived) identity before the lobby's Play sequence begins.
type LoginSuccess struct {
	UUID     uuid.UUID
	Username string
}

func (s *LoginSuccess) Encode() []byte {
	var buf bytes.Buffer
	_ = WriteUUID(&buf, s.UUID)
	_ = WriteString(&buf, s.Username)
	return buf.Bytes()
}

// PlayDisconnect kicks a client already in the Play state (used by the
// lobby once the backend is ready, or on lobby timeout).
type PlayDisconnect struct{ Reason string }

func (d *PlayDisconnect) Encode() []byte {
	var buf bytes.Buffer
	_ = WriteString(&buf, d.Reason)
	return buf.Bytes()
}

// KeepAlive carries an opaque id the client must echo back; the lobby
// sends these on a timer and expects the matching serverbound echo.
type KeepAlive struct{ ID int64 }

func (k *KeepAlive) Encode() []byte {
	var buf bytes.Buffer
	writeInt64(&buf, k.ID)
	return buf.Bytes()
}

func (k *KeepAlive) Decode(payload []byte) error {
	r := bytes.NewReader(payload)
	v, err := readInt64(r)
	if err != nil {
		return err
	}
	k.ID = v
	return nil
}

// PluginMessage is forwarded verbatim in both directions once relayed;
// the lobby never needs to interpret its payload.
type PluginMessage struct {
	Channel string
	Data    []byte
}

func (p *PluginMessage) Encode() []byte {
	var buf bytes.Buffer
	_ = WriteString(&buf, p.Channel)
	buf.Write(p.Data)
	return buf.Bytes()
}

// JoinGame synthesises the 1.20.x-shaped join packet the lobby hands a
// held client: a single-dimension world, spectator gamemode, and a
// reduced view/simulation distance so the client never tries to render
// real terrain.
type JoinGame struct {
	EntityID            int32
	IsHardcore          bool
	Gamemode            byte
	PreviousGamemode    int8
	DimensionNames      []string
	DimensionCodec      []byte // full NBT document, e.g. from BuildDimensionCodec
	DimensionType       string
	WorldName           string
	HashedSeed          int64
	MaxPlayers          int32
	ViewDistance        int32
	SimulationDistance  int32
	ReducedDebugInfo    bool
	EnableRespawnScreen bool
	IsDebug             bool
	IsFlat              bool
}

func (j *JoinGame) Encode() []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, j.EntityID)
	buf.WriteByte(boolByte(j.IsHardcore))
	buf.WriteByte(j.Gamemode)
	buf.WriteByte(byte(j.PreviousGamemode))
	_ = WriteVarInt(&buf, int32(len(j.DimensionNames)))
	for _, d := range j.DimensionNames {
		_ = WriteString(&buf, d)
	}
	buf.Write(j.DimensionCodec)
	_ = WriteString(&buf, j.DimensionType)
	_ = WriteString(&buf, j.WorldName)
	_ = binary.Write(&buf, binary.BigEndian, j.HashedSeed)
	_ = WriteVarInt(&buf, j.MaxPlayers)
	_ = WriteVarInt(&buf, j.ViewDistance)
	_ = WriteVarInt(&buf, j.SimulationDistance)
	buf.WriteByte(boolByte(j.ReducedDebugInfo))
	buf.WriteByte(boolByte(j.EnableRespawnScreen))
	buf.WriteByte(boolByte(j.IsDebug))
	buf.WriteByte(boolByte(j.IsFlat))
	buf.WriteByte(0) // no death location
	_ = WriteVarInt(&buf, 0) // portal cooldown
	return buf.Bytes()
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// PlayerPositionAndLook locks the held client in place at the lobby's
// synthesised spawn point.
type PlayerPositionAndLook struct {
	X, Y, Z       float64
	Yaw, Pitch    float32
	TeleportID    int32
}

func (p *PlayerPositionAndLook) Encode() []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, p.X)
	_ = binary.Write(&buf, binary.BigEndian, p.Y)
	_ = binary.Write(&buf, binary.BigEndian, p.Z)
	_ = binary.Write(&buf, binary.BigEndian, p.Yaw)
	_ = binary.Write(&buf, binary.BigEndian, p.Pitch)
	buf.WriteByte(0) // relative-flags: all absolute
	_ = WriteVarInt(&buf, p.TeleportID)
	return buf.Bytes()
}

// ChunkData is a minimal, fully-empty chunk: no sections, no block
// entities, no heightmap data beyond an empty NBT compound. Enough to
// satisfy a vanilla client's expectation that chunks exist near the
// player without lazymc ever generating real terrain.
type ChunkData struct {
	ChunkX, ChunkZ int32
}

func (c *ChunkData) Encode() []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, c.ChunkX)
	_ = binary.Write(&buf, binary.BigEndian, c.ChunkZ)
	buf.Write([]byte{0x0A, 0x00, 0x00, 0x00}) // empty heightmaps compound, TAG_End terminated
	_ = WriteVarInt(&buf, 0)                  // data size: no sections
	_ = WriteVarInt(&buf, 0)                  // no block entities
	buf.WriteByte(0)                          // trust edges: false
	_ = WriteVarInt(&buf, 0)                  // sky light mask
	_ = WriteVarInt(&buf, 0)                  // block light mask
	_ = WriteVarInt(&buf, 0)                  // empty sky light mask
	_ = WriteVarInt(&buf, 0)                  // empty block light mask
	_ = WriteVarInt(&buf, 0)                  // sky light arrays
	_ = WriteVarInt(&buf, 0)                  // block light arrays
	return buf.Bytes()
}

// BossBar adds a single boss bar showing the lobby.message text while a
// client waits for the backend to come up.
type BossBar struct {
	UUID   uuid.UUID
	Title  string // pre-rendered chat component JSON
	Health float32
}

func (b *BossBar) Encode() []byte {
	var buf bytes.Buffer
	_ = WriteUUID(&buf, b.UUID)
	_ = WriteVarInt(&buf, 0) // action: add
	_ = WriteString(&buf, b.Title)
	_ = binary.Write(&buf, binary.BigEndian, b.Health)
	_ = WriteVarInt(&buf, 0) // color: pink
	_ = WriteVarInt(&buf, 0) // division: none
	buf.WriteByte(0)         // flags
	return buf.Bytes()
}

// BossBarRemove removes a previously-added boss bar by id.
type BossBarRemove struct{ UUID uuid.UUID }

func (b *BossBarRemove) Encode() []byte {
	var buf bytes.Buffer
	_ = WriteUUID(&buf, b.UUID)
	_ = WriteVarInt(&buf, 1) // action: remove
	return buf.Bytes()
}

func readInt64(r *bytes.Reader) (int64, error) {
	if r.Len() < 8 {
		return 0, ErrTruncated
	}
	var v int64
	for i := 0; i < 8; i++ {
		b, _ := r.ReadByte()
		v = v<<8 | int64(b)
	}
	return v, nil
}

func writeInt64(buf *bytes.Buffer, v int64) {
	var b [8]byte
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	buf.Write(b[:])
}
