package proto

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// MaxStringLength is the general-purpose bound on a Minecraft protocol
// string, counted in characters (runes), not encoded bytes.
const MaxStringLength = 32767

// MaxIdentifierLength bounds usernames and server addresses sent during
// the handshake/login phase.
const MaxIdentifierLength = 255

// byteReader is the minimal interface ReadString and friends need to
// read both a VarInt prefix and the following raw bytes.
type byteReader interface {
	io.ByteReader
	io.Reader
}

// byteWriter is the minimal interface WriteString and friends need;
// *bytes.Buffer and bufio.Writer both satisfy it.
type byteWriter interface {
	io.ByteWriter
	io.Writer
}

// ReadString reads a length-prefixed UTF-8 string, refusing to read more
// than maxLen runes.
func ReadString(r byteReader, maxLen int) (string, error) {
	n, err := ReadVarInt(r)
	if err != nil {
		return "", err
	}
	if n < 0 || int(n) > maxLen*4 {
		return "", ErrStringTooLong
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", ErrTruncated
	}
	s := string(buf)
	if len([]rune(s)) > maxLen {
		return "", ErrStringTooLong
	}
	return s, nil
}

// WriteString writes a length-prefixed UTF-8 string.
func WriteString(w byteWriter, s string) error {
	if len([]rune(s)) > MaxStringLength {
		return ErrStringTooLong
	}
	if err := WriteVarInt(w, int32(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

// ReadUUID reads a 128-bit big-endian UUID.
func ReadUUID(r io.Reader) (uuid.UUID, error) {
	var buf [16]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return uuid.UUID{}, ErrTruncated
	}
	return uuid.UUID(buf), nil
}

// WriteUUID writes a 128-bit big-endian UUID.
func WriteUUID(w io.Writer, id uuid.UUID) error {
	_, err := w.Write(id[:])
	return err
}

// ReadBool reads a single-byte boolean.
func ReadBool(r io.ByteReader) (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, ErrTruncated
	}
	return b != 0, nil
}

// ReadUnsignedShort reads a big-endian uint16, as used for the
// handshake's server_port field.
func ReadUnsignedShort(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, ErrTruncated
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// WriteUnsignedShort writes a big-endian uint16.
func WriteUnsignedShort(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// NextState is the handshake's declared intent.
type NextState int32

const (
	NextStateStatus NextState = 1
	NextStateLogin  NextState = 2
)

func (s NextState) String() string {
	switch s {
	case NextStateStatus:
		return "status"
	case NextStateLogin:
		return "login"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}
