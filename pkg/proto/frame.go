package proto

import (
	"bufio"
	"bytes"
	"io"
)

// MaxFrameLength caps a single inbound packet so a malicious or broken
// client cannot force unbounded memory growth; vanilla packets relevant
// to lazymc (handshake, login, status) are all well under 1 MiB.
const MaxFrameLength = 1 << 20

// Frame is a decoded, length-prefixed Minecraft packet: a VarInt packet
// id followed by its payload. Frames are always read and written
// uncompressed and unencrypted; lazymc never completes a login far
// enough to need either.
type Frame struct {
	ID      int32
	Payload []byte
}

// ReadFrame reads one length-prefixed packet from r.
func ReadFrame(r *bufio.Reader) (*Frame, error) {
	length, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if length < 0 || length > MaxFrameLength {
		return nil, ErrMalformed
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, ErrTruncated
	}
	br := bytes.NewReader(body)
	id, err := ReadVarInt(br)
	if err != nil {
		return nil, err
	}
	payload := body[len(body)-br.Len():]
	return &Frame{ID: id, Payload: payload}, nil
}

// WriteFrame writes a length-prefixed packet to w.
func WriteFrame(w io.Writer, id int32, payload []byte) error {
	var idBuf bytes.Buffer
	if err := WriteVarInt(&idBuf, id); err != nil {
		return err
	}
	length := int32(idBuf.Len() + len(payload))
	var out bytes.Buffer
	out.Grow(int(length) + MaxVarIntLen)
	if err := WriteVarInt(&out, length); err != nil {
		return err
	}
	out.Write(idBuf.Bytes())
	out.Write(payload)
	_, err := w.Write(out.Bytes())
	return err
}
