// Package probe confirms a starting backend is actually accepting
// logins by dialing it with a real status handshake, the same way a
// vanilla client's server list entry would. It retries with capped
// exponential backoff, grounded on the officialpriyam-Propel-Wings
// pack repo's use of github.com/cenkalti/backoff/v4 for the same
// dial-until-ready shape.
package probe

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/koskev/lazymc/pkg/proto"
	"github.com/koskev/lazymc/pkg/status"
)

// Prober dials backendAddr and waits for a successful status
// handshake, satisfying lifecycle.Prober.
type Prober struct {
	BackendAddr string

	// ProtocolVersion and the hostname/port sent in the handshake only
	// affect what the backend logs; any listening Minecraft server
	// answers a status request regardless of the declared version.
	ProtocolVersion int32
	Hostname        string
	Port            uint16

	// DialTimeout bounds each individual connection attempt; Probe's
	// own timeout parameter bounds the whole retry loop.
	DialTimeout time.Duration
}

// Probe repeatedly dials until the backend answers a status request or
// timeout elapses, backing off from 200ms up to a 2s cap between
// attempts.
func (p *Prober) Probe(ctx context.Context, timeout time.Duration) (*status.ServerStatus, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = 0 // bounded by cctx instead
	bctx := backoff.WithContext(bo, cctx)

	var result *status.ServerStatus
	op := func() error {
		st, err := p.dialOnce(cctx)
		if err != nil {
			return err
		}
		result = st
		return nil
	}

	if err := backoff.Retry(op, bctx); err != nil {
		return nil, fmt.Errorf("probe: backend never answered status within %s: %w", timeout, err)
	}
	return result, nil
}

func (p *Prober) dialOnce(ctx context.Context) (*status.ServerStatus, error) {
	dialTimeout := p.DialTimeout
	if dialTimeout == 0 {
		dialTimeout = time.Second
	}
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", p.BackendAddr)
	if err != nil {
		return nil, fmt.Errorf("probe: dial %s: %w", p.BackendAddr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	hs := proto.Handshake{
		ProtocolVersion: p.ProtocolVersion,
		ServerAddress:   p.Hostname,
		ServerPort:      p.Port,
		NextState:       proto.NextStateStatus,
	}
	if err := proto.WriteFrame(conn, proto.PacketHandshake, hs.Encode()); err != nil {
		return nil, fmt.Errorf("probe: write handshake: %w", err)
	}
	if err := proto.WriteFrame(conn, proto.PacketStatusRequest, nil); err != nil {
		return nil, fmt.Errorf("probe: write status request: %w", err)
	}

	br := bufio.NewReader(conn)
	frame, err := proto.ReadFrame(br)
	if err != nil {
		return nil, fmt.Errorf("probe: read status response: %w", err)
	}
	if frame.ID != proto.PacketStatusResponse {
		return nil, fmt.Errorf("probe: unexpected packet id %#x in status response", frame.ID)
	}

	var resp proto.StatusResponse
	if err := resp.Decode(frame.Payload); err != nil {
		return nil, fmt.Errorf("probe: decode status response: %w", err)
	}

	return parseStatusJSON(resp.JSON)
}

type statusJSON struct {
	Version struct {
		Name     string `json:"name"`
		Protocol int    `json:"protocol"`
	} `json:"version"`
	Description json.RawMessage `json:"description"`
	Favicon     string          `json:"favicon"`
	Players     struct {
		Sample []struct {
			Name string `json:"name"`
			ID   string `json:"id"`
		} `json:"sample"`
	} `json:"players"`
}

func parseStatusJSON(raw string) (*status.ServerStatus, error) {
	var sj statusJSON
	if err := json.Unmarshal([]byte(raw), &sj); err != nil {
		return nil, fmt.Errorf("probe: malformed status json: %w", err)
	}

	st := &status.ServerStatus{
		VersionName: sj.Version.Name,
		Protocol:    sj.Version.Protocol,
		Description: descriptionText(sj.Description),
	}
	for _, s := range sj.Players.Sample {
		st.Sample = append(st.Sample, status.PlayerSample{Name: s.Name, ID: s.ID})
	}
	if sj.Favicon != "" {
		st.FaviconPNG = decodeFaviconDataURI(sj.Favicon)
	}
	return st, nil
}

// descriptionText extracts a plain-text MOTD from either the string or
// chat-component-object form a backend may send.
func descriptionText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}
	var asComponent struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &asComponent); err == nil {
		return asComponent.Text
	}
	return ""
}

func decodeFaviconDataURI(uri string) []byte {
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(uri, prefix) {
		return nil
	}
	b, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	if err != nil {
		return nil
	}
	return b
}
