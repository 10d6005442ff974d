// Package status builds the JSON "server list ping" response lazymc
// answers with, in every backend state, and defines ServerStatus, the
// cached copy of the last response a live backend produced (held by the
// lifecycle controller) so the proxy can keep serving a realistic MOTD
// while the backend is stopped or starting.
package status

import (
	"encoding/base64"
	"encoding/json"

	"github.com/koskev/lazymc/pkg/chat"
)

// Phase is the subset of backend lifecycle the status responder cares
// about when picking a description template; it is intentionally
// decoupled from pkg/lifecycle's Kind so this package has no dependency
// on the lifecycle actor.
type Phase int

const (
	PhaseSleeping Phase = iota
	PhaseStarting
	PhaseStopping
	PhaseRunning
)

// PlayerSample is one entry of the player-sample list shown in a
// client's server list tooltip.
type PlayerSample struct {
	Name string
	ID   string
}

// ServerStatus is a cached copy of the last successful status response:
// version name, protocol number, description, favicon bytes and player
// sample. It survives across Stopping/Stopped transitions so the
// responder can keep showing a realistic MOTD; it is invalidated only
// on explicit reconfiguration.
type ServerStatus struct {
	VersionName string
	Protocol    int
	Description string
	Sample      []PlayerSample
	FaviconPNG  []byte
	Forge       bool
}

// Template is the presentation configuration the responder reads on
// every request: MOTD strings per phase, max player count, version
// strings and an optional favicon.
type Template struct {
	MotdSleeping string
	MotdStarting string
	MotdStopping string
	VersionName  string
	Protocol     int
	MaxPlayers   int
	FaviconPNG   []byte
}

type versionField struct {
	Name     string `json:"name"`
	Protocol int    `json:"protocol"`
}

type playersField struct {
	Max    int            `json:"max"`
	Online int            `json:"online"`
	Sample []sampleEntry  `json:"sample,omitempty"`
}

type sampleEntry struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type response struct {
	Version     versionField    `json:"version"`
	Players     playersField    `json:"players"`
	Description chat.Component  `json:"description"`
	Favicon     string          `json:"favicon,omitempty"`
}

// Build renders the status JSON for the current phase and occupancy.
// clientProtocol is the protocol version the connecting client declared
// in its handshake; it does not change the reported protocol, which is
// always the backend's (or the configured fallback), so a newer client
// sees the backend's version as incompatible.
func Build(tpl Template, cached *ServerStatus, phase Phase, online int, clientProtocol int) (string, error) {
	versionName := tpl.VersionName
	protocol := tpl.Protocol
	var sample []sampleEntry
	favicon := tpl.FaviconPNG
	description := descriptionFor(tpl, phase)

	if cached != nil {
		if cached.VersionName != "" {
			versionName = cached.VersionName
		}
		if cached.Protocol != 0 {
			protocol = cached.Protocol
		}
		if len(cached.FaviconPNG) > 0 {
			favicon = cached.FaviconPNG
		}
		if phase == PhaseRunning && cached.Description != "" {
			description = chat.Text(cached.Description)
		}
		for _, s := range cached.Sample {
			sample = append(sample, sampleEntry{Name: s.Name, ID: s.ID})
		}
	}

	// protocol always reflects what the backend supports (or, absent a
	// successful probe yet, the configured fallback); clientProtocol is
	// accepted for callers that want to log a version mismatch but never
	// changes what gets reported, so vanilla clients render "incompatible
	// version" rather than a confusing mismatch.

	resp := response{
		Version:     versionField{Name: versionName, Protocol: protocol},
		Players:     playersField{Max: tpl.MaxPlayers, Online: online, Sample: sample},
		Description: description,
	}
	if len(favicon) > 0 {
		resp.Favicon = "data:image/png;base64," + base64.StdEncoding.EncodeToString(favicon)
	}

	b, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func descriptionFor(tpl Template, phase Phase) chat.Component {
	switch phase {
	case PhaseStarting:
		return chat.Text(tpl.MotdStarting)
	case PhaseStopping:
		return chat.Text(tpl.MotdStopping)
	case PhaseRunning:
		return chat.Text(tpl.MotdSleeping) // overwritten by caller with live MOTD when available
	default:
		return chat.Text(tpl.MotdSleeping)
	}
}
