package status

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseTemplate() Template {
	return Template{
		MotdSleeping: "sleeping",
		MotdStarting: "starting",
		MotdStopping: "stopping",
		VersionName:  "1.20.4",
		Protocol:     765,
		MaxPlayers:   20,
	}
}

func TestBuildSleepingHasZeroOnline(t *testing.T) {
	out, err := Build(baseTemplate(), nil, PhaseSleeping, 0, 765)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	players := parsed["players"].(map[string]any)
	assert.Equal(t, float64(0), players["online"])
	desc := parsed["description"].(map[string]any)
	assert.Equal(t, "sleeping", desc["text"])
}

func TestBuildRoundTripsThroughStrictParser(t *testing.T) {
	out, err := Build(baseTemplate(), nil, PhaseStarting, 0, 765)
	require.NoError(t, err)

	dec := json.NewDecoder(strings.NewReader(out))
	dec.DisallowUnknownFields()
	var parsed struct {
		Version struct {
			Name     string `json:"name"`
			Protocol int    `json:"protocol"`
		} `json:"version"`
		Players struct {
			Max    int `json:"max"`
			Online int `json:"online"`
		} `json:"players"`
		Description struct {
			Text string `json:"text"`
		} `json:"description"`
		Favicon string `json:"favicon"`
	}
	require.NoError(t, dec.Decode(&parsed))
	assert.Equal(t, "starting", parsed.Description.Text)
	assert.Equal(t, 765, parsed.Version.Protocol)
}

func TestBuildPrefersCachedFavicon(t *testing.T) {
	cached := &ServerStatus{FaviconPNG: []byte("fakepngbytes")}
	out, err := Build(baseTemplate(), cached, PhaseRunning, 3, 765)
	require.NoError(t, err)
	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Contains(t, parsed["favicon"], "data:image/png;base64,")
}

func TestBuildRunningUsesLiveDescription(t *testing.T) {
	cached := &ServerStatus{Description: "live motd"}
	out, err := Build(baseTemplate(), cached, PhaseRunning, 1, 765)
	require.NoError(t, err)
	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	desc := parsed["description"].(map[string]any)
	assert.Equal(t, "live motd", desc["text"])
}
