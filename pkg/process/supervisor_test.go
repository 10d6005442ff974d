package process

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnAndGracefulExit(t *testing.T) {
	s := &Supervisor{StartCommand: "sh -c 'sleep 0.1'"}
	h, err := s.Spawn(context.Background())
	require.NoError(t, err)
	assert.Greater(t, h.PID, 0)

	select {
	case res := <-h.Done():
		assert.Equal(t, 0, res.Code)
		assert.True(t, res.Crashed, "exited on its own without a requested stop")
	case <-time.After(2 * time.Second):
		t.Fatal("process did not exit in time")
	}
}

func TestTerminateMarksStopRequested(t *testing.T) {
	s := &Supervisor{StartCommand: "sh -c 'sleep 5'"}
	h, err := s.Spawn(context.Background())
	require.NoError(t, err)

	require.NoError(t, h.Terminate(context.Background(), time.Second))

	select {
	case res := <-h.Done():
		assert.False(t, res.Crashed)
	case <-time.After(2 * time.Second):
		t.Fatal("process did not exit after terminate")
	}
}

func TestSpawnEmptyCommand(t *testing.T) {
	s := &Supervisor{StartCommand: "   "}
	_, err := s.Spawn(context.Background())
	assert.Error(t, err)
}
