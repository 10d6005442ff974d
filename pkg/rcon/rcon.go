// Package rcon sends the single command lazymc ever needs over Source
// RCON: a graceful "stop" to the backend. It is a thin wrapper around
// github.com/gorcon/rcon, grounded on the same library's use in the
// payperplay/hosting example for backend lifecycle commands.
package rcon

import (
	"fmt"
	"time"

	"github.com/gorcon/rcon"
)

// Client issues one-off authenticated commands against a backend's RCON
// port. The component design caps lazymc to one RCON connection at a
// time, so Client opens and closes a connection per call rather than
// pooling.
type Client struct {
	Address  string
	Password string
	Timeout  time.Duration
}

// Stop sends the "stop" console command, requesting a graceful backend
// shutdown.
func (c Client) Stop() error {
	_, err := c.Execute("stop")
	return err
}

// Execute authenticates and runs command, returning the server's
// response text.
func (c Client) Execute(command string) (string, error) {
	conn, err := rcon.Dial(c.Address, c.Password)
	if err != nil {
		return "", fmt.Errorf("rcon: connect to %s: %w", c.Address, err)
	}
	defer conn.Close()

	resp, err := conn.Execute(command)
	if err != nil {
		return "", fmt.Errorf("rcon: execute %q: %w", command, err)
	}
	return resp, nil
}
