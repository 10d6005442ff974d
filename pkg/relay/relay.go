// Package relay pumps bytes between an already-connected client and
// backend socket once a session has handed off its handshake state.
// Grounded on the officialpriyam-Propel-Wings pack repo's use of
// golang.org/x/sync/errgroup to run two coupled goroutines and surface
// whichever one errors first.
package relay

import (
	"context"
	"io"
	"net"

	"golang.org/x/sync/errgroup"
)

// bufferSize is the per-direction copy buffer; the component design
// requires at least 8 KiB so large chunk-data packets don't thrash.
const bufferSize = 16 * 1024

// Pump copies bytes in both directions between client and backend until
// either side closes or errors, then closes both connections. It
// returns the first non-EOF error observed, if any; a nil error means
// both directions ended cleanly.
func Pump(ctx context.Context, client, backend net.Conn) error {
	defer client.Close()
	defer backend.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return copyAndCloseWrite(backend, client) })
	g.Go(func() error { return copyAndCloseWrite(client, backend) })

	go func() {
		<-ctx.Done()
		_ = client.Close()
		_ = backend.Close()
	}()

	if err := g.Wait(); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// copyAndCloseWrite copies from src to dst and, once src reaches EOF or
// errors, shuts down dst's write half so the peer observes EOF too
// without forcing a full close of the read side. A dst that cannot
// half-close is closed outright, so the opposite copy also ends.
func copyAndCloseWrite(dst io.Writer, src io.Reader) error {
	buf := make([]byte, bufferSize)
	_, err := io.CopyBuffer(dst, src, buf)
	if cw, ok := dst.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
	} else if c, ok := dst.(io.Closer); ok {
		_ = c.Close()
	}
	return err
}
