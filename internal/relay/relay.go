// Package relay forwards a model byte stream to a client as an event stream.
package relay

import (
	"context"
	"fmt"
	"io"
)

const (
	readBufferSize = 4096
	// frameBuffer bounds how many chunks may sit between the reader and the
	// writer; backpressure is the reader blocking on a full channel.
	frameBuffer = 8
)

// Relay copies src to dst one chunk at a time, wrapping each chunk in a
// single `data: <chunk>\n\n` record in arrival order. It performs no semantic
// parsing and no re-buffering: a chunk is held only while its frame is being
// written. flush is called after every frame when non-nil.
//
// Relay returns when the source ends or errors, or when a write to dst fails
// (a client that went away); in the write-failure case the reader goroutine is
// cancelled so the upstream source stops being consumed.
func Relay(ctx context.Context, src io.Reader, dst io.Writer, flush func()) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := make(chan []byte, frameBuffer)
	readErr := make(chan error, 1)

	go func() {
		defer close(frames)
		buf := make([]byte, readBufferSize)
		for {
			n, err := src.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case frames <- chunk:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if err != io.EOF {
					readErr <- err
				}
				return
			}
		}
	}()

	written := 0
	for chunk := range frames {
		if _, err := fmt.Fprintf(dst, "data: %s\n\n", chunk); err != nil {
			return fmt.Errorf("write frame: %w", err)
		}
		if flush != nil {
			flush()
		}
		written++
	}
	debugLog("[relay] forwarded %d frames", written)

	select {
	case err := <-readErr:
		return fmt.Errorf("read upstream: %w", err)
	default:
	}
	return nil
}
