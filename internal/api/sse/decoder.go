package sse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrStreamIncomplete is returned when the body ends before a terminal event.
var ErrStreamIncomplete = errors.New("stream ended before the response completed")

const readBufferSize = 4096

// Decoder incrementally turns body chunks into events. Bytes are buffered
// until a full line is available, so a line (or a multi-byte character) may
// span any number of reads. After a terminal event every later event is
// dropped.
type Decoder struct {
	buf        []byte
	terminated bool
	logger     zerolog.Logger
}

// NewDecoder creates a decoder that logs skipped lines to logger.
func NewDecoder(logger zerolog.Logger) *Decoder {
	return &Decoder{logger: logger}
}

// NewDefaultDecoder creates a decoder that logs to the global logger.
func NewDefaultDecoder() *Decoder {
	return NewDecoder(log.Logger)
}

// Terminated reports whether a terminal event was decoded.
func (d *Decoder) Terminated() bool {
	return d.terminated
}

// Feed consumes a chunk and returns the events of every line it completed.
func (d *Decoder) Feed(chunk []byte) []*Event {
	d.buf = append(d.buf, chunk...)

	var events []*Event
	for {
		idx := bytes.IndexByte(d.buf, '\n')
		if idx < 0 {
			break
		}
		line := d.buf[:idx]
		if evt := d.parseLine(line); evt != nil {
			events = append(events, evt)
		}
		d.buf = d.buf[idx+1:]
	}

	// Compact so a long stream does not pin its whole history.
	if len(d.buf) == 0 {
		d.buf = nil
	} else if cap(d.buf) > 2*readBufferSize && len(d.buf) < cap(d.buf)/4 {
		d.buf = append([]byte(nil), d.buf...)
	}

	return events
}

// Close treats end of stream as the end of the last line.
func (d *Decoder) Close() []*Event {
	if len(d.buf) == 0 {
		return nil
	}
	line := d.buf
	d.buf = nil
	if evt := d.parseLine(line); evt != nil {
		return []*Event{evt}
	}
	return nil
}

func (d *Decoder) parseLine(line []byte) *Event {
	if d.terminated {
		return nil
	}

	line = bytes.TrimSuffix(line, []byte("\r"))
	if !bytes.HasPrefix(line, []byte(DataPrefix)) {
		return nil
	}
	payload := line[len(DataPrefix):]

	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		d.logger.Warn().
			Err(err).
			Str("line", truncate(string(payload), 200)).
			Msg("skipping malformed stream line")
		return nil
	}

	if !evt.Type.known() {
		d.logger.Debug().Str("type", string(evt.Type)).Msg("ignoring unknown stream event")
		return nil
	}

	if evt.Type.Terminal() {
		d.terminated = true
	}
	return &evt
}

// Stream reads body, dispatching events to h until a terminal event, the end
// of the body, or ctx is done. It returns nil once a terminal event was
// dispatched and an error otherwise; it never dispatches OnError itself for
// transport problems so callers can report them exactly once.
func Stream(ctx context.Context, body io.Reader, d *Decoder, h Handlers) error {
	buf := make([]byte, readBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			for _, evt := range d.Feed(buf[:n]) {
				if err := ctx.Err(); err != nil {
					return err
				}
				h.Dispatch(evt)
			}
			if d.Terminated() {
				return nil
			}
		}

		if readErr == io.EOF {
			for _, evt := range d.Close() {
				h.Dispatch(evt)
			}
			if d.Terminated() {
				return nil
			}
			return ErrStreamIncomplete
		}
		if readErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("failed to read stream: %w", readErr)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
