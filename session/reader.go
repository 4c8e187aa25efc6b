// Package session runs the two directions of a serial bridge.
//
// The Reader pipeline carries device bytes to the display, decoded and
// visualized unless raw mode is set. The Writer pipeline forwards input
// bytes to the device verbatim. A Bridge races the two: whichever finishes
// first decides the session outcome and the other is abandoned.
//
// The pipelines share no mutable state. Each owns a disjoint half of the
// device, so nothing here takes a lock.
package session

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/justapithecus/serialcat/decode"
	"github.com/justapithecus/serialcat/iox"
	"github.com/justapithecus/serialcat/log"
	"github.com/justapithecus/serialcat/metrics"
	"github.com/justapithecus/serialcat/visual"
)

// ChunkSize is the read buffer size of both pipelines.
const ChunkSize = 1024

// DefaultDrainWindow is how long stale device bytes are discarded at startup.
const DefaultDrainWindow = 100 * time.Millisecond

// DeviceReader is the read half of the device. Read deadlines bound the
// startup drain.
type DeviceReader interface {
	io.Reader
	SetReadDeadline(t time.Time) error
}

// ReaderConfig configures a Reader pipeline.
type ReaderConfig struct {
	// Device is the read half of the device.
	Device DeviceReader
	// Display receives rendered (or raw) output. It is buffered internally
	// and flushed after every chunk.
	Display io.Writer
	// Raw forwards device bytes unmodified, bypassing decoding.
	Raw bool
	// DrainWindow overrides DefaultDrainWindow when positive.
	DrainWindow time.Duration
	// Logger is optional.
	Logger *log.Logger
	// Collector is optional.
	Collector *metrics.Collector
}

// Reader is the device -> display pipeline.
type Reader struct {
	device    DeviceReader
	display   *bufio.Writer
	raw       bool
	drain     time.Duration
	logger    *log.Logger
	collector *metrics.Collector

	decoder *decode.Decoder
	visual  *visual.Visualizer

	units []decode.Unit
	out   []byte
}

// NewReader creates a Reader pipeline.
func NewReader(cfg ReaderConfig) *Reader {
	drain := cfg.DrainWindow
	if drain <= 0 {
		drain = DefaultDrainWindow
	}
	return &Reader{
		device:    cfg.Device,
		display:   bufio.NewWriterSize(cfg.Display, 4*ChunkSize),
		raw:       cfg.Raw,
		drain:     drain,
		logger:    cfg.Logger.With(string(SideReader)),
		collector: cfg.Collector,
		decoder:   decode.NewDecoder(),
		visual:    visual.New(),
	}
}

// Run drains stale device input, then streams until a failure or until ctx
// is done. It never returns nil.
func (r *Reader) Run(ctx context.Context) error {
	buf := make([]byte, ChunkSize)

	if err := r.drainStale(buf); err != nil {
		return err
	}

	for {
		n, err := r.device.Read(buf)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if n > 0 {
			r.collector.AddDeviceChunk(n)
			if werr := r.emit(buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			return newError(ErrRead, SideReader, EndpointDevice, err)
		}
	}
}

// drainStale discards whatever the transport buffered before the session
// began. The window ends when the read deadline passes.
func (r *Reader) drainStale(buf []byte) error {
	if err := r.device.SetReadDeadline(time.Now().Add(r.drain)); err != nil {
		return newError(ErrRead, SideReader, EndpointDevice, err)
	}

	discarded := 0
	for {
		n, err := r.device.Read(buf)
		discarded += n
		if err == nil {
			continue
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			break
		}
		return newError(ErrRead, SideReader, EndpointDevice, err)
	}

	if err := r.device.SetReadDeadline(time.Time{}); err != nil {
		return newError(ErrRead, SideReader, EndpointDevice, err)
	}

	r.collector.AddDrained(discarded)
	r.logger.Debug("drained stale input", map[string]any{
		"bytes":     discarded,
		"window_ms": r.drain.Milliseconds(),
	})
	return nil
}

// emit writes one chunk to the display and flushes it.
func (r *Reader) emit(chunk []byte) error {
	out := chunk
	if !r.raw {
		out = r.render(chunk)
	}

	if err := iox.WriteFull(r.display, out); err != nil {
		return newError(ErrWrite, SideReader, EndpointDisplay, err)
	}
	if err := r.display.Flush(); err != nil {
		// A sink that stops accepting bytes surfaces here as a short write.
		kind := ErrFlush
		if errors.Is(err, io.ErrShortWrite) {
			kind = ErrWrite
		}
		return newError(kind, SideReader, EndpointDisplay, err)
	}
	r.collector.AddDisplayBytes(len(out))
	return nil
}

// render decodes chunk and returns the visualized bytes. The returned slice
// is reused by the next call.
func (r *Reader) render(chunk []byte) []byte {
	r.units = r.decoder.Append(r.units[:0], chunk)
	r.out = r.out[:0]

	var text, control, invalid, entered int
	for _, u := range r.units {
		switch visual.Classify(u) {
		case visual.ClassText:
			text++
		case visual.ClassControl:
			control++
		case visual.ClassInvalid:
			invalid++
		}
		was := r.visual.Reversed()
		r.out = r.visual.Render(r.out, u)
		if !was && r.visual.Reversed() {
			entered++
		}
	}
	r.collector.AddUnits(text, control, invalid, entered)
	return r.out
}
