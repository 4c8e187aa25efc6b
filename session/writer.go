package session

import (
	"context"
	"errors"
	"io"

	"github.com/justapithecus/serialcat/iox"
	"github.com/justapithecus/serialcat/log"
	"github.com/justapithecus/serialcat/metrics"
)

// DeviceWriter is the write half of the device.
type DeviceWriter interface {
	io.Writer
	// Flush blocks until written bytes have left the device's output queue.
	Flush() error
}

// WriterConfig configures a Writer pipeline.
type WriterConfig struct {
	// Input is the byte source forwarded to the device, typically stdin.
	Input io.Reader
	// Device is the write half of the device.
	Device DeviceWriter
	// ExitOnEOF ends the pipeline successfully when Input reports io.EOF.
	ExitOnEOF bool
	// Logger is optional.
	Logger *log.Logger
	// Collector is optional.
	Collector *metrics.Collector
}

// Writer is the input -> device pipeline.
type Writer struct {
	input     io.Reader
	device    DeviceWriter
	exitOnEOF bool
	logger    *log.Logger
	collector *metrics.Collector
}

// NewWriter creates a Writer pipeline.
func NewWriter(cfg WriterConfig) *Writer {
	return &Writer{
		input:     cfg.Input,
		device:    cfg.Device,
		exitOnEOF: cfg.ExitOnEOF,
		logger:    cfg.Logger.With(string(SideWriter)),
		collector: cfg.Collector,
	}
}

// Run forwards input to the device until a failure, until ctx is done, or,
// with ExitOnEOF, until the input ends.
//
// Without ExitOnEOF, end of input does not stop the pipeline: it reads
// again. An interactive terminal blocks on that read until more is typed.
func (w *Writer) Run(ctx context.Context) error {
	buf := make([]byte, ChunkSize)

	for {
		n, err := w.input.Read(buf)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return newError(ErrRead, SideWriter, EndpointInput, err)
		}

		eof := err != nil
		if eof && n == 0 && w.exitOnEOF {
			w.logger.Debug("input ended", nil)
			return nil
		}

		if n > 0 {
			if err := iox.WriteFull(w.device, buf[:n]); err != nil {
				return newError(ErrWrite, SideWriter, EndpointDevice, err)
			}
			if err := w.device.Flush(); err != nil {
				return newError(ErrFlush, SideWriter, EndpointDevice, err)
			}
			w.collector.AddInputChunk(n)
		}

		if eof && w.exitOnEOF {
			w.logger.Debug("input ended", nil)
			return nil
		}
	}
}
