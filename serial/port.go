// Package serial opens and configures serial devices.
//
// A Port is an *os.File in raw termios mode. The file stays registered with
// the runtime poller, so read deadlines work and a blocked Read can be
// interrupted by Close. The port splits into a read half and a write half
// which can be driven from different goroutines without coordination.
package serial

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/justapithecus/serialcat/types"
)

// ErrUnsupportedPlatform is returned by Open where no termios backend exists.
var ErrUnsupportedPlatform = errors.New("serial ports are not supported on this platform")

// OpenError reports a device that could not be opened or configured.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("cannot open serial port: %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// Port is an open, configured serial device.
type Port struct {
	file     *os.File
	path     string
	settings types.Settings
}

// Open opens the device at path and applies settings. The settings are
// validated first; an invalid value is reported as an OpenError.
func Open(path string, settings types.Settings) (*Port, error) {
	if err := settings.Validate(); err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	f, err := openDevice(path, settings)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	return &Port{file: f, path: path, settings: settings}, nil
}

// Path returns the device path the port was opened with.
func (p *Port) Path() string { return p.path }

// Settings returns the line settings applied at open.
func (p *Port) Settings() types.Settings { return p.settings }

// Close releases the device. A Read blocked on the port returns os.ErrClosed.
func (p *Port) Close() error { return p.file.Close() }

// ReadHalf returns the receive side of the port.
func (p *Port) ReadHalf() *ReadHalf { return &ReadHalf{file: p.file} }

// WriteHalf returns the transmit side of the port.
func (p *Port) WriteHalf() *WriteHalf { return &WriteHalf{file: p.file} }

// ReadHalf exposes only reading and read deadlines.
type ReadHalf struct {
	file *os.File
}

func (h *ReadHalf) Read(b []byte) (int, error) { return h.file.Read(b) }

// SetReadDeadline bounds pending and future reads. The zero time clears it.
func (h *ReadHalf) SetReadDeadline(t time.Time) error { return h.file.SetReadDeadline(t) }

// WriteHalf exposes only writing and draining.
type WriteHalf struct {
	file *os.File
}

func (h *WriteHalf) Write(b []byte) (int, error) { return h.file.Write(b) }

// Flush blocks until every written byte has been transmitted.
func (h *WriteHalf) Flush() error {
	var derr error
	if err := control(h.file, func(fd int) { derr = drain(fd) }); err != nil {
		return err
	}
	return derr
}
