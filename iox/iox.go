// Package iox provides I/O helpers for resource cleanup and full writes.
package iox

import (
	"errors"
	"io"
)

// ErrZeroWrite is returned by WriteFull when a sink accepts no bytes while
// data remains. The sink is treated as gone.
var ErrZeroWrite = errors.New("zero-length write")

// WriteFull writes all of p to w, looping over short writes.
// A write that makes no progress without reporting an error yields ErrZeroWrite.
func WriteFull(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrZeroWrite
		}
		p = p[n:]
	}
	return nil
}

// DiscardClose closes c and discards the error.
// Use in defer statements where close errors are unactionable:
//
//	defer iox.DiscardClose(port)
func DiscardClose(c io.Closer) { _ = c.Close() }

// CloseFunc returns a cleanup function that closes c.
// Designed for t.Cleanup registration:
//
//	t.Cleanup(iox.CloseFunc(w))
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}
