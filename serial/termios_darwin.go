//go:build darwin

package serial

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const (
	ioctlGetTermios = unix.TIOCGETA
	ioctlSetTermios = unix.TIOCSETA
)

// setSpeed writes the numeric rate; the BSD speed fields are not encoded.
func setSpeed(t *unix.Termios, baud int) error {
	if baud <= 0 {
		return fmt.Errorf("unsupported baud rate %d", baud)
	}
	t.Ispeed = uint64(baud)
	t.Ospeed = uint64(baud)
	return nil
}

func drain(fd int) error {
	return unix.IoctlSetInt(fd, unix.TIOCDRAIN, 0)
}
