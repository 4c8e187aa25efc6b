//go:build linux || darwin

package serial

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/justapithecus/serialcat/types"
)

func openDevice(path string, settings types.Settings) (*os.File, error) {
	// O_NONBLOCK keeps open from waiting on carrier detect and lets the
	// runtime poller own the descriptor.
	f, err := os.OpenFile(path, os.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, err
	}

	var cerr error
	err = control(f, func(fd int) { cerr = configure(fd, settings) })
	if err == nil {
		err = cerr
	}
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// control runs fn against the raw descriptor. Fd() would put the file back
// into blocking mode and lose deadline support.
func control(f *os.File, fn func(fd int)) error {
	rc, err := f.SyscallConn()
	if err != nil {
		return err
	}
	return rc.Control(func(fd uintptr) { fn(int(fd)) })
}

func configure(fd int, settings types.Settings) error {
	t, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return fmt.Errorf("get termios: %w", err)
	}
	if err := applySettings(t, settings); err != nil {
		return err
	}
	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, t); err != nil {
		return fmt.Errorf("set termios: %w", err)
	}
	return nil
}

// applySettings puts t into raw mode and applies the line settings.
func applySettings(t *unix.Termios, s types.Settings) error {
	makeRaw(t)

	t.Cflag |= unix.CREAD | unix.CLOCAL

	t.Cflag &^= unix.CSIZE
	switch s.DataBits {
	case types.DataBits5:
		t.Cflag |= unix.CS5
	case types.DataBits6:
		t.Cflag |= unix.CS6
	case types.DataBits7:
		t.Cflag |= unix.CS7
	case types.DataBits8:
		t.Cflag |= unix.CS8
	default:
		return fmt.Errorf("unsupported data bits %d", s.DataBits)
	}

	switch s.Parity {
	case types.ParityNone:
		t.Cflag &^= unix.PARENB | unix.PARODD
		t.Iflag &^= unix.INPCK
	case types.ParityOdd:
		t.Cflag |= unix.PARENB | unix.PARODD
		t.Iflag |= unix.INPCK
	case types.ParityEven:
		t.Cflag |= unix.PARENB
		t.Cflag &^= unix.PARODD
		t.Iflag |= unix.INPCK
	default:
		return fmt.Errorf("unsupported parity %q", s.Parity)
	}

	switch s.StopBits {
	case types.StopBits1:
		t.Cflag &^= unix.CSTOPB
	case types.StopBits2:
		t.Cflag |= unix.CSTOPB
	default:
		return fmt.Errorf("unsupported stop bits %d", s.StopBits)
	}

	t.Cflag &^= unix.CRTSCTS
	t.Iflag &^= unix.IXON | unix.IXOFF | unix.IXANY
	switch s.FlowControl {
	case types.FlowControlNone:
	case types.FlowControlSoftware:
		t.Iflag |= unix.IXON | unix.IXOFF
	case types.FlowControlHardware:
		t.Cflag |= unix.CRTSCTS
	default:
		return fmt.Errorf("unsupported flow control %q", s.FlowControl)
	}

	return setSpeed(t, s.BaudRate)
}

// makeRaw matches cfmakeraw(3), with reads returning as soon as one byte
// is available.
func makeRaw(t *unix.Termios) {
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB
	t.Cflag |= unix.CS8
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0
}
