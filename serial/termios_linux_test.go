//go:build linux

package serial

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/justapithecus/serialcat/iox"
	"github.com/justapithecus/serialcat/types"
)

func TestApplySettings(t *testing.T) {
	tests := []struct {
		name     string
		settings types.Settings
		csize    uint32
		setC     uint32
		clearC   uint32
		setI     uint32
		clearI   uint32
		speed    uint32
	}{
		{
			name:     "default 9600 8N1",
			settings: types.DefaultSettings(),
			csize:    unix.CS8,
			setC:     unix.CREAD | unix.CLOCAL,
			clearC:   unix.PARENB | unix.PARODD | unix.CSTOPB | unix.CRTSCTS,
			clearI:   unix.INPCK | unix.IXON | unix.IXOFF,
			speed:    unix.B9600,
		},
		{
			name: "115200 7E2 hardware",
			settings: types.Settings{
				BaudRate: 115200, DataBits: types.DataBits7, Parity: types.ParityEven,
				StopBits: types.StopBits2, FlowControl: types.FlowControlHardware,
			},
			csize:  unix.CS7,
			setC:   unix.PARENB | unix.CSTOPB | unix.CRTSCTS,
			clearC: unix.PARODD,
			setI:   unix.INPCK,
			clearI: unix.IXON | unix.IXOFF,
			speed:  unix.B115200,
		},
		{
			name: "300 5O1 software",
			settings: types.Settings{
				BaudRate: 300, DataBits: types.DataBits5, Parity: types.ParityOdd,
				StopBits: types.StopBits1, FlowControl: types.FlowControlSoftware,
			},
			csize:  unix.CS5,
			setC:   unix.PARENB | unix.PARODD,
			clearC: unix.CSTOPB | unix.CRTSCTS,
			setI:   unix.INPCK | unix.IXON | unix.IXOFF,
			speed:  unix.B300,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Start from a cooked terminal with everything switched on.
			term := &unix.Termios{
				Iflag: unix.ICRNL | unix.IXON | unix.IXANY | unix.ISTRIP,
				Oflag: unix.OPOST,
				Lflag: unix.ICANON | unix.ECHO | unix.ISIG | unix.IEXTEN,
				Cflag: unix.CS8 | unix.PARENB | unix.PARODD | unix.CSTOPB | unix.CRTSCTS | unix.B38400,
			}

			if err := applySettings(term, tt.settings); err != nil {
				t.Fatalf("applySettings: %v", err)
			}

			if got := term.Cflag & unix.CSIZE; got != tt.csize {
				t.Errorf("CSIZE = %#x, want %#x", got, tt.csize)
			}
			if term.Cflag&tt.setC != tt.setC {
				t.Errorf("Cflag = %#x, want bits %#x set", term.Cflag, tt.setC)
			}
			if term.Cflag&tt.clearC != 0 {
				t.Errorf("Cflag = %#x, want bits %#x clear", term.Cflag, tt.clearC)
			}
			if term.Iflag&tt.setI != tt.setI {
				t.Errorf("Iflag = %#x, want bits %#x set", term.Iflag, tt.setI)
			}
			if term.Iflag&tt.clearI != 0 {
				t.Errorf("Iflag = %#x, want bits %#x clear", term.Iflag, tt.clearI)
			}
			if term.Iflag&(unix.ICRNL|unix.IXANY|unix.ISTRIP) != 0 {
				t.Errorf("Iflag = %#x, input processing left on", term.Iflag)
			}
			if term.Oflag&unix.OPOST != 0 {
				t.Error("OPOST left on")
			}
			if term.Lflag&(unix.ICANON|unix.ECHO|unix.ISIG|unix.IEXTEN) != 0 {
				t.Errorf("Lflag = %#x, want raw", term.Lflag)
			}
			if term.Cc[unix.VMIN] != 1 || term.Cc[unix.VTIME] != 0 {
				t.Errorf("VMIN=%d VTIME=%d, want 1/0", term.Cc[unix.VMIN], term.Cc[unix.VTIME])
			}
			if got := term.Cflag & (unix.CBAUD | unix.CBAUDEX); got != tt.speed {
				t.Errorf("Cflag speed = %#x, want %#x", got, tt.speed)
			}
			if term.Ispeed != tt.speed || term.Ospeed != tt.speed {
				t.Errorf("Ispeed/Ospeed = %#x/%#x, want %#x", term.Ispeed, term.Ospeed, tt.speed)
			}
		})
	}
}

func TestApplySettings_UnsupportedBaud(t *testing.T) {
	s := types.DefaultSettings()
	s.BaudRate = 12345
	if err := applySettings(&unix.Termios{}, s); err == nil {
		t.Fatal("expected error for non-standard baud rate")
	}
}

func TestOpen_NotATerminal(t *testing.T) {
	_, err := Open("/dev/null", types.DefaultSettings())
	if !errors.Is(err, unix.ENOTTY) {
		t.Fatalf("err = %v, want ENOTTY", err)
	}
}

// openPTY returns the master side of a fresh pseudo-terminal and the path
// of its slave.
func openPTY(t *testing.T) (*os.File, string) {
	t.Helper()

	master, err := os.OpenFile("/dev/ptmx", os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		t.Skipf("no pty support: %v", err)
	}
	t.Cleanup(iox.CloseFunc(master))

	var n uint32
	var ierr error
	err = control(master, func(fd int) {
		if ierr = unix.IoctlSetPointerInt(fd, unix.TIOCSPTLCK, 0); ierr != nil {
			return
		}
		n, ierr = unix.IoctlGetUint32(fd, unix.TIOCGPTN)
	})
	if err == nil {
		err = ierr
	}
	if err != nil {
		t.Skipf("pty setup: %v", err)
	}
	return master, fmt.Sprintf("/dev/pts/%d", n)
}

func TestPort_PTYRoundTrip(t *testing.T) {
	master, path := openPTY(t)

	port, err := Open(path, types.Settings{
		BaudRate: 115200, DataBits: types.DataBits8, Parity: types.ParityNone,
		StopBits: types.StopBits1, FlowControl: types.FlowControlNone,
	})
	if err != nil {
		t.Fatalf("Open(%s): %v", path, err)
	}
	t.Cleanup(iox.CloseFunc(port))

	if port.Path() != path {
		t.Errorf("Path() = %q", port.Path())
	}

	var term *unix.Termios
	var terr error
	if err := control(port.file, func(fd int) { term, terr = unix.IoctlGetTermios(fd, unix.TCGETS) }); err != nil || terr != nil {
		t.Fatalf("read back termios: %v %v", err, terr)
	}
	if term.Lflag&(unix.ICANON|unix.ECHO) != 0 {
		t.Errorf("Lflag = %#x, want raw", term.Lflag)
	}

	rx := port.ReadHalf()
	tx := port.WriteHalf()

	// Device -> host, raw bytes unchanged.
	payload := []byte{'o', 'k', '\r', '\n', 0x03, 0xFF}
	if _, err := master.Write(payload); err != nil {
		t.Fatalf("master write: %v", err)
	}
	if err := rx.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline: %v", err)
	}
	got := make([]byte, len(payload))
	if _, err := io.ReadFull(rx, got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("read % X, want % X", got, payload)
	}

	// Nothing pending: the deadline fires.
	if err := rx.SetReadDeadline(time.Now().Add(20 * time.Millisecond)); err != nil {
		t.Fatalf("SetReadDeadline: %v", err)
	}
	if _, err := rx.Read(got); !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Errorf("idle read err = %v, want os.ErrDeadlineExceeded", err)
	}
	if err := rx.SetReadDeadline(time.Time{}); err != nil {
		t.Fatalf("clear deadline: %v", err)
	}

	// Host -> device, drained.
	if err := iox.WriteFull(tx, []byte("AT\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := tx.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := master.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("master deadline: %v", err)
	}
	echo := make([]byte, 3)
	if _, err := io.ReadFull(master, echo); err != nil {
		t.Fatalf("master read: %v", err)
	}
	if string(echo) != "AT\n" {
		t.Errorf("master read %q, want %q (no output processing)", echo, "AT\n")
	}
}

func TestPort_CloseInterruptsRead(t *testing.T) {
	_, path := openPTY(t)

	port, err := Open(path, types.DefaultSettings())
	if err != nil {
		t.Fatalf("Open(%s): %v", path, err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := port.ReadHalf().Read(make([]byte, 16))
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	if err := port.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, os.ErrClosed) {
			t.Errorf("err = %v, want os.ErrClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("blocked read survived Close")
	}
}
