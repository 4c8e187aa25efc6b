package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/justapithecus/serialcat/iox"
	"github.com/justapithecus/serialcat/metrics"
)

// scriptedInput returns each step in order, then final on every later read.
type scriptedInput struct {
	steps []inputStep
	final error
	reads int
}

type inputStep struct {
	data []byte
	err  error
}

func (in *scriptedInput) Read(p []byte) (int, error) {
	in.reads++
	if len(in.steps) == 0 {
		return 0, in.final
	}
	s := in.steps[0]
	in.steps = in.steps[1:]
	return copy(p, s.data), s.err
}

type fakeSerialTx struct {
	bytes.Buffer
	writes   int
	flushes  int
	flushErr error
	zero     bool
}

func (d *fakeSerialTx) Write(p []byte) (int, error) {
	d.writes++
	if d.zero && len(p) > 0 {
		return 0, nil
	}
	return d.Buffer.Write(p)
}

func (d *fakeSerialTx) Flush() error {
	d.flushes++
	return d.flushErr
}

func TestWriter_ExitOnImmediateEOF(t *testing.T) {
	in := &scriptedInput{final: io.EOF}
	dev := &fakeSerialTx{}

	err := NewWriter(WriterConfig{Input: in, Device: dev, ExitOnEOF: true}).Run(context.Background())

	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if dev.writes != 0 || dev.flushes != 0 {
		t.Errorf("device touched: writes=%d flushes=%d, want none", dev.writes, dev.flushes)
	}
}

func TestWriter_ForwardsVerbatim(t *testing.T) {
	in := &scriptedInput{
		steps: []inputStep{
			{data: []byte("AT\r\n")},
			{data: []byte{0x00, 0xFF, 0x1B}},
		},
		final: io.EOF,
	}
	dev := &fakeSerialTx{}
	col := metrics.NewCollector("fake", "raw")

	err := NewWriter(WriterConfig{Input: in, Device: dev, ExitOnEOF: true, Collector: col}).Run(context.Background())

	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	want := append([]byte("AT\r\n"), 0x00, 0xFF, 0x1B)
	if !bytes.Equal(dev.Bytes(), want) {
		t.Errorf("device got % X, want % X", dev.Bytes(), want)
	}
	if dev.flushes != 2 {
		t.Errorf("flushes = %d, want 2", dev.flushes)
	}
	s := col.Snapshot()
	if s.InputChunks != 2 || s.WrittenBytes != 7 {
		t.Errorf("input = %d chunks / %d bytes, want 2 / 7", s.InputChunks, s.WrittenBytes)
	}
}

func TestWriter_DataWithEOFIsForwarded(t *testing.T) {
	in := &scriptedInput{steps: []inputStep{{data: []byte("last"), err: io.EOF}}}
	dev := &fakeSerialTx{}

	err := NewWriter(WriterConfig{Input: in, Device: dev, ExitOnEOF: true}).Run(context.Background())

	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if dev.String() != "last" {
		t.Errorf("device got %q, want %q", dev.String(), "last")
	}
	if in.reads != 1 {
		t.Errorf("reads = %d, want 1", in.reads)
	}
}

func TestWriter_KeepsReadingAfterEOFWithoutExit(t *testing.T) {
	boom := errors.New("tty revoked")
	in := &scriptedInput{
		steps: []inputStep{
			{err: io.EOF},
			{err: io.EOF},
			{data: []byte("more")},
		},
		final: boom,
	}
	dev := &fakeSerialTx{}

	err := NewWriter(WriterConfig{Input: in, Device: dev}).Run(context.Background())

	if !errors.Is(err, ErrRead) || !errors.Is(err, boom) {
		t.Fatalf("err = %v, want ErrRead wrapping %v", err, boom)
	}
	if in.reads != 4 {
		t.Errorf("reads = %d, want 4 (EOF does not stop the pipeline)", in.reads)
	}
	if dev.String() != "more" {
		t.Errorf("device got %q", dev.String())
	}
	if got := err.Error(); got != "writer: cannot read stdin: tty revoked" {
		t.Errorf("error message = %q", got)
	}
}

func TestWriter_ZeroLengthDeviceWrite(t *testing.T) {
	in := &scriptedInput{steps: []inputStep{{data: []byte("x")}}, final: io.EOF}
	dev := &fakeSerialTx{zero: true}

	err := NewWriter(WriterConfig{Input: in, Device: dev}).Run(context.Background())

	if !errors.Is(err, ErrWrite) {
		t.Fatalf("err = %v, want ErrWrite", err)
	}
	if !errors.Is(err, iox.ErrZeroWrite) {
		t.Errorf("err = %v, want wrapped iox.ErrZeroWrite", err)
	}
	var sessErr *Error
	if !errors.As(err, &sessErr) || sessErr.Side != SideWriter || sessErr.Endpoint != EndpointDevice {
		t.Errorf("err = %#v, want writer/device", err)
	}
}

func TestWriter_FlushFailure(t *testing.T) {
	in := &scriptedInput{steps: []inputStep{{data: []byte("x")}}, final: io.EOF}
	dev := &fakeSerialTx{flushErr: errors.New("EIO")}

	err := NewWriter(WriterConfig{Input: in, Device: dev}).Run(context.Background())

	if !errors.Is(err, ErrFlush) {
		t.Fatalf("err = %v, want ErrFlush", err)
	}
	if got := err.Error(); got != "writer: cannot flush serial port: EIO" {
		t.Errorf("error message = %q", got)
	}
}

func TestWriter_NoDeviceIOAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	in := &scriptedInput{steps: []inputStep{{data: []byte("typed late")}}}
	dev := &fakeSerialTx{}

	err := NewWriter(WriterConfig{Input: in, Device: dev}).Run(ctx)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if dev.writes != 0 {
		t.Errorf("device writes = %d, want 0", dev.writes)
	}
}
