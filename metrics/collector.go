// Package metrics provides per-session traffic counters.
//
// The Collector is shared by both pipelines of a session. It is a leaf
// package with no internal dependencies, and every method is safe on a nil
// receiver so callers never need to check whether metrics are enabled.
package metrics

import (
	"sync"
	"time"
)

// Snapshot is an immutable point-in-time view of the session counters.
type Snapshot struct {
	// Device -> display
	DrainedBytes   int64 `json:"drained_bytes" yaml:"drained_bytes"`
	DeviceChunks   int64 `json:"device_chunks" yaml:"device_chunks"`
	DeviceBytes    int64 `json:"device_bytes" yaml:"device_bytes"`
	TextUnits      int64 `json:"text_units" yaml:"text_units"`
	ControlUnits   int64 `json:"control_units" yaml:"control_units"`
	InvalidBytes   int64 `json:"invalid_bytes" yaml:"invalid_bytes"`
	ReverseEntered int64 `json:"reverse_entered" yaml:"reverse_entered"`
	DisplayBytes   int64 `json:"display_bytes" yaml:"display_bytes"`

	// Input -> device
	InputChunks  int64 `json:"input_chunks" yaml:"input_chunks"`
	WrittenBytes int64 `json:"written_bytes" yaml:"written_bytes"`

	// Dimensions
	Port     string        `json:"port" yaml:"port"`
	Mode     string        `json:"mode" yaml:"mode"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Collector accumulates counters during a single session.
// Thread-safe via sync.Mutex. All methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	drainedBytes   int64
	deviceChunks   int64
	deviceBytes    int64
	textUnits      int64
	controlUnits   int64
	invalidBytes   int64
	reverseEntered int64
	displayBytes   int64

	inputChunks  int64
	writtenBytes int64

	port    string
	mode    string
	started time.Time
	now     func() time.Time
}

// NewCollector creates a Collector labelled with the port and display mode.
func NewCollector(port, mode string) *Collector {
	return &Collector{
		port:    port,
		mode:    mode,
		started: time.Now(),
		now:     time.Now,
	}
}

// --- Device -> display ---

// AddDrained records bytes discarded during the startup drain.
func (c *Collector) AddDrained(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.drainedBytes += int64(n)
	c.mu.Unlock()
}

// AddDeviceChunk records one chunk read from the device.
func (c *Collector) AddDeviceChunk(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.deviceChunks++
	c.deviceBytes += int64(n)
	c.mu.Unlock()
}

// AddUnits records decoded units by class and reverse-video entries.
func (c *Collector) AddUnits(text, control, invalid, reverseEntered int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.textUnits += int64(text)
	c.controlUnits += int64(control)
	c.invalidBytes += int64(invalid)
	c.reverseEntered += int64(reverseEntered)
	c.mu.Unlock()
}

// AddDisplayBytes records bytes handed to the display sink.
func (c *Collector) AddDisplayBytes(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.displayBytes += int64(n)
	c.mu.Unlock()
}

// --- Input -> device ---

// AddInputChunk records one chunk read from input and forwarded to the device.
func (c *Collector) AddInputChunk(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.inputChunks++
	c.writtenBytes += int64(n)
	c.mu.Unlock()
}

// Snapshot returns a copy of all counters. A nil Collector yields a zero Snapshot.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		DrainedBytes:   c.drainedBytes,
		DeviceChunks:   c.deviceChunks,
		DeviceBytes:    c.deviceBytes,
		TextUnits:      c.textUnits,
		ControlUnits:   c.controlUnits,
		InvalidBytes:   c.invalidBytes,
		ReverseEntered: c.reverseEntered,
		DisplayBytes:   c.displayBytes,
		InputChunks:    c.inputChunks,
		WrittenBytes:   c.writtenBytes,
		Port:           c.port,
		Mode:           c.mode,
		Duration:       c.now().Sub(c.started).Round(time.Millisecond),
	}
}
