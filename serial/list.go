package serial

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"go.bug.st/serial/enumerator"
)

// Kind is a coarse device category derived from the device name.
type Kind string

const (
	KindUSB       Kind = "usb"
	KindACM       Kind = "acm"
	KindBuiltin   Kind = "builtin"
	KindBluetooth Kind = "bluetooth"
	KindCallout   Kind = "callout"
	KindDialin    Kind = "dialin"
	KindOther     Kind = "other"
)

// PortInfo describes a discovered serial device.
type PortInfo struct {
	Path    string `json:"path" yaml:"path"`
	Kind    Kind   `json:"kind" yaml:"kind"`
	USB     bool   `json:"usb" yaml:"usb"`
	VID     string `json:"vid,omitempty" yaml:"vid,omitempty"`
	PID     string `json:"pid,omitempty" yaml:"pid,omitempty"`
	Serial  string `json:"serial,omitempty" yaml:"serial,omitempty"`
	Product string `json:"product,omitempty" yaml:"product,omitempty"`
}

// USBID returns "vid:pid", or "" for non-USB devices.
func (p PortInfo) USBID() string {
	if p.VID == "" && p.PID == "" {
		return ""
	}
	return strings.ToLower(p.VID) + ":" + strings.ToLower(p.PID)
}

var enumerate = enumerator.GetDetailedPortsList

// ListPorts returns the serial devices present on the system, sorted by path.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerate()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}
	return fromDetails(details), nil
}

func fromDetails(details []*enumerator.PortDetails) []PortInfo {
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		if d == nil || d.Name == "" {
			continue
		}
		p := PortInfo{
			Path:    d.Name,
			Kind:    Classify(d.Name),
			USB:     d.IsUSB,
			Serial:  d.SerialNumber,
			Product: d.Product,
		}
		if d.IsUSB {
			p.VID = d.VID
			p.PID = d.PID
		}
		ports = append(ports, p)
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i].Path < ports[j].Path })
	return ports
}

// Classify maps a device path to its Kind by name.
func Classify(path string) Kind {
	name := filepath.Base(path)
	switch {
	case strings.HasPrefix(name, "ttyUSB"):
		return KindUSB
	case strings.HasPrefix(name, "ttyACM"):
		return KindACM
	case strings.HasPrefix(name, "ttyAMA"), strings.HasPrefix(name, "ttyS"):
		return KindBuiltin
	case strings.HasPrefix(name, "rfcomm"):
		return KindBluetooth
	case strings.HasPrefix(name, "cu."):
		return KindCallout
	case strings.HasPrefix(name, "tty."):
		return KindDialin
	default:
		return KindOther
	}
}
