// Package types defines the serial connection settings shared by the CLI,
// the config loader and the device layer.
package types

import (
	"fmt"
	"strconv"
)

// DataBits is the number of data bits per character.
type DataBits int

const (
	DataBits5 DataBits = 5
	DataBits6 DataBits = 6
	DataBits7 DataBits = 7
	DataBits8 DataBits = 8
)

// Parity is the parity checking mode.
type Parity string

const (
	ParityNone Parity = "none"
	ParityOdd  Parity = "odd"
	ParityEven Parity = "even"
)

// StopBits is the number of stop bits.
type StopBits int

const (
	StopBits1 StopBits = 1
	StopBits2 StopBits = 2
)

// FlowControl is the flow control mode.
type FlowControl string

const (
	FlowControlNone     FlowControl = "none"
	FlowControlSoftware FlowControl = "software"
	FlowControlHardware FlowControl = "hardware"
)

// Settings configures the serial line. Settings are resolved once before a
// session starts and never change afterwards.
type Settings struct {
	BaudRate    int         `json:"baud_rate" yaml:"baud_rate"`
	DataBits    DataBits    `json:"data_bits" yaml:"data_bits"`
	Parity      Parity      `json:"parity" yaml:"parity"`
	StopBits    StopBits    `json:"stop_bits" yaml:"stop_bits"`
	FlowControl FlowControl `json:"flow_control" yaml:"flow_control"`
}

// DefaultSettings returns 9600 8N1 without flow control.
func DefaultSettings() Settings {
	return Settings{
		BaudRate:    9600,
		DataBits:    DataBits8,
		Parity:      ParityNone,
		StopBits:    StopBits1,
		FlowControl: FlowControlNone,
	}
}

// Validate checks every field.
func (s Settings) Validate() error {
	if s.BaudRate <= 0 {
		return fmt.Errorf("invalid baud rate %d: must be positive", s.BaudRate)
	}
	if _, err := ParseDataBits(strconv.Itoa(int(s.DataBits))); err != nil {
		return err
	}
	if _, err := ParseParity(string(s.Parity)); err != nil {
		return err
	}
	if _, err := ParseStopBits(strconv.Itoa(int(s.StopBits))); err != nil {
		return err
	}
	if _, err := ParseFlowControl(string(s.FlowControl)); err != nil {
		return err
	}
	return nil
}

// String renders the settings in the usual "9600 8N1" shorthand, with the
// flow control appended when enabled.
func (s Settings) String() string {
	p := "N"
	switch s.Parity {
	case ParityOdd:
		p = "O"
	case ParityEven:
		p = "E"
	}
	str := fmt.Sprintf("%d %d%s%d", s.BaudRate, s.DataBits, p, s.StopBits)
	if s.FlowControl != "" && s.FlowControl != FlowControlNone {
		str += " " + string(s.FlowControl)
	}
	return str
}

// ParseDataBits parses "5", "6", "7" or "8".
func ParseDataBits(s string) (DataBits, error) {
	switch s {
	case "5":
		return DataBits5, nil
	case "6":
		return DataBits6, nil
	case "7":
		return DataBits7, nil
	case "8":
		return DataBits8, nil
	default:
		return 0, fmt.Errorf("invalid data bits %q: must be 5, 6, 7, or 8", s)
	}
}

// ParseParity parses "none", "odd" or "even".
func ParseParity(s string) (Parity, error) {
	switch Parity(s) {
	case ParityNone, ParityOdd, ParityEven:
		return Parity(s), nil
	default:
		return "", fmt.Errorf("invalid parity %q: must be none, odd, or even", s)
	}
}

// ParseStopBits parses "1" or "2".
func ParseStopBits(s string) (StopBits, error) {
	switch s {
	case "1":
		return StopBits1, nil
	case "2":
		return StopBits2, nil
	default:
		return 0, fmt.Errorf("invalid stop bits %q: must be 1 or 2", s)
	}
}

// ParseFlowControl parses "none", "software" or "hardware".
func ParseFlowControl(s string) (FlowControl, error) {
	switch FlowControl(s) {
	case FlowControlNone, FlowControlSoftware, FlowControlHardware:
		return FlowControl(s), nil
	default:
		return "", fmt.Errorf("invalid flow control %q: must be none, software, or hardware", s)
	}
}

// SessionMeta identifies one bridge session for logging and stats.
type SessionMeta struct {
	Port     string   `json:"port"`
	Settings Settings `json:"settings"`
	Raw      bool     `json:"raw"`
}

// Mode returns "raw" or "visual".
func (m SessionMeta) Mode() string {
	if m.Raw {
		return "raw"
	}
	return "visual"
}
