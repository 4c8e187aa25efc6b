package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/justapithecus/serialcat/types"
)

// Config represents a serialcat.yaml configuration file.
// All values are optional and act as defaults for serialcat flags.
// CLI flags always override config values.
type Config struct {
	Defaults Profile            `yaml:"defaults"`
	Profiles map[string]Profile `yaml:"profiles"`
}

// Profile is one set of session defaults. Zero values mean "not set";
// booleans are pointers so an explicit false survives a merge.
type Profile struct {
	Port        string   `yaml:"port"`
	BaudRate    int      `yaml:"baud_rate"`
	DataBits    int      `yaml:"data_bits"`
	Parity      string   `yaml:"parity"`
	StopBits    int      `yaml:"stop_bits"`
	FlowControl string   `yaml:"flow_control"`
	Raw         *bool    `yaml:"raw,omitempty"`
	EscapeQuit  *bool    `yaml:"escape_quit,omitempty"`
	Drain       Duration `yaml:"drain,omitempty"`
	LogFile     string   `yaml:"log_file"`
}

// ErrUnknownProfile is returned by Config.Profile for a name with no entry.
var ErrUnknownProfile = errors.New("unknown profile")

// Duration wraps time.Duration for YAML string parsing (e.g. "100ms", "1s").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "250ms" or "1s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	d.Duration = parsed
	return nil
}

// Profile returns the named profile merged over the defaults. An empty name
// returns the defaults alone. A nil Config yields an empty Profile.
func (c *Config) Profile(name string) (Profile, error) {
	if c == nil {
		if name != "" {
			return Profile{}, fmt.Errorf("%w %q: no config file loaded", ErrUnknownProfile, name)
		}
		return Profile{}, nil
	}
	if name == "" {
		return c.Defaults, nil
	}
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w %q (available: %s)", ErrUnknownProfile, name, c.profileList())
	}
	return c.Defaults.Merge(p), nil
}

// ProfileNames returns the configured profile names in sorted order.
func (c *Config) ProfileNames() []string {
	if c == nil || len(c.Profiles) == 0 {
		return nil
	}
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Config) profileList() string {
	names := c.ProfileNames()
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

// Merge returns p with every field set in over replacing its value.
func (p Profile) Merge(over Profile) Profile {
	out := p
	if over.Port != "" {
		out.Port = over.Port
	}
	if over.BaudRate != 0 {
		out.BaudRate = over.BaudRate
	}
	if over.DataBits != 0 {
		out.DataBits = over.DataBits
	}
	if over.Parity != "" {
		out.Parity = over.Parity
	}
	if over.StopBits != 0 {
		out.StopBits = over.StopBits
	}
	if over.FlowControl != "" {
		out.FlowControl = over.FlowControl
	}
	if over.Raw != nil {
		out.Raw = over.Raw
	}
	if over.EscapeQuit != nil {
		out.EscapeQuit = over.EscapeQuit
	}
	if over.Drain.Duration != 0 {
		out.Drain = over.Drain
	}
	if over.LogFile != "" {
		out.LogFile = over.LogFile
	}
	return out
}

// Validate checks the set fields against the serial setting domains.
func (p Profile) Validate() error {
	if p.BaudRate < 0 {
		return fmt.Errorf("invalid baud rate %d: must be positive", p.BaudRate)
	}
	if p.DataBits != 0 {
		if _, err := types.ParseDataBits(strconv.Itoa(p.DataBits)); err != nil {
			return err
		}
	}
	if p.Parity != "" {
		if _, err := types.ParseParity(p.Parity); err != nil {
			return err
		}
	}
	if p.StopBits != 0 {
		if _, err := types.ParseStopBits(strconv.Itoa(p.StopBits)); err != nil {
			return err
		}
	}
	if p.FlowControl != "" {
		if _, err := types.ParseFlowControl(p.FlowControl); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the defaults and every profile.
func (c *Config) Validate() error {
	if err := c.Defaults.Validate(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	for _, name := range c.ProfileNames() {
		if err := c.Profiles[name].Validate(); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
	}
	return nil
}
