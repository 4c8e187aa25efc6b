package cmd

import (
	"time"

	"github.com/urfave/cli/v2"
)

// Config precedence: explicitly set flag > config value > flag default.
// A zero config value means the config does not set the field.

func resolveString(c *cli.Context, name, cfgVal string) string {
	if c.IsSet(name) || cfgVal == "" {
		return c.String(name)
	}
	return cfgVal
}

func resolveInt(c *cli.Context, name string, cfgVal int) int {
	if c.IsSet(name) || cfgVal == 0 {
		return c.Int(name)
	}
	return cfgVal
}

func resolveBool(c *cli.Context, name string, cfgVal *bool) bool {
	if c.IsSet(name) || cfgVal == nil {
		return c.Bool(name)
	}
	return *cfgVal
}

func resolveDuration(c *cli.Context, name string, cfgVal time.Duration) time.Duration {
	if c.IsSet(name) || cfgVal == 0 {
		return c.Duration(name)
	}
	return cfgVal
}
