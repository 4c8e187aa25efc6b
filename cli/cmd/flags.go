// Package cmd provides the CLI commands for the serialcat binary.
package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/serialcat/cli/config"
	"github.com/justapithecus/serialcat/session"
	"github.com/justapithecus/serialcat/types"
)

// Shared flags for read-only commands.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"o"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for the ports command.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (ports only)",
	}
)

// ReadOnlyFlags returns the shared flags for all read-only commands.
// Includes --tui so that unsupported commands can provide explicit error messages
// instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// SessionFlags returns the root flags that configure a bridge session.
// Defaults here are the built-in layer; config defaults and profiles sit
// between them and explicitly set flags.
func SessionFlags() []cli.Flag {
	d := types.DefaultSettings()
	return []cli.Flag{
		// Line settings
		&cli.IntFlag{
			Name:    "baud-rate",
			Aliases: []string{"b"},
			Usage:   "Baud rate",
			Value:   d.BaudRate,
		},
		&cli.IntFlag{
			Name:    "data-bits",
			Aliases: []string{"d"},
			Usage:   "Data bits: 5, 6, 7, 8",
			Value:   int(d.DataBits),
		},
		&cli.StringFlag{
			Name:    "parity",
			Aliases: []string{"p"},
			Usage:   "Parity: none, odd, even",
			Value:   string(d.Parity),
		},
		&cli.IntFlag{
			Name:    "stop-bits",
			Aliases: []string{"s"},
			Usage:   "Stop bits: 1, 2",
			Value:   int(d.StopBits),
		},
		&cli.StringFlag{
			Name:    "flow-control",
			Aliases: []string{"f"},
			Usage:   "Flow control: none, software, hardware",
			Value:   string(d.FlowControl),
		},
		// Display and lifetime
		&cli.BoolFlag{
			Name:    "raw",
			Aliases: []string{"r"},
			Usage:   "Write device bytes to stdout unmodified",
		},
		&cli.BoolFlag{
			Name:    "escape-quit",
			Aliases: []string{"e"},
			Usage:   "Exit when stdin reaches end of input",
		},
		&cli.DurationFlag{
			Name:  "drain",
			Usage: "How long to discard stale device input before streaming",
			Value: session.DefaultDrainWindow,
		},
		// Config file
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to serialcat.yaml",
			EnvVars: []string{config.EnvPath},
		},
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"P"},
			Usage:   "Named profile from the config file",
		},
		// Diagnostics
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "Append JSON logs to this file",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logs (to stderr unless --log-file is set)",
		},
		&cli.BoolFlag{
			Name:  "stats",
			Usage: "Print session statistics to stderr on exit",
		},
		&cli.StringFlag{
			Name:  "stats-format",
			Usage: "Statistics format: json, table, yaml",
			Value: "table",
		},
	}
}
