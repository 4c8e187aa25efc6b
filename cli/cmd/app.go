package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/serialcat/types"
)

// NewApp builds the serialcat application. The root action runs a bridge
// session; subcommands are read-only.
func NewApp(commit string) *cli.App {
	return &cli.App{
		Name:      "serialcat",
		Usage:     "Bridge a serial device and the terminal",
		UsageText: "serialcat [options] <port>\nserialcat <command> [options]",
		ArgsUsage: "<port>",
		Version:   fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		// -v is --verbose; the version command replaces the flag.
		HideVersion:            true,
		UseShortOptionHandling: true,
		Flags:                  SessionFlags(),
		Action:                 sessionAction,
		OnUsageError:           usageError,
		Commands: []*cli.Command{
			PortsCommand(),
			VersionCommand(commit),
		},
	}
}

func usageError(c *cli.Context, err error, _ bool) error {
	_, _ = fmt.Fprintf(c.App.ErrWriter, "Incorrect Usage: %v\n\n", err)
	_ = cli.ShowAppHelp(c)
	return cli.Exit("", exitUsage)
}
