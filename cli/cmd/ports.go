package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/serialcat/cli/render"
	"github.com/justapithecus/serialcat/cli/tui"
	"github.com/justapithecus/serialcat/serial"
)

// listPorts is swapped in tests.
var listPorts = serial.ListPorts

// PortsCommand returns the ports command.
// It lists candidate devices and never opens any of them.
func PortsCommand() *cli.Command {
	return &cli.Command{
		Name:   "ports",
		Usage:  "List serial ports",
		Flags:  ReadOnlyFlags(),
		Action: portsAction,
	}
}

func portsAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	ports, err := listPorts()
	if err != nil {
		return cli.Exit(fmt.Sprintf("cannot list ports: %v", err), exitSessionFailure)
	}

	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewPorts, ports)
	}
	return r.Render(ports)
}
