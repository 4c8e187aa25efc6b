// Package main provides the serialcat CLI entrypoint.
//
// Usage:
//
//	serialcat [options] <port>
//	serialcat <command> [options]
//
// Exit codes:
//   - 0: session ended cleanly
//   - 1: session failure (read, write, or flush)
//   - 2: usage, config, or open failure
//   - 130: interrupted
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/serialcat/cli/cmd"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

var (
	stderr io.Writer = os.Stderr
	// hardStop ends the process. A pipeline abandoned by the bridge may still
	// be blocked reading stdin, which cannot be interrupted any other way, so
	// main never returns normally after a session.
	hardStop = os.Exit
)

func main() {
	app := cmd.NewApp(commit)
	app.ExitErrHandler = exitErrHandler

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already stopped the process for cli.ExitCoder errors.
		hardStop(1)
		return
	}
	hardStop(0)
}

// exitErrHandler prints the error message, if any, and stops with the
// exit code carried by cli.Exit.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	code, msg := exitStatus(err)
	if msg != "" {
		_, _ = fmt.Fprintln(stderr, msg)
	}
	hardStop(code)
}

// exitStatus extracts the exit code and the message worth printing.
func exitStatus(err error) (int, string) {
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		// cli.Exit("", N).Error() may read "exit status N"
		if msg == fmt.Sprintf("exit status %d", code) {
			msg = ""
		}
		return code, msg
	}
	return 1, fmt.Sprintf("Error: %v", err)
}
