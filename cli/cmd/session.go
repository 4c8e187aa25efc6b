package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/serialcat/cli/config"
	"github.com/justapithecus/serialcat/cli/render"
	"github.com/justapithecus/serialcat/iox"
	"github.com/justapithecus/serialcat/log"
	"github.com/justapithecus/serialcat/metrics"
	"github.com/justapithecus/serialcat/serial"
	"github.com/justapithecus/serialcat/session"
	"github.com/justapithecus/serialcat/types"
)

// Exit codes.
const (
	exitSuccess        = 0
	exitSessionFailure = 1
	exitUsage          = 2
	exitInterrupted    = 130
)

// sessionOptions is the fully resolved configuration of one session.
type sessionOptions struct {
	port        string
	settings    types.Settings
	raw         bool
	escapeQuit  bool
	drain       time.Duration
	logFile     string
	verbose     bool
	stats       bool
	statsFormat string
}

func (o sessionOptions) meta() types.SessionMeta {
	return types.SessionMeta{Port: o.port, Settings: o.settings, Raw: o.raw}
}

// openPort is swapped in tests.
var openPort = func(path string, s types.Settings) (sessionPort, error) {
	p, err := serial.Open(path, s)
	if err != nil {
		return nil, err
	}
	return serialPort{p}, nil
}

// sessionPort is the device as the session action uses it.
type sessionPort interface {
	io.Closer
	ReadHalf() session.DeviceReader
	WriteHalf() session.DeviceWriter
}

type serialPort struct{ *serial.Port }

func (p serialPort) ReadHalf() session.DeviceReader  { return p.Port.ReadHalf() }
func (p serialPort) WriteHalf() session.DeviceWriter { return p.Port.WriteHalf() }

// resolveOptions layers flags over the selected config profile.
func resolveOptions(c *cli.Context) (sessionOptions, error) {
	var cfg *config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return sessionOptions{}, err
		}
		cfg = loaded
	}

	profile, err := cfg.Profile(c.String("profile"))
	if err != nil {
		return sessionOptions{}, err
	}

	port := profile.Port
	switch c.NArg() {
	case 0:
	case 1:
		port = c.Args().First()
	default:
		return sessionOptions{}, fmt.Errorf("unexpected arguments after port: %s (options must precede <port>)",
			strings.Join(c.Args().Tail(), " "))
	}
	if port == "" {
		return sessionOptions{}, errors.New("missing <port> argument")
	}

	settings, err := resolveSettings(c, profile)
	if err != nil {
		return sessionOptions{}, err
	}

	drain := resolveDuration(c, "drain", profile.Drain.Duration)
	if drain <= 0 {
		return sessionOptions{}, fmt.Errorf("invalid drain window %s: must be positive", drain)
	}

	statsFormat := c.String("stats-format")
	if _, err := render.ParseFormat(statsFormat); err != nil {
		return sessionOptions{}, fmt.Errorf("--stats-format: %w", err)
	}

	return sessionOptions{
		port:        port,
		settings:    settings,
		raw:         resolveBool(c, "raw", profile.Raw),
		escapeQuit:  resolveBool(c, "escape-quit", profile.EscapeQuit),
		drain:       drain,
		logFile:     resolveString(c, "log-file", profile.LogFile),
		verbose:     c.Bool("verbose"),
		stats:       c.Bool("stats"),
		statsFormat: statsFormat,
	}, nil
}

func resolveSettings(c *cli.Context, profile config.Profile) (types.Settings, error) {
	var s types.Settings
	var err error

	s.BaudRate = resolveInt(c, "baud-rate", profile.BaudRate)
	if s.DataBits, err = types.ParseDataBits(strconv.Itoa(resolveInt(c, "data-bits", profile.DataBits))); err != nil {
		return s, err
	}
	if s.Parity, err = types.ParseParity(resolveString(c, "parity", profile.Parity)); err != nil {
		return s, err
	}
	if s.StopBits, err = types.ParseStopBits(strconv.Itoa(resolveInt(c, "stop-bits", profile.StopBits))); err != nil {
		return s, err
	}
	if s.FlowControl, err = types.ParseFlowControl(resolveString(c, "flow-control", profile.FlowControl)); err != nil {
		return s, err
	}
	return s, s.Validate()
}

// openLogger selects the log destination. The returned func flushes and
// releases it.
func openLogger(opts sessionOptions, stderr io.Writer) (*log.Logger, func(), error) {
	switch {
	case opts.logFile != "":
		f, err := os.OpenFile(opts.logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot open log file: %w", err)
		}
		logger := log.NewLogger(opts.meta(), log.Options{Output: f, Debug: opts.verbose})
		return logger, func() {
			_ = logger.Sync()
			iox.DiscardClose(f)
		}, nil
	case opts.verbose:
		logger := log.NewLogger(opts.meta(), log.Options{Output: stderr, Debug: true})
		return logger, func() { _ = logger.Sync() }, nil
	default:
		return log.NewNop(), func() {}, nil
	}
}

func sessionAction(c *cli.Context) error {
	opts, err := resolveOptions(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	logger, closeLog, err := openLogger(opts, c.App.ErrWriter)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	defer closeLog()

	port, err := openPort(opts.port, opts.settings)
	if err != nil {
		logger.Sugar().Errorf("open %s failed: %v", opts.port, err)
		return cli.Exit(err.Error(), exitUsage)
	}
	// Closing the port also unblocks a reader the bridge abandoned.
	defer releasePort(port, opts.port, logger)
	logger.Sugar().Debugf("opened %s at %s", opts.port, opts.settings)

	collector := metrics.NewCollector(opts.port, opts.meta().Mode())

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Sugar().Infof("received %s, stopping", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	reader := session.NewReader(session.ReaderConfig{
		Device:      port.ReadHalf(),
		Display:     c.App.Writer,
		Raw:         opts.raw,
		DrainWindow: opts.drain,
		Logger:      logger,
		Collector:   collector,
	})
	writer := session.NewWriter(session.WriterConfig{
		Input:     c.App.Reader,
		Device:    port.WriteHalf(),
		ExitOnEOF: opts.escapeQuit,
		Logger:    logger,
		Collector: collector,
	})

	logger.Info("session started", map[string]any{
		"drain_ms":    opts.drain.Milliseconds(),
		"escape_quit": opts.escapeQuit,
	})
	runErr := session.NewBridge(reader, writer, logger).Run(ctx)

	snap := collector.Snapshot()
	logger.Info("session ended", map[string]any{
		"device_bytes":  snap.DeviceBytes,
		"written_bytes": snap.WrittenBytes,
		"duration_ms":   snap.Duration.Milliseconds(),
	})

	if opts.stats {
		if err := printStats(c.App.ErrWriter, opts.statsFormat, snap); err != nil {
			logger.Warn("stats output failed", map[string]any{"error": err.Error()})
		}
	}

	return sessionExit(runErr)
}

// closeGrace bounds how long the action waits for the device to close.
// Close blocks while an abandoned writer is still inside tcdrain, which on a
// stalled flow-controlled line may never return; the process exit releases
// the descriptor instead.
var closeGrace = 250 * time.Millisecond

// releasePort closes port without holding up the hard stop. It reports
// whether the close finished within closeGrace.
func releasePort(port io.Closer, path string, logger *log.Logger) bool {
	done := make(chan struct{})
	go func() {
		iox.DiscardClose(port)
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(closeGrace):
		logger.Sugar().Warnf("close of %s still pending after %s", path, closeGrace)
		return false
	}
}

func printStats(w io.Writer, format string, snap metrics.Snapshot) error {
	r, err := render.NewRendererFor(format, false, w)
	if err != nil {
		return err
	}
	return r.Render(snap)
}

// sessionExit maps the bridge outcome to an exit status.
func sessionExit(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return cli.Exit("interrupted", exitInterrupted)
	default:
		return cli.Exit(err.Error(), exitSessionFailure)
	}
}
