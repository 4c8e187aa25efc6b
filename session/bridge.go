package session

import (
	"context"

	"github.com/justapithecus/serialcat/log"
)

// Pipeline is one direction of the bridge.
type Pipeline interface {
	Run(ctx context.Context) error
}

// Bridge races a Reader and a Writer pipeline.
type Bridge struct {
	reader Pipeline
	writer Pipeline
	logger *log.Logger
}

// NewBridge creates a Bridge over the two directions.
func NewBridge(reader, writer Pipeline, logger *log.Logger) *Bridge {
	return &Bridge{reader: reader, writer: writer, logger: logger}
}

type outcome struct {
	side Side
	err  error
}

// Run starts both pipelines and returns the result of whichever finishes
// first, success or failure. The other pipeline is abandoned: its context is
// cancelled so it performs no further output once its blocking call
// returns, but Run does not wait for it. Callers that own an uncancellable
// reader (stdin) must stop the process after Run returns.
func (b *Bridge) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so the abandoned pipeline never blocks on send.
	done := make(chan outcome, 2)
	go func() { done <- outcome{side: SideReader, err: b.reader.Run(ctx)} }()
	go func() { done <- outcome{side: SideWriter, err: b.writer.Run(ctx)} }()

	select {
	case o := <-done:
		fields := map[string]any{"side": string(o.side)}
		if o.err != nil {
			fields["error"] = o.err.Error()
			b.logger.Warn("pipeline failed", fields)
		} else {
			b.logger.Info("pipeline finished", fields)
		}
		return o.err
	case <-ctx.Done():
		b.logger.Info("session cancelled", nil)
		return ctx.Err()
	}
}
