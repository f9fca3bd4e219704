package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/brickview/internal/gallery"
)

const defaultPollInterval = 2 * time.Second

// PollSource is the cheap change check the poller runs every tick.
type PollSource interface {
	Poll(ctx context.Context) (gallery.PollResult, error)
}

// Poller checks a PollSource on a fixed cadence. Ticks never overlap: the
// loop is sequential and the ticker drops ticks while a poll is in flight.
// Failures are logged and the next tick proceeds as normal.
type Poller struct {
	source   PollSource
	interval time.Duration
	onTick   func(gallery.PollResult)
	logger   *slog.Logger

	stopOnce sync.Once
	stop     chan struct{}
}

// NewPoller builds a poller. onTick runs on the poller goroutine after each
// successful poll; it may be nil.
func NewPoller(source PollSource, interval time.Duration, onTick func(gallery.PollResult), logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		source:   source,
		interval: interval,
		onTick:   onTick,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Interval returns the polling period.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Run polls immediately and then once per interval until ctx is done or
// Stop is called. It always returns nil so it can sit in an errgroup
// without tearing the UI down.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	failures := 0
	for {
		failures = p.tick(ctx, failures)
		select {
		case <-ctx.Done():
			return nil
		case <-p.stop:
			return nil
		case <-ticker.C:
		}
	}
}

// Start runs the poller on its own goroutine.
func (p *Poller) Start(ctx context.Context) {
	go func() { _ = p.Run(ctx) }()
}

// Stop cancels future ticks. A poll already in flight finishes. Calling
// Stop more than once is safe.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}

func (p *Poller) tick(ctx context.Context, failures int) int {
	select {
	case <-p.stop:
		return failures
	default:
	}

	result, err := p.source.Poll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return failures
		}
		failures++
		if failures == 1 {
			p.logger.Warn("poll failed", "error", err)
		} else {
			p.logger.Debug("poll failed", "error", err, "consecutive", failures)
		}
		return failures
	}
	if failures > 0 {
		p.logger.Info("poll recovered", "after_failures", failures)
	}
	if result.NewContent {
		p.logger.Debug("new content", "total", result.Total)
	}
	if p.onTick != nil {
		p.onTick(result)
	}
	return 0
}
