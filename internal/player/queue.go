package player

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

// ErrClosed is reported for requests submitted to, or still queued in, a
// closed Queue.
var ErrClosed = errors.New("player queue closed")

const queueDepth = 8

type requestKind int

const (
	requestPlay requestKind = iota + 1
	requestStop
)

type request struct {
	kind   requestKind
	gen    uint64
	ctx    context.Context
	ref    string
	result chan error
}

// Queue applies Play and Stop requests to a Player on one goroutine, in the
// order they were submitted. Submitting only blocks while the queue is
// full; the returned channel delivers the outcome. A Play superseded by a
// later request before it starts is skipped and reports nil.
type Queue struct {
	player Player
	logger *slog.Logger

	mu   sync.Mutex // orders gen with the send on reqs
	gen  atomic.Uint64
	reqs chan request

	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewQueue starts the worker for p. Close stops it.
func NewQueue(p Player, logger *slog.Logger) *Queue {
	if p == nil {
		p = Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		player: p,
		logger: logger,
		reqs:   make(chan request, queueDepth),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go q.loop()
	return q
}

// Play queues ref for playback.
func (q *Queue) Play(ctx context.Context, ref string) <-chan error {
	if ctx == nil {
		ctx = context.Background()
	}
	return q.submit(request{kind: requestPlay, ctx: ctx, ref: ref})
}

// Stop queues a stop. It runs after every request submitted before it.
func (q *Queue) Stop() <-chan error {
	return q.submit(request{kind: requestStop})
}

// Close stops the worker. Requests still queued report ErrClosed. The
// underlying player is not stopped.
func (q *Queue) Close() error {
	q.closeOnce.Do(func() { close(q.quit) })
	<-q.done
	return nil
}

func (q *Queue) submit(r request) <-chan error {
	r.result = make(chan error, 1)

	q.mu.Lock()
	defer q.mu.Unlock()
	select {
	case <-q.quit:
		r.result <- ErrClosed
		return r.result
	default:
	}
	r.gen = q.gen.Add(1)
	select {
	case q.reqs <- r:
	case <-q.quit:
		r.result <- ErrClosed
	}
	return r.result
}

func (q *Queue) loop() {
	defer close(q.done)
	for {
		select {
		case <-q.quit:
			q.drain()
			return
		case r := <-q.reqs:
			r.result <- q.apply(r)
		}
	}
}

func (q *Queue) apply(r request) error {
	switch r.kind {
	case requestPlay:
		if r.gen != q.gen.Load() {
			q.logger.Debug("skipping superseded video", "video", r.ref)
			return nil
		}
		return q.player.Play(r.ctx, r.ref)
	case requestStop:
		return q.player.Stop()
	default:
		return nil
	}
}

func (q *Queue) drain() {
	for {
		select {
		case r := <-q.reqs:
			r.result <- ErrClosed
		default:
			return
		}
	}
}
