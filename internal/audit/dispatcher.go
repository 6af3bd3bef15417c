package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
	Logger     *slog.Logger
}

// Dispatcher forwards session events to a sink from one goroutine.
type Dispatcher struct {
	cfg     Config
	sink    Sink
	queue   chan Event
	stop    chan struct{}
	stopped sync.WaitGroup
	once    sync.Once
	closed  atomic.Bool

	dropped atomic.Uint64
	failed  atomic.Uint64
}

func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:   cfg,
		sink:  sink,
		queue: make(chan Event, cfg.BufferSize),
		stop:  make(chan struct{}),
	}
	d.stopped.Add(1)
	go d.loop()
	return d
}

func (d *Dispatcher) loop() {
	defer d.stopped.Done()

	for {
		select {
		case ev := <-d.queue:
			d.deliver(ev)
		case <-d.stop:
			for {
				select {
				case ev := <-d.queue:
					d.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

// deliver hands ev to the sink. A panicking sink loses that event only.
func (d *Dispatcher) deliver(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.failed.Add(1)
			d.cfg.Logger.Warn("audit sink failed",
				slog.String("event_type", ev.EventType),
				slog.Any("panic", r),
			)
		}
	}()
	d.sink.Emit(context.Background(), ev)
}

func (d *Dispatcher) Emit(ctx context.Context, ev Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.queue <- ev:
		case <-d.stop:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- ev:
	case <-ctx.Done():
	case <-d.stop:
	}
}

// Close flushes queued events and stops the loop.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.stop)
		d.stopped.Wait()
	})
}

func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Failed counts events whose sink panicked.
func (d *Dispatcher) Failed() uint64 {
	if d == nil {
		return 0
	}
	return d.failed.Load()
}
