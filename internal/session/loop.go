package session

import (
	"context"
	"sync"
	"time"
)

// Loop serializes everything that touches one session's state. Work is
// posted as closures and run one at a time on the goroutine calling Run.
//
// Code running on the loop must not call Post directly; it schedules
// follow-up work with After or Go instead.
type Loop struct {
	events chan func()
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	timers map[*time.Timer]struct{}
}

func NewLoop(buffer int) *Loop {
	ctx, cancel := context.WithCancel(context.Background())
	return &Loop{
		events: make(chan func(), buffer),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		timers: make(map[*time.Timer]struct{}),
	}
}

// Run processes posted work until the loop is closed.
func (l *Loop) Run() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			return
		case fn := <-l.events:
			if l.ctx.Err() != nil {
				return
			}
			fn()
		}
	}
}

// Post queues fn. It reports false once the loop is closed.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.ctx.Done():
		return false
	default:
	}
	select {
	case l.events <- fn:
		return true
	case <-l.ctx.Done():
		return false
	}
}

// After posts fn once d has elapsed. Pending timers are stopped on Close.
func (l *Loop) After(d time.Duration, fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ctx.Err() != nil {
		return
	}

	var t *time.Timer
	t = time.AfterFunc(d, func() {
		l.mu.Lock()
		delete(l.timers, t)
		l.mu.Unlock()
		l.Post(fn)
	})
	l.timers[t] = struct{}{}
}

// Go runs op on its own goroutine with the loop's context and posts the
// continuation it returns.
func (l *Loop) Go(op func(ctx context.Context) func()) {
	if l.ctx.Err() != nil {
		return
	}
	go func() {
		if next := op(l.ctx); next != nil {
			l.Post(next)
		}
	}()
}

// Close stops the loop: pending timers are cancelled, in-flight work sees a
// cancelled context and later posts are dropped. Safe to call from the loop
// itself and more than once.
func (l *Loop) Close() {
	l.cancel()

	l.mu.Lock()
	for t := range l.timers {
		t.Stop()
	}
	l.timers = make(map[*time.Timer]struct{})
	l.mu.Unlock()
}

func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) Alive() bool {
	return l.ctx.Err() == nil
}
