package core

import (
	"context"
	"sync"
	"time"

	"github.com/unidb/unidb/dberr"
)

// session is the private single-flight execution context owned by one
// Connection. A dedicated goroutine drains an unbuffered operation
// channel, so submission order is execution order, at most one operation
// is ever in flight, and sessions of different Connections never block
// each other.
type session struct {
	ops     chan func()
	stop    chan struct{}
	closed  chan struct{}
	stopped sync.Once
}

func newSession() *session {
	s := &session{
		ops:    make(chan func()),
		stop:   make(chan struct{}),
		closed: make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *session) loop() {
	defer close(s.closed)
	for {
		select {
		case fn := <-s.ops:
			fn()
		case <-s.stop:
			return
		}
	}
}

// shutdown stops the loop and waits for it to exit. It must not be
// called from inside an operation.
func (s *session) shutdown() {
	s.stopped.Do(func() { close(s.stop) })
	<-s.closed
}

// Operation is the handle of one queued asynchronous operation. It
// settles exactly once; Done is closed when the outcome is available.
type Operation[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Done is closed once the operation has settled.
func (o *Operation[T]) Done() <-chan struct{} { return o.done }

// Wait blocks until the operation settles and returns its outcome.
func (o *Operation[T]) Wait() (T, error) {
	<-o.done
	return o.val, o.err
}

// startOp enqueues fn onto the session. The calling goroutine blocks
// only until the loop accepts the operation; Wait blocks until it
// settles. timeout bounds fn's context, zero means unbounded.
func startOp[T any](s *session, ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) *Operation[T] {
	op := &Operation[T]{done: make(chan struct{})}
	thunk := func() {
		defer close(op.done)
		opCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			opCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		op.val, op.err = fn(opCtx)
	}
	select {
	case s.ops <- thunk:
	case <-s.closed:
		op.err = dberr.New(dberr.KindInterface, "connection is closed")
		close(op.done)
	case <-ctx.Done():
		op.err = dberr.Wrap(dberr.KindOperational, ctx.Err(), "operation abandoned while queued")
		close(op.done)
	}
	return op
}

// runOp is the blocking equivalent of startOp: submit, then wait.
func runOp[T any](s *session, ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	return startOp(s, ctx, timeout, fn).Wait()
}
