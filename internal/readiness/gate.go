// Package readiness tracks one-shot startup work that must finish before
// dependent requests are served.
package readiness

import (
	"context"
	"errors"
	"sync"
)

// ErrNotReady is returned when the gate is still open when the wait ends.
var ErrNotReady = errors.New("not ready")

// Gate is closed exactly once, with the outcome of the startup work.
// The zero value is not usable; use NewGate.
type Gate struct {
	once sync.Once
	done chan struct{}
	err  error
}

// NewGate returns an open gate.
func NewGate() *Gate {
	return &Gate{done: make(chan struct{})}
}

// Done closes the gate with the result of the startup work. Later calls
// are ignored.
func (g *Gate) Done(err error) {
	g.once.Do(func() {
		g.err = err
		close(g.done)
	})
}

// Wait blocks until the gate closes or ctx ends. It returns the startup
// error, or ErrNotReady wrapped around the context error.
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.done:
		return g.err
	case <-ctx.Done():
		return errors.Join(ErrNotReady, ctx.Err())
	}
}

// Ready reports the gate state without blocking.
func (g *Gate) Ready() (closed bool, err error) {
	select {
	case <-g.done:
		return true, g.err
	default:
		return false, nil
	}
}
