// Package mirror keeps an instantly computed local preview in sync with
// the authoritative remote recomputation. Both race to populate the same
// "current preview" value; a monotonically increasing request token
// ensures only the response matching the latest request is ever applied.
package mirror

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/complyport/deadlines/deadline"
)

// Calculator recomputes a preview authoritatively, typically over the
// network. Implementations must honor context cancellation.
type Calculator interface {
	Calculate(ctx context.Context, req deadline.PreviewRequest) (*deadline.PreviewResult, error)
}

// Coordinator runs the synchronous local engine on every recompute and
// mirrors the request to the authoritative calculator in the background.
// The local result is the rendering source of truth until the newest
// remote result lands; superseded remote responses are discarded.
type Coordinator struct {
	engine *deadline.Engine
	remote Calculator

	token atomic.Uint64

	mu            sync.RWMutex
	current       *deadline.PreviewResult
	authoritative bool
	cancel        context.CancelFunc

	// onApply, when set, is invoked after a remote result is accepted.
	// Useful for push-style rendering; nil is fine.
	onApply func(*deadline.PreviewResult)
}

// NewCoordinator wires a local engine to an optional remote calculator.
// A nil remote disables mirroring; local results are then final.
func NewCoordinator(engine *deadline.Engine, remote Calculator) *Coordinator {
	return &Coordinator{engine: engine, remote: remote}
}

// OnApply registers a callback for accepted remote results. Call before
// the first Recompute.
func (c *Coordinator) OnApply(fn func(*deadline.PreviewResult)) {
	c.onApply = fn
}

// Recompute runs the local engine synchronously, publishes its result as
// current, and kicks off the authoritative recomputation. Triggering a
// new recompute supersedes any in-flight remote request: its context is
// cancelled and its response, should it still arrive, is dropped.
func (c *Coordinator) Recompute(ctx context.Context, req deadline.PreviewRequest) (*deadline.PreviewResult, error) {
	local, err := c.engine.Preview(req)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	// Token assignment and publication happen under one lock so two
	// racing recomputes cannot publish in the opposite order of their
	// tokens.
	token := c.token.Add(1)
	if c.cancel != nil {
		c.cancel()
	}
	var remoteCtx context.Context
	remoteCtx, c.cancel = context.WithCancel(ctx)
	c.current = local
	c.authoritative = false
	c.mu.Unlock()

	if c.remote != nil {
		go c.mirror(remoteCtx, token, req)
	}

	return local, nil
}

func (c *Coordinator) mirror(ctx context.Context, token uint64, req deadline.PreviewRequest) {
	result, err := c.remote.Calculate(ctx, req)
	if err != nil {
		// A failed or cancelled remote call leaves the local result in
		// place; the next recompute retries anyway.
		return
	}

	c.mu.Lock()
	if c.token.Load() != token {
		// Superseded while in flight.
		c.mu.Unlock()
		return
	}
	c.current = result
	c.authoritative = true
	fn := c.onApply
	c.mu.Unlock()

	if fn != nil {
		fn(result)
	}
}

// Current returns the freshest preview and whether it came from the
// authoritative calculator.
func (c *Coordinator) Current() (*deadline.PreviewResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, c.authoritative
}
