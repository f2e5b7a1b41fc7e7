// Package sim holds the small primitives shared by the sweep tools: clock
// frequencies, hooks, and ID generators.
package sim

import "sync"

// HookPos names a place where a hookable object reports what it is doing.
type HookPos struct {
	Name string
}

// HookCtx describes one invocation of a hook.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   any
	Detail any
}

// Hookable is an object that hooks can be attached to.
type Hookable interface {
	AcceptHook(hook Hook)
}

// Hook observes a Hookable.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc adapts a plain function to the Hook interface.
type HookFunc func(ctx HookCtx)

// Func calls f(ctx).
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// AtPos wraps a hook so that it only sees invocations at pos.
func AtPos(pos *HookPos, hook Hook) Hook {
	return HookFunc(func(ctx HookCtx) {
		if ctx.Pos == pos {
			hook.Func(ctx)
		}
	})
}

// HookableBase keeps the hooks of a Hookable. Hooks may be attached and
// invoked from several goroutines; each invocation runs the hooks attached
// when it started, in the order they were attached.
type HookableBase struct {
	lock  sync.RWMutex
	hooks []Hook
}

// NewHookableBase creates a HookableBase without hooks.
func NewHookableBase() *HookableBase {
	return &HookableBase{}
}

// AcceptHook attaches a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.hooks = append(h.hooks, hook)
}

// NumHooks returns the number of attached hooks.
func (h *HookableBase) NumHooks() int {
	h.lock.RLock()
	defer h.lock.RUnlock()

	return len(h.hooks)
}

// InvokeHook calls every attached hook with ctx.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	h.lock.RLock()
	hooks := h.hooks
	h.lock.RUnlock()

	for _, hook := range hooks {
		hook.Func(ctx)
	}
}
