package collect

import "sync"

// LeaveHook asks for confirmation before the host leaves the session.
type LeaveHook interface {
	Register()
	Deregister()
}

// NavigationGuard keeps a leave hook registered exactly while the session is locked.
type NavigationGuard struct {
	hook LeaveHook

	mu         sync.Mutex
	registered bool
}

// NewNavigationGuard returns a new navigation guard for the hook.
func NewNavigationGuard(hook LeaveHook) *NavigationGuard {
	return &NavigationGuard{hook: hook}
}

// Update registers or deregisters the hook when the lock value transitions.
func (g *NavigationGuard) Update(locked bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case locked && !g.registered:
		g.hook.Register()
		g.registered = true
	case !locked && g.registered:
		g.hook.Deregister()
		g.registered = false
	}
}

// Registered returns true if the hook is registered.
func (g *NavigationGuard) Registered() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.registered
}

// InterruptHook is a LeaveHook for terminals. While registered, interrupt
// signals are intercepted and delivered on Interrupts instead of terminating.
type InterruptHook struct {
	mu         sync.Mutex
	registered bool
	interrupts chan struct{}
}

// NewInterruptHook returns a new interrupt hook.
func NewInterruptHook() *InterruptHook {
	return &InterruptHook{interrupts: make(chan struct{}, 1)}
}

func (h *InterruptHook) Register() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.registered = true
}

func (h *InterruptHook) Deregister() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.registered = false
}

// Intercept returns true if the interrupt has been taken by the hook, false means
// the caller is free to terminate. Interrupts received while one is pending are merged.
func (h *InterruptHook) Intercept() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.registered {
		return false
	}

	select {
	case h.interrupts <- struct{}{}:
	default:
	}

	return true
}

// Interrupts returns the intercepted interrupts.
func (h *InterruptHook) Interrupts() <-chan struct{} { return h.interrupts }
