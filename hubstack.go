package telemetry

import (
	"context"
	"sync"
)

// hubContextKey is the context.Context key under which the current hub
// travels across API boundaries that thread a context.
type hubContextKey struct{}

// currentHub is a process-wide fallback slot for goroutines that carry no
// context, approximating a thread-local "current hub" register. Go has no
// thread-locals; context.Context is the idiomatic channel for request/
// goroutine-scoped state, so it is the primary mechanism, and this
// mutex-guarded pointer is the fallback for top-level code with no context
// to thread it through.
var currentHubMu sync.Mutex
var currentHubFallback *Hub

// SetCurrent installs hub as the fallback current hub.
func SetCurrent(hub *Hub) {
	currentHubMu.Lock()
	defer currentHubMu.Unlock()
	currentHubFallback = hub
}

// ClearCurrent clears the fallback current hub.
func ClearCurrent() {
	currentHubMu.Lock()
	defer currentHubMu.Unlock()
	currentHubFallback = nil
}

// CurrentFromContext returns the hub carried by ctx, or the process-wide
// fallback if ctx carries none, or nil if neither is set.
func CurrentFromContext(ctx context.Context) *Hub {
	if ctx != nil {
		if h, ok := ctx.Value(hubContextKey{}).(*Hub); ok && h != nil {
			return h
		}
	}
	currentHubMu.Lock()
	defer currentHubMu.Unlock()
	return currentHubFallback
}

// ContextWithHub returns a copy of ctx carrying hub as the current hub.
func ContextWithHub(ctx context.Context, hub *Hub) context.Context {
	return context.WithValue(ctx, hubContextKey{}, hub)
}

// hubStack is the LIFO stack of scopes owned by a hub. The bottom scope
// (index 0) may never be popped.
type hubStack struct {
	mu     sync.Mutex
	scopes []*Scope
}

func newHubStack(root *Scope) *hubStack {
	return &hubStack{scopes: []*Scope{root}}
}

// push duplicates the current top scope and pushes the clone.
func (hs *hubStack) push() {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	top := hs.scopes[len(hs.scopes)-1]
	hs.scopes = append(hs.scopes, top.Clone())
}

// pop removes the top scope, unless it is the only (root) scope.
func (hs *hubStack) pop() {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	if len(hs.scopes) <= 1 {
		return
	}
	hs.scopes = hs.scopes[:len(hs.scopes)-1]
}

// current returns the top scope.
func (hs *hubStack) current() *Scope {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return hs.scopes[len(hs.scopes)-1]
}

// depth reports the number of scopes on the stack.
func (hs *hubStack) depth() int {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return len(hs.scopes)
}

// clone deep-copies the entire stack, used by Hub.Clone for the detached
// hub / scope-propagation-across-async-boundaries pattern.
func (hs *hubStack) clone() *hubStack {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	clone := &hubStack{scopes: make([]*Scope, len(hs.scopes))}
	for i, s := range hs.scopes {
		clone.scopes[i] = s.Clone()
	}
	return clone
}
