package reactive

import (
	"context"
	"sync"
	"sync/atomic"
)

var scopeIDs atomic.Uint64

// Scope represents an owner (typically a component instance) that owns
// property tables and subscriptions. When a Scope is disposed, its child
// scopes are disposed, its cleanups run in reverse registration order and
// its context is cancelled.
//
// Scopes form a hierarchy mirroring the component tree.
type Scope struct {
	id     uint64
	parent *Scope

	children   []*Scope
	childrenMu sync.Mutex

	cleanups   []*cleanup
	cleanupsMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc

	disposed atomic.Bool
}

type cleanup struct {
	fn func()
}

// NewScope creates a Scope registered as a child of parent.
// If parent is nil, creates a root Scope.
func NewScope(parent *Scope) *Scope {
	base := context.Background()
	if parent != nil {
		base = parent.ctx
	}
	ctx, cancel := context.WithCancel(base)
	s := &Scope{
		id:     scopeIDs.Add(1),
		parent: parent,
		ctx:    ctx,
		cancel: cancel,
	}
	if parent != nil {
		parent.addChild(s)
	}
	return s
}

// ID returns the unique identifier for this Scope.
func (s *Scope) ID() uint64 {
	return s.id
}

// Parent returns the parent Scope, or nil for a root Scope.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Context returns a context cancelled when the Scope is disposed.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Done is shorthand for Context().Done().
func (s *Scope) Done() <-chan struct{} {
	return s.ctx.Done()
}

// IsDisposed returns true if this Scope has been disposed.
func (s *Scope) IsDisposed() bool {
	return s.disposed.Load()
}

func (s *Scope) addChild(child *Scope) {
	if s.disposed.Load() {
		child.Dispose()
		return
	}
	s.childrenMu.Lock()
	defer s.childrenMu.Unlock()
	s.children = append(s.children, child)
}

func (s *Scope) removeChild(child *Scope) {
	s.childrenMu.Lock()
	defer s.childrenMu.Unlock()
	for i, c := range s.children {
		if c == child {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return
		}
	}
}

// OnCleanup registers fn to run when the Scope is disposed. If the Scope
// is already disposed, fn runs immediately. The returned function
// unregisters fn.
func (s *Scope) OnCleanup(fn func()) (remove func()) {
	if s.disposed.Load() {
		fn()
		return func() {}
	}

	c := &cleanup{fn: fn}
	s.cleanupsMu.Lock()
	s.cleanups = append(s.cleanups, c)
	s.cleanupsMu.Unlock()

	return func() {
		s.cleanupsMu.Lock()
		defer s.cleanupsMu.Unlock()
		for i, e := range s.cleanups {
			if e == c {
				s.cleanups = append(s.cleanups[:i], s.cleanups[i+1:]...)
				return
			}
		}
	}
}

// Dispose tears the Scope down. It is idempotent.
func (s *Scope) Dispose() {
	if !s.disposed.CompareAndSwap(false, true) {
		return
	}

	s.childrenMu.Lock()
	children := s.children
	s.children = nil
	s.childrenMu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	s.cleanupsMu.Lock()
	fns := make([]func(), 0, len(s.cleanups))
	for _, c := range s.cleanups {
		fns = append(fns, c.fn)
	}
	s.cleanups = nil
	s.cleanupsMu.Unlock()

	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}

	s.cancel()

	if s.parent != nil {
		s.parent.removeChild(s)
	}
}
