package onnxruntime

import (
	"fmt"
	"slices"
	"sync"
)

// HandleKind identifies the native resource a Handle refers to.
type HandleKind int

// Handle kinds, in the order they are usually acquired.
const (
	HandleKindEnvironment HandleKind = iota
	HandleKindMemoryInfo
	HandleKindSessionOptions
	HandleKindSession
	HandleKindModelMetadata
	HandleKindRunOptions
	HandleKindValue
	HandleKindTypeInfo
	HandleKindTensorInfo
	HandleKindScope
)

func (k HandleKind) String() string {
	switch k {
	case HandleKindEnvironment:
		return "Environment"
	case HandleKindMemoryInfo:
		return "MemoryInfo"
	case HandleKindSessionOptions:
		return "SessionOptions"
	case HandleKindSession:
		return "Session"
	case HandleKindModelMetadata:
		return "ModelMetadata"
	case HandleKindRunOptions:
		return "RunOptions"
	case HandleKindValue:
		return "Value"
	case HandleKindTypeInfo:
		return "TypeInfo"
	case HandleKindTensorInfo:
		return "TensorInfo"
	case HandleKindScope:
		return "Scope"
	default:
		return fmt.Sprintf("HandleKind(%d)", int(k))
	}
}

// Handle is a registry-owned reference to a native resource.
// A Handle is released exactly once: either explicitly through Release or
// when its owning Registry is torn down.
type Handle struct {
	kind     HandleKind
	ptr      uintptr
	release  func(uintptr)
	owner    *Registry
	released bool // guarded by owner.mu
}

// Kind returns the kind of resource the handle refers to.
func (h *Handle) Kind() HandleKind {
	return h.kind
}

// Ptr returns the native pointer, or ErrUseAfterRelease once the handle
// has been released.
func (h *Handle) Ptr() (uintptr, error) {
	if h == nil || h.owner == nil {
		return 0, fmt.Errorf("%w: nil handle", ErrUseAfterRelease)
	}
	h.owner.mu.Lock()
	defer h.owner.mu.Unlock()
	if h.released {
		return 0, fmt.Errorf("%w: %s handle", ErrUseAfterRelease, h.kind)
	}
	return h.ptr, nil
}

// Released reports whether the handle has been released.
func (h *Handle) Released() bool {
	if h == nil || h.owner == nil {
		return true
	}
	h.owner.mu.Lock()
	defer h.owner.mu.Unlock()
	return h.released
}

// Release frees the native resource ahead of registry teardown.
// It is safe to call Release multiple times.
func (h *Handle) Release() {
	if h == nil || h.owner == nil {
		return
	}

	r := h.owner
	r.mu.Lock()
	if h.released {
		r.mu.Unlock()
		return
	}
	h.released = true
	if i := slices.Index(r.handles, h); i >= 0 {
		r.handles = slices.Delete(r.handles, i, i+1)
	}
	r.mu.Unlock()

	if h.release != nil {
		h.release(h.ptr)
	}
}

// Registry tracks native handles so that each is released exactly once, in
// reverse acquisition order, on every exit path.
//
// A Registry may be used from one goroutine at a time; ReleaseAll may be
// called concurrently with that use.
type Registry struct {
	mu       sync.Mutex
	handles  []*Handle
	released bool

	// scope is this registry's entry in its parent, nil for a root registry.
	scope *Handle
}

// NewRegistry returns an empty root registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Acquire records ptr under kind. The release function is called with ptr
// when the handle is released. A zero ptr yields a handle that is already
// released and never calls release.
//
// If the registry has already been torn down, ptr is released immediately
// and ErrUseAfterRelease is returned.
func (r *Registry) Acquire(kind HandleKind, ptr uintptr, release func(uintptr)) (*Handle, error) {
	h := &Handle{kind: kind, ptr: ptr, release: release, owner: r}
	if ptr == 0 {
		h.released = true
		return h, nil
	}

	r.mu.Lock()
	if r.released {
		r.mu.Unlock()
		if release != nil {
			release(ptr)
		}
		return nil, fmt.Errorf("%w: registry released before acquiring %s handle", ErrUseAfterRelease, kind)
	}
	r.handles = append(r.handles, h)
	r.mu.Unlock()

	return h, nil
}

// Scope returns a child registry whose teardown is recorded in r. Releasing
// the child frees only its own handles; releasing r frees the child too.
func (r *Registry) Scope() (*Registry, error) {
	child := &Registry{}
	h, err := r.Acquire(HandleKindScope, 1, func(uintptr) { child.ReleaseAll() })
	if err != nil {
		return nil, err
	}
	child.scope = h
	return child, nil
}

// ReleaseAll releases every live handle in reverse acquisition order.
// It is idempotent, and handles released individually are skipped.
func (r *Registry) ReleaseAll() {
	r.mu.Lock()
	if r.released {
		r.mu.Unlock()
		return
	}
	r.released = true
	handles := r.handles
	r.handles = nil
	for _, h := range handles {
		h.released = true
	}
	r.mu.Unlock()

	for i := len(handles) - 1; i >= 0; i-- {
		if h := handles[i]; h.release != nil {
			h.release(h.ptr)
		}
	}

	// Detach from the parent so long-lived parents do not accumulate
	// entries for finished scopes.
	if r.scope != nil {
		r.scope.Release()
	}
}

// Released reports whether ReleaseAll has run.
func (r *Registry) Released() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released
}

// Len returns the number of live handles directly owned by r.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
