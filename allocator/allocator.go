// Package allocator is the pluggable memory-resource hook a coroutine
// promise carries alongside it (spec.md §6 "External interfaces —
// Allocator"). The C++ source stores a pointer to a std::pmr::memory_resource
// at a computed offset past the promise so deallocation finds its allocator
// without a global lookup; Go structs are always GC-managed, so there is no
// placement-new equivalent. The same "found without a global lookup"
// contract is kept by storing the Allocator as an ordinary struct field on
// coro.Promise instead.
package allocator

import "sync/atomic"

// Allocator is the pluggable memory-resource hook. Allocate/Deallocate are
// bookkeeping calls, not raw-buffer requests — an embedder can use them to
// track coroutine-frame memory pressure without Go ever handing out
// unmanaged memory for a safely typed struct.
type Allocator interface {
	Allocate(size, align int)
	Deallocate(size, align int)
}

// GCAllocator is the default Allocator: actual storage always comes from
// Go's garbage collector; this only counts bytes passed through it.
type GCAllocator struct {
	allocated   atomic.Int64
	deallocated atomic.Int64
}

// Default returns the zero-value GCAllocator.
func Default() *GCAllocator { return &GCAllocator{} }

func (a *GCAllocator) Allocate(size, align int) { a.allocated.Add(int64(size)) }

func (a *GCAllocator) Deallocate(size, align int) { a.deallocated.Add(int64(size)) }

// Allocated returns the running total of bytes passed to Allocate.
func (a *GCAllocator) Allocated() int64 { return a.allocated.Load() }

// Deallocated returns the running total of bytes passed to Deallocate.
func (a *GCAllocator) Deallocated() int64 { return a.deallocated.Load() }
