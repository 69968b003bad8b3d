/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package fdtable implements the per-file-descriptor network state table.
// Growth is a segmented array of fixed chunks rather than a reallocating
// slice: reallocation in place is a data race against concurrent readers
// holding a pointer into the old block. Here, once a chunk is published,
// its address never changes, so a reader that already resolved a chunk
// pointer never observes a relocation.
package fdtable

import (
	"sync"
	"sync/atomic"

	"github.com/sabouaram/scopeagent/internal/scopeerr"
	"github.com/sabouaram/scopeagent/network"
)

// ChunkSize is the number of slots allocated per growth step.
const ChunkSize = 1024

// NetEntries is the initial capacity.
const NetEntries = 1024

// MaxFDs is the hard cap past which descriptors are silently untracked.
const MaxFDs = 65536

// Table is the per-descriptor state table. It is safe for concurrent use:
// growth is synchronized by growMu, but reads of already published chunks
// never take a lock (segmented table, never relocated).
type Table struct {
	growMu sync.Mutex
	chunks atomic.Pointer[[]*chunk]
	cap    atomic.Int64

	onError func(code scopeerr.Code, op string, err error)
}

type chunk struct {
	slots [ChunkSize]Entry
}

// New allocates a Table with NetEntries initial capacity.
func New(onError func(code scopeerr.Code, op string, err error)) *Table {
	if onError == nil {
		onError = func(scopeerr.Code, string, error) {}
	}
	t := &Table{onError: onError}
	n := (NetEntries + ChunkSize - 1) / ChunkSize
	cs := make([]*chunk, n)
	for i := range cs {
		cs[i] = newChunk()
	}
	t.chunks.Store(&cs)
	t.cap.Store(int64(n) * ChunkSize)
	return t
}

func newChunk() *chunk {
	c := &chunk{}
	for i := range c.slots {
		c.slots[i].fd = -1
	}
	return c
}

// capacity returns the current table capacity.
func (t *Table) capacity() int64 {
	return t.cap.Load()
}

// grow extends the table so that fd is addressable, up to MaxFDs. Returns
// false (AllocFailed, logged by the caller) when fd is beyond MaxFDs.
func (t *Table) grow(fd int) bool {
	if fd >= MaxFDs {
		return false
	}

	t.growMu.Lock()
	defer t.growMu.Unlock()

	if int64(fd) < t.cap.Load() {
		return true
	}

	old := *t.chunks.Load()
	need := (fd/ChunkSize + 1)
	if need <= len(old) {
		return true
	}

	next := make([]*chunk, need)
	copy(next, old)
	for i := len(old); i < need; i++ {
		next[i] = newChunk()
	}

	t.chunks.Store(&next)
	t.cap.Store(int64(need) * ChunkSize)
	return true
}

func (t *Table) slot(fd int) *Entry {
	if fd < 0 || int64(fd) >= t.cap.Load() {
		return nil
	}
	cs := *t.chunks.Load()
	ci := fd / ChunkSize
	if ci >= len(cs) {
		return nil
	}
	return &cs[ci].slots[fd%ChunkSize]
}

// Get returns a point-in-time snapshot of fd's entry. ok is false when fd
// is untracked or beyond the current/maximum capacity.
func (t *Table) Get(fd int) (snap Snapshot, ok bool) {
	e := t.slot(fd)
	if e == nil {
		return Snapshot{}, false
	}
	if !e.valid(fd) {
		return Snapshot{}, false
	}
	return e.snapshot(), true
}

// Add records fd under kind. Duplicate adds (a slot that already tracks
// fd, e.g. a socket() on a reused descriptor whose close was never
// observed) are reported back so the interceptor can undo the stale
// open_ports/tcp_connections view the old entry had contributed.
func (t *Table) Add(fd int, kind network.Kind) (wasDuplicate bool) {
	if fd < 0 {
		return false
	}

	if int64(fd) >= t.capacity() {
		if !t.grow(fd) {
			t.onError(scopeerr.AllocFailed, "fdtable.Add", nil)
			return false
		}
	}

	e := t.slot(fd)
	if e == nil {
		t.onError(scopeerr.AllocFailed, "fdtable.Add", nil)
		return false
	}

	if e.valid(fd) {
		e.reset(fd, kind)
		return true
	}

	e.reset(fd, kind)
	return false
}

// SetEndpointSide selects which endpoint set_endpoint/ensure_addrs target.
type SetEndpointSide uint8

const (
	Local SetEndpointSide = iota
	Remote
)

// SetEndpoint copies addr into the chosen side of a tracked fd's entry.
// An unspecified addr is ignored.
func (t *Table) SetEndpoint(fd int, addr SockAddr, side SetEndpointSide) {
	if addr.Family == Unspecified {
		return
	}
	e := t.slot(fd)
	if e == nil || !e.valid(fd) {
		return
	}
	if side == Local {
		e.setLocal(addr)
	} else {
		e.setRemote(addr)
	}
}

// MarkListen sets/clears the listen flag on a tracked fd.
func (t *Table) MarkListen(fd int, v bool) {
	if e := t.slot(fd); e != nil && e.valid(fd) {
		e.setListen(v)
	}
}

// MarkAccept sets/clears the accept flag on a tracked fd.
func (t *Table) MarkAccept(fd int, v bool) {
	if e := t.slot(fd); e != nil && e.valid(fd) {
		e.setAccept(v)
	}
}

// SetDNSName records the last parsed DNS query name against fd.
func (t *Table) SetDNSName(fd int, name string) {
	if e := t.slot(fd); e != nil && e.valid(fd) {
		e.setDNSName(name)
	}
}

// Remove vacates fd's slot.
func (t *Table) Remove(fd int) {
	if e := t.slot(fd); e != nil && e.valid(fd) {
		e.vacate()
	}
}

// EnsureAddrsFunc performs the OS-level getsockname/getpeername lookups;
// it is supplied by internal/intercept so this package stays free of cgo.
type EnsureAddrsFunc func(fd int) (local, remote SockAddr, err error)

// EnsureAddrs lazily resolves endpoints still marked Unspecified. Lookup
// failures are reported to onError and otherwise swallowed.
func (t *Table) EnsureAddrs(fd int, lookup EnsureAddrsFunc) {
	e := t.slot(fd)
	if e == nil || !e.valid(fd) {
		return
	}
	snap := e.snapshot()
	if !snap.Local.IsUnspecified() && !snap.Remote.IsUnspecified() {
		return
	}

	local, remote, err := lookup(fd)
	if err != nil {
		t.onError(scopeerr.OsQueryFailed, "fdtable.EnsureAddrs", err)
		return
	}
	if snap.Local.IsUnspecified() && !local.IsUnspecified() {
		e.setLocal(local)
	}
	if snap.Remote.IsUnspecified() && !remote.IsUnspecified() {
		e.setRemote(remote)
	}
}

// AdoptFunc performs the OS-level family/SO_TYPE discovery used by
// adopt_unknown; supplied by internal/intercept.
type AdoptFunc func(fd int) (kind network.Kind, local, remote SockAddr, err error)

// AdoptUnknown is used when a call arrives on an fd the table has never
// seen (missed accept, fork-inherited, dup'd). Returns true if the fd is
// now tracked.
func (t *Table) AdoptUnknown(fd int, discover AdoptFunc) bool {
	if e := t.slot(fd); e != nil && e.valid(fd) {
		return true
	}

	kind, local, remote, err := discover(fd)
	if err != nil {
		t.onError(scopeerr.OsQueryFailed, "fdtable.AdoptUnknown", err)
		return false
	}

	if int64(fd) >= t.capacity() {
		if !t.grow(fd) {
			t.onError(scopeerr.AllocFailed, "fdtable.AdoptUnknown", nil)
			return false
		}
	}
	e := t.slot(fd)
	if e == nil {
		return false
	}
	e.reset(fd, kind)
	if !local.IsUnspecified() {
		e.setLocal(local)
	}
	if !remote.IsUnspecified() {
		e.setRemote(remote)
	}
	return true
}
