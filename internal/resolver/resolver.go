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

//go:build !windows

// Package resolver implements the Symbol Resolver: at load time, it looks
// up the next-in-chain address of every intercepted libc symbol via
// dlsym(RTLD_NEXT, ...) and stores the pointers in a fixed table. It never
// calls through a resolved pointer itself — internal/intercept does that.
package resolver

/*
#cgo LDFLAGS: -ldl
#define _GNU_SOURCE
#include <dlfcn.h>
#include <stdlib.h>

static void *scope_dlsym_next(const char *name) {
	return dlsym(RTLD_NEXT, name);
}
*/
import "C"

import (
	"sync"
	"unsafe"
)

// Symbol names the shim intercepts, plus the macOS variants carried by
// internal/intercept's darwin build.
const (
	Close       = "close"
	Read        = "read"
	Write       = "write"
	Fcntl       = "fcntl"
	Socket      = "socket"
	Bind        = "bind"
	Listen      = "listen"
	Accept      = "accept"
	Accept4     = "accept4"
	Connect     = "connect"
	Shutdown    = "shutdown"
	Send        = "send"
	SendTo      = "sendto"
	SendMsg     = "sendmsg"
	Recv        = "recv"
	RecvFrom    = "recvfrom"
	RecvMsg     = "recvmsg"
	Fork        = "fork"
	GetSockName = "getsockname"
	GetPeerName = "getpeername"
	GetSockOpt  = "getsockopt"
)

// Table holds the resolved next-in-chain pointer for every intercepted
// symbol. The zero value has every slot nil; call Resolve once at load
// time before any interceptor may dereference a slot.
type Table struct {
	mu   sync.RWMutex
	addr map[string]unsafe.Pointer
}

// New returns an empty Table. Resolve must be called before use.
func New() *Table {
	return &Table{addr: make(map[string]unsafe.Pointer)}
}

// Resolve looks up every name's real implementation via dlsym(RTLD_NEXT, …).
// A symbol that fails to resolve leaves its slot nil; callers treat a nil
// slot as unresolved and return -1 without touching any shim state.
func (t *Table) Resolve(names ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, name := range names {
		cname := C.CString(name)
		p := C.scope_dlsym_next(cname)
		C.free(unsafe.Pointer(cname))
		t.addr[name] = p
	}
}

// Lookup returns the resolved pointer for name, or nil if it was never
// resolved or resolution failed.
func (t *Table) Lookup(name string) unsafe.Pointer {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.addr[name]
}

// Resolved reports whether name has a non-nil resolved pointer.
func (t *Table) Resolved(name string) bool {
	return t.Lookup(name) != nil
}

// AllSymbols is the full interposed set, used by Lifecycle at load time.
var AllSymbols = []string{
	Close, Read, Write, Fcntl, Socket, Bind, Listen, Accept, Accept4,
	Connect, Shutdown, Send, SendTo, SendMsg, Recv, RecvFrom, RecvMsg, Fork,
	GetSockName, GetPeerName, GetSockOpt,
}
