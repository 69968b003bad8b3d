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

package fdtable

import (
	"sync"

	"github.com/sabouaram/scopeagent/network"
)

// maxDNSName bounds the recorded DNS query name (253 is the longest legal
// dotted hostname).
const maxDNSName = 253

// Entry is one record per observed file descriptor. fd == -1 marks a
// vacant slot; every other field is only meaningful when the slot is valid
// (fd equals its table index).
type Entry struct {
	mu sync.Mutex

	fd      int
	kind    network.Kind
	local   SockAddr
	remote  SockAddr
	listen  bool
	accept  bool
	dnsName string
}

func (e *Entry) reset(fd int, kind network.Kind) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fd = fd
	e.kind = kind
	e.local = SockAddr{}
	e.remote = SockAddr{}
	e.listen = false
	e.accept = false
	e.dnsName = ""
}

func (e *Entry) vacate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fd = -1
	e.kind = network.Other
	e.local = SockAddr{}
	e.remote = SockAddr{}
	e.listen = false
	e.accept = false
	e.dnsName = ""
}

// Snapshot is a point-in-time, lock-free-to-read copy of an Entry, handed
// out to callers that need to inspect state without holding the slot lock
// across an emit.
type Snapshot struct {
	FD      int
	Kind    network.Kind
	Local   SockAddr
	Remote  SockAddr
	Listen  bool
	Accept  bool
	DNSName string
}

func (e *Entry) snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		FD:      e.fd,
		Kind:    e.kind,
		Local:   e.local,
		Remote:  e.remote,
		Listen:  e.listen,
		Accept:  e.accept,
		DNSName: e.dnsName,
	}
}

func (e *Entry) valid(fd int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fd == fd
}

func (e *Entry) setListen(v bool) {
	e.mu.Lock()
	e.listen = v
	e.mu.Unlock()
}

func (e *Entry) setAccept(v bool) {
	e.mu.Lock()
	e.accept = v
	e.mu.Unlock()
}

func (e *Entry) setLocal(a SockAddr) {
	e.mu.Lock()
	e.local = a
	e.mu.Unlock()
}

func (e *Entry) setRemote(a SockAddr) {
	e.mu.Lock()
	e.remote = a
	e.mu.Unlock()
}

func (e *Entry) setDNSName(name string) {
	if len(name) > maxDNSName {
		name = name[:maxDNSName]
	}
	e.mu.Lock()
	e.dnsName = name
	e.mu.Unlock()
}
