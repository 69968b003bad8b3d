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

// Package intercept holds the per-call semantics of the interposed libc
// surface: given that an interceptor's real libc call already succeeded,
// State derives the fd-table and counter mutations and the metric
// emissions that call implies. Every method here is plain Go with no cgo
// dependency — the cgo-exported C-ABI entry points that decode raw libc
// arguments and call through the resolved next-in-chain pointer live in
// cgo_unix.go and cgo_darwin.go, kept as thin as possible so this
// orchestration logic can be unit-tested without a C compiler driving it.
package intercept

import (
	"github.com/sabouaram/scopeagent/internal/counter"
	"github.com/sabouaram/scopeagent/internal/dns"
	"github.com/sabouaram/scopeagent/internal/fdtable"
	"github.com/sabouaram/scopeagent/internal/metric"
	"github.com/sabouaram/scopeagent/network"
)

// State is the shim's single library-owned context object: it is
// constructed once in the lifecycle constructor and referenced from every
// interceptor entry point.
type State struct {
	fdt      *fdtable.Table
	counters *counter.Set
	builder  *metric.Builder

	// eventRxTx mirrors config.Snapshot.EventRxTx: when true, send/recv
	// emit net.tx/net.rx per call; when false, only the periodic
	// reporter's aggregate emission carries them.
	eventRxTx bool

	// closeHook is invoked at the end of every OnClose, win or lose. It is
	// how the lifecycle implements the deferred thread-start gate without
	// this package needing to know about internal/reporter.
	closeHook func()

	// forkHook is invoked from the child branch of fork, after counters
	// have been reset, so the lifecycle can reset its own time-base and
	// leave the periodic reporter un-respawned until the next eligible
	// close.
	forkHook func()
}

// New constructs a State bound to its collaborators. eventRxTx corresponds
// to config.Snapshot.EventRxTx.
func New(fdt *fdtable.Table, counters *counter.Set, builder *metric.Builder, eventRxTx bool) *State {
	return &State{fdt: fdt, counters: counters, builder: builder, eventRxTx: eventRxTx}
}

// SetHooks wires the close/fork callbacks. Either may be nil.
func (s *State) SetHooks(onClose, onForkChild func()) {
	s.closeHook = onClose
	s.forkHook = onForkChild
}

// Counters exposes the counter set this State was built with, so the
// lifecycle can hand the same instance to a freshly constructed Reporter
// after fork without this package needing to know about internal/reporter.
func (s *State) Counters() *counter.Set { return s.counters }

// Builder exposes the metric builder this State was built with, for the
// same reason as Counters.
func (s *State) Builder() *metric.Builder { return s.builder }

// OnSocket records a freshly created descriptor. UDP has no listen
// syscall, so socket creation is the open-port event for datagram sockets.
func (s *State) OnSocket(fd, family, typ int) {
	kind := network.ParseSocketType(family, typ)

	if wasDuplicate := s.fdt.Add(fd, kind); wasDuplicate {
		s.counters.OpenPortsDec()
		s.counters.TCPConnsDec()
		return
	}

	if kind == network.Udp {
		v := s.counters.OpenPortsInc()
		s.fdt.MarkListen(fd, true)
		s.builder.EmitPortEvent("net.port", v, fd, kind.Proto(), 0)
	}
}

// OnBind records the local endpoint a successful bind() established.
func (s *State) OnBind(fd int, addr fdtable.SockAddr) {
	s.fdt.SetEndpoint(fd, addr, fdtable.Local)
}

// OnListen marks fd as a listening port. A TCP listener also counts as a
// tcp connection slot from this point on.
func (s *State) OnListen(fd int) {
	s.fdt.MarkListen(fd, true)
	snap, ok := s.fdt.Get(fd)
	if !ok {
		return
	}

	v := s.counters.OpenPortsInc()
	s.builder.EmitPortEvent("net.port", v, fd, snap.Kind.Proto(), snap.Local.Port)

	if snap.Kind == network.Tcp {
		s.fdt.MarkAccept(fd, true)
		v2 := s.counters.TCPConnsInc()
		s.builder.EmitPortEvent("net.tcp", v2, fd, snap.Kind.Proto(), snap.Local.Port)
	}
}

// OnAccept records the descriptor accept()/accept4() returned: always Tcp,
// marked both listen and accept, contributing to all three connection
// counters.
func (s *State) OnAccept(newFD int, remote fdtable.SockAddr) {
	s.fdt.Add(newFD, network.Tcp)
	s.fdt.SetEndpoint(newFD, remote, fdtable.Remote)
	s.fdt.MarkListen(newFD, true)
	s.fdt.MarkAccept(newFD, true)

	vp := s.counters.OpenPortsInc()
	vt := s.counters.TCPConnsInc()
	va := s.counters.ActiveConnsInc()

	s.builder.EmitPortEvent("net.port", vp, newFD, network.Tcp.Proto(), remote.Port)
	s.builder.EmitPortEvent("net.tcp", vt, newFD, network.Tcp.Proto(), remote.Port)
	s.builder.EmitPortEvent("net.conn", va, newFD, network.Tcp.Proto(), remote.Port)
}

// OnConnect records a successful outbound connect(). Only acts on an fd
// the table already tracks.
func (s *State) OnConnect(fd int, remote fdtable.SockAddr) {
	snap, ok := s.fdt.Get(fd)
	if !ok {
		return
	}

	s.fdt.SetEndpoint(fd, remote, fdtable.Remote)
	s.fdt.MarkAccept(fd, true)

	va := s.counters.ActiveConnsInc()
	s.builder.EmitPortEvent("net.conn", va, fd, snap.Kind.Proto(), remote.Port)

	if snap.Kind == network.Tcp {
		vt := s.counters.TCPConnsInc()
		s.builder.EmitPortEvent("net.tcp", vt, fd, snap.Kind.Proto(), remote.Port)
	}
}

// transferKind distinguishes the two byte-transfer directions so OnSend
// and OnRecv can share adopt/ensure/emit plumbing.
type transferKind uint8

const (
	transferSend transferKind = iota
	transferRecv
)

// onTransfer is the shared body of OnSend/OnRecv: adopt an untracked fd,
// lazily resolve endpoints, update the explicit remote endpoint a
// *to/*from call carries, bump the byte counter, and emit unless
// event-based rx/tx is switched off.
func (s *State) onTransfer(dir transferKind, fd int, n int, explicitRemote *fdtable.SockAddr, adopt fdtable.AdoptFunc, ensure fdtable.EnsureAddrsFunc) fdtable.Snapshot {
	if _, ok := s.fdt.Get(fd); !ok {
		s.fdt.AdoptUnknown(fd, adopt)
	}
	if explicitRemote != nil {
		s.fdt.SetEndpoint(fd, *explicitRemote, fdtable.Remote)
	}
	s.fdt.EnsureAddrs(fd, ensure)

	snap, _ := s.fdt.Get(fd)

	var value int64
	name := "net.tx"
	if dir == transferSend {
		value = s.counters.NetTxAdd(int64(n))
	} else {
		name = "net.rx"
		value = s.counters.NetRxAdd(int64(n))
	}

	if s.eventRxTx {
		s.builder.EmitByteEvent(name, value, metric.Delta, fd, snap.Kind.Proto(), snap.Local.Port, snap.Local, snap.Remote)
	}

	return snap
}

// OnSend handles send/sendto/sendmsg (and write on a tracked socket),
// including the DNS extraction for a payload whose remote port is 53
// (checked by port only, whatever the socket kind).
func (s *State) OnSend(fd int, n int, explicitRemote *fdtable.SockAddr, payload []byte, adopt fdtable.AdoptFunc, ensure fdtable.EnsureAddrsFunc) {
	snap := s.onTransfer(transferSend, fd, n, explicitRemote, adopt, ensure)

	if !dns.IsDNSPort(snap.Remote.Port) {
		return
	}
	name, ok := dns.ExtractName(payload)
	if !ok {
		return
	}
	s.fdt.SetDNSName(fd, name)
	c := s.counters.DNSInc()
	s.builder.EmitDNSEvent(c, name)
}

// OnRecv handles recv/recvfrom/recvmsg (and read on a tracked socket).
func (s *State) OnRecv(fd int, n int, explicitRemote *fdtable.SockAddr, adopt fdtable.AdoptFunc, ensure fdtable.EnsureAddrsFunc) {
	s.onTransfer(transferRecv, fd, n, explicitRemote, adopt, ensure)
}

// IsTrackedNetworkFD reports whether fd is a descriptor the table already
// recognizes as a network socket; read()/write() defer to OnRecv/OnSend
// only when this is true and pass through unobserved otherwise.
func (s *State) IsTrackedNetworkFD(fd int) bool {
	_, ok := s.fdt.Get(fd)
	return ok
}

// OnClose handles close()/shutdown() (and the macOS variants, which all
// funnel here): undo listen/accept/connect's counter contributions, remove
// the slot, then run the deferred-start hook. The
// active-connection decrement is a try-dec: a listening fd carries the
// accept flag too but never contributed to active_connections, so a
// decrement is emitted only when the counter actually moved.
func (s *State) OnClose(fd int) {
	if snap, ok := s.fdt.Get(fd); ok {
		if snap.Listen {
			v := s.counters.OpenPortsDec()
			s.builder.EmitPortEvent("net.port", v, fd, snap.Kind.Proto(), snap.Local.Port)
		}
		if snap.Accept {
			v := s.counters.TCPConnsDec()
			s.builder.EmitPortEvent("net.tcp", v, fd, snap.Kind.Proto(), snap.Local.Port)
			if va, moved := s.counters.ActiveConnsTryDec(); moved {
				s.builder.EmitPortEvent("net.conn", va, fd, snap.Kind.Proto(), snap.Local.Port)
			}
		}
	}
	s.fdt.Remove(fd)

	if s.closeHook != nil {
		s.closeHook()
	}
}

// OnDup handles fcntl(fd, F_DUPFD, ...): a dup'd descriptor of a tracked
// fd is adopted as a new network descriptor.
func (s *State) OnDup(oldFD, newFD int, adopt fdtable.AdoptFunc) {
	if _, ok := s.fdt.Get(oldFD); !ok {
		return
	}
	s.fdt.AdoptUnknown(newFD, adopt)
}

// OnForkChild runs in the child after fork() returns zero: reset every
// counter, then let the lifecycle reset its own time-base and leave the
// Reporter un-respawned via forkHook. The parent branch is a no-op and has
// no corresponding call.
func (s *State) OnForkChild() {
	s.counters.Reset()
	if s.forkHook != nil {
		s.forkHook()
	}
}
