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

package intercept

import (
	"testing"

	"github.com/sabouaram/scopeagent/internal/counter"
	"github.com/sabouaram/scopeagent/internal/fdtable"
	"github.com/sabouaram/scopeagent/internal/metric"
	"github.com/sabouaram/scopeagent/network"
)

type collectingOutput struct {
	events []metric.Event
}

func (c *collectingOutput) Send([]byte) error { return nil }
func (c *collectingOutput) SendEvent(e metric.Event) error {
	c.events = append(c.events, e)
	return nil
}

func newTestState(eventRxTx bool) (*State, *counter.Set, *collectingOutput) {
	cs := &counter.Set{}
	out := &collectingOutput{}
	b := metric.NewBuilder(metric.Identity{Proc: "p", PID: 1, Host: "h"}, nil, out, nil)
	fdt := fdtable.New(nil)
	return New(fdt, cs, b, eventRxTx), cs, out
}

func noopAdopt(int) (network.Kind, fdtable.SockAddr, fdtable.SockAddr, error) {
	return network.Other, fdtable.SockAddr{}, fdtable.SockAddr{}, nil
}

func noopEnsure(int) (fdtable.SockAddr, fdtable.SockAddr, error) {
	return fdtable.SockAddr{}, fdtable.SockAddr{}, nil
}

// After any sequence of socket -> listen -> accept -> close, open_ports
// and tcp_connections must return to their pre-sequence values.
func TestSocketListenAcceptCloseReturnsCountersToZero(t *testing.T) {
	s, cs, _ := newTestState(false)

	const listenFD = 5
	s.OnSocket(listenFD, 2 /*AF_INET*/, 1 /*SOCK_STREAM*/)
	s.OnBind(listenFD, fdtable.IP4or6FromBytes(false, []byte{0, 0, 0, 0}, 9000))
	s.OnListen(listenFD)

	if got := cs.OpenPorts(); got != 1 {
		t.Fatalf("open_ports after listen = %d, want 1", got)
	}
	if got := cs.TCPConns(); got != 1 {
		t.Fatalf("tcp_connections after listen = %d, want 1", got)
	}

	const acceptedFD = 6
	s.OnAccept(acceptedFD, fdtable.IP4or6FromBytes(false, []byte{127, 0, 0, 1}, 54321))

	if got := cs.OpenPorts(); got != 2 {
		t.Fatalf("open_ports after accept = %d, want 2", got)
	}
	if got := cs.TCPConns(); got != 2 {
		t.Fatalf("tcp_connections after accept = %d, want 2", got)
	}

	s.OnClose(acceptedFD)
	s.OnClose(listenFD)

	if got := cs.OpenPorts(); got != 0 {
		t.Fatalf("open_ports after close = %d, want 0", got)
	}
	if got := cs.TCPConns(); got != 0 {
		t.Fatalf("tcp_connections after close = %d, want 0", got)
	}
}

// Across closing both the accepted connection and the listener, exactly
// one net.conn decrement must be emitted — the listener carries the accept
// flag but never contributed to active_connections.
func TestCloseDecrementsActiveConnectionsExactlyOnce(t *testing.T) {
	s, cs, out := newTestState(false)

	const listenFD = 5
	s.OnSocket(listenFD, 2, 1)
	s.OnListen(listenFD)

	const acceptedFD = 6
	s.OnAccept(acceptedFD, fdtable.IP4or6FromBytes(false, []byte{127, 0, 0, 1}, 54321))
	if got := cs.ActiveConns(); got != 1 {
		t.Fatalf("active_connections after accept = %d, want 1", got)
	}

	before := len(out.events)
	s.OnClose(acceptedFD)
	s.OnClose(listenFD)

	if got := cs.ActiveConns(); got != 0 {
		t.Fatalf("active_connections after close = %d, want 0", got)
	}

	conns := 0
	for _, e := range out.events[before:] {
		if e.Name == "net.conn" {
			conns++
		}
	}
	if conns != 1 {
		t.Fatalf("net.conn decrement emitted %d times across both closes, want 1", conns)
	}
}

func TestCountersNeverGoNegative(t *testing.T) {
	s, cs, _ := newTestState(false)
	s.OnClose(42) // never opened
	if cs.OpenPorts() < 0 || cs.TCPConns() < 0 || cs.ActiveConns() < 0 {
		t.Fatal("a counter went negative")
	}
}

func TestUDPSocketIncrementsOpenPortsAtSocketTime(t *testing.T) {
	s, cs, out := newTestState(false)
	s.OnSocket(7, 2 /*AF_INET*/, 2 /*SOCK_DGRAM*/)

	if got := cs.OpenPorts(); got != 1 {
		t.Fatalf("open_ports after UDP socket() = %d, want 1", got)
	}
	if len(out.events) != 1 || out.events[0].Name != "net.port" {
		t.Fatalf("expected a single net.port event, got %v", out.events)
	}
}

func TestDuplicateAddCancelsStaleCounters(t *testing.T) {
	s, cs, _ := newTestState(false)
	s.OnSocket(3, 2, 1)
	s.OnListen(3)
	if cs.OpenPorts() != 1 || cs.TCPConns() != 1 {
		t.Fatalf("setup: got open=%d tcp=%d", cs.OpenPorts(), cs.TCPConns())
	}

	// A duplicate socket() on the same fd (e.g. without an intervening
	// close being observed) must cancel the stale listen/accept view.
	s.OnSocket(3, 2, 1)
	if cs.OpenPorts() != 0 || cs.TCPConns() != 0 {
		t.Fatalf("after duplicate add: got open=%d tcp=%d, want 0 0", cs.OpenPorts(), cs.TCPConns())
	}
}

func TestSendToUDPPort53ExtractsDNSName(t *testing.T) {
	s, cs, out := newTestState(true)
	s.OnSocket(9, 2, 2)

	remote := fdtable.IP4or6FromBytes(false, []byte{8, 8, 8, 8}, 53)
	payload := buildDNSQuery(t, "www.example.com")

	s.OnSend(9, len(payload), &remote, payload, noopAdopt, noopEnsure)

	if got := cs.DNS(); got != 1 {
		t.Fatalf("dns count = %d, want 1", got)
	}
	if got := cs.NetTx(); got != int64(len(payload)) {
		t.Fatalf("net_tx = %d, want %d", got, len(payload))
	}

	var sawDNS bool
	for _, e := range out.events {
		if e.Name == "net.dns" {
			sawDNS = true
			found := false
			for _, f := range e.Fields {
				if f.Name == "domain" && f.Value == "www.example.com" {
					found = true
				}
			}
			if !found {
				t.Fatalf("net.dns event missing domain=www.example.com field set: %+v", e.Fields)
			}
		}
	}
	if !sawDNS {
		t.Fatal("expected a net.dns event")
	}
}

func TestEventRxTxSuppressionToggle(t *testing.T) {
	s, _, out := newTestState(false)
	s.OnSocket(11, 2, 2)
	s.OnSend(11, 10, nil, nil, noopAdopt, noopEnsure)

	for _, e := range out.events {
		if e.Name == "net.tx" {
			t.Fatalf("expected net.tx to be suppressed in periodic mode, got %+v", e)
		}
	}
}

func TestForkChildResetsCounters(t *testing.T) {
	s, cs, _ := newTestState(false)
	cs.NetTxAdd(1000)
	cs.NetRxAdd(500)

	var hookCalled bool
	s.SetHooks(nil, func() { hookCalled = true })
	s.OnForkChild()

	if cs.NetTx() != 0 || cs.NetRx() != 0 {
		t.Fatalf("counters not reset after fork: tx=%d rx=%d", cs.NetTx(), cs.NetRx())
	}
	if !hookCalled {
		t.Fatal("expected forkHook to run")
	}
}

func TestCloseHookFiresOnEveryClose(t *testing.T) {
	s, _, _ := newTestState(false)
	n := 0
	s.SetHooks(func() { n++ }, nil)
	s.OnClose(1)
	s.OnClose(2)
	if n != 2 {
		t.Fatalf("closeHook fired %d times, want 2", n)
	}
}

// buildDNSQuery constructs a minimal, well-formed DNS query message asking
// an A record for name, class IN.
func buildDNSQuery(t *testing.T, name string) []byte {
	t.Helper()
	buf := make([]byte, 12)
	buf[0], buf[1] = 0x12, 0x34 // id
	buf[5] = 1                  // qdcount = 1

	for _, label := range splitLabels(name) {
		buf = append(buf, byte(len(label)))
		buf = append(buf, label...)
	}
	buf = append(buf, 0)    // root label
	buf = append(buf, 0, 1) // qtype A
	buf = append(buf, 0, 1) // qclass IN
	return buf
}

func splitLabels(name string) []string {
	var labels []string
	start := 0
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			labels = append(labels, name[start:i])
			start = i + 1
		}
	}
	labels = append(labels, name[start:])
	return labels
}
