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

// Package counter implements the shim's process-wide atomic gauges. Every
// mutation is a single atomic read-modify-write; decrements are guarded by
// a compare loop so a counter can never underflow below zero.
package counter

import "sync/atomic"

// Set holds the six process-wide counters. The zero value is ready to use.
type Set struct {
	openPorts   atomic.Int64
	tcpConns    atomic.Int64
	activeConns atomic.Int64
	netRx       atomic.Int64
	netTx       atomic.Int64
	dns         atomic.Int64
}

// guardedAdd adds delta to c, but never lets the result go below zero; a
// negative delta is clamped to -current when current+delta would underflow.
func guardedAdd(c *atomic.Int64, delta int64) int64 {
	for {
		cur := c.Load()
		next := cur + delta
		if next < 0 {
			next = 0
		}
		if c.CompareAndSwap(cur, next) {
			return next
		}
	}
}

// tryDec subtracts one only when c is currently positive, reporting whether
// it did. Callers that must not emit a phantom decrement event (a close on
// an fd whose connection was already accounted for) use this instead of the
// clamping decrement.
func tryDec(c *atomic.Int64) (int64, bool) {
	for {
		cur := c.Load()
		if cur <= 0 {
			return 0, false
		}
		if c.CompareAndSwap(cur, cur-1) {
			return cur - 1, true
		}
	}
}

func (s *Set) OpenPortsInc() int64 { return guardedAdd(&s.openPorts, 1) }
func (s *Set) OpenPortsDec() int64 { return guardedAdd(&s.openPorts, -1) }
func (s *Set) OpenPorts() int64    { return s.openPorts.Load() }

func (s *Set) TCPConnsInc() int64 { return guardedAdd(&s.tcpConns, 1) }
func (s *Set) TCPConnsDec() int64 { return guardedAdd(&s.tcpConns, -1) }
func (s *Set) TCPConns() int64    { return s.tcpConns.Load() }

func (s *Set) ActiveConnsInc() int64            { return guardedAdd(&s.activeConns, 1) }
func (s *Set) ActiveConnsDec() int64            { return guardedAdd(&s.activeConns, -1) }
func (s *Set) ActiveConnsTryDec() (int64, bool) { return tryDec(&s.activeConns) }
func (s *Set) ActiveConns() int64               { return s.activeConns.Load() }

func (s *Set) NetRxAdd(n int64) int64 { return guardedAdd(&s.netRx, n) }
func (s *Set) NetRx() int64           { return s.netRx.Load() }

func (s *Set) NetTxAdd(n int64) int64 { return guardedAdd(&s.netTx, n) }
func (s *Set) NetTx() int64           { return s.netTx.Load() }

func (s *Set) DNSInc() int64 { return guardedAdd(&s.dns, 1) }
func (s *Set) DNS() int64    { return s.dns.Load() }

// Reset zeros every counter. Called exactly once, in the child after
// fork().
func (s *Set) Reset() {
	s.openPorts.Store(0)
	s.tcpConns.Store(0)
	s.activeConns.Store(0)
	s.netRx.Store(0)
	s.netTx.Store(0)
	s.dns.Store(0)
}

// Snapshot is a point-in-time read of every counter, used by the periodic
// reporter without taking any lock — loads are atomic.
type Snapshot struct {
	OpenPorts   int64
	TCPConns    int64
	ActiveConns int64
	NetRx       int64
	NetTx       int64
	DNS         int64
}

func (s *Set) Snapshot() Snapshot {
	return Snapshot{
		OpenPorts:   s.openPorts.Load(),
		TCPConns:    s.tcpConns.Load(),
		ActiveConns: s.activeConns.Load(),
		NetRx:       s.netRx.Load(),
		NetTx:       s.netTx.Load(),
		DNS:         s.dns.Load(),
	}
}
