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

// Package reporter owns the single background goroutine the shim ever
// spawns. It samples process resource counters on a timer and emits the
// aggregate net.rx/net.tx totals, independent of any interceptor call. It
// never mutates the FD table and never takes a lock on the counters —
// every read is atomic.
package reporter

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sabouaram/scopeagent/internal/counter"
	"github.com/sabouaram/scopeagent/internal/metric"
	"github.com/sabouaram/scopeagent/internal/scopeerr"
)

// Os is the subset of the osinfo surface the Reporter reads each tick:
// CPU/RSS sampling plus the three proc.* gauges.
type Os interface {
	CPUTimes() (userSec, sysSec float64, err error)
	MemRSSKB() (uint64, error)
	NumThreads() (int, error)
	NumFDs() (int, error)
	NumChildProcs() (int, error)
}

// Reporter owns the one background goroutine the shim spawns. The zero
// value is not usable; build one with New.
type Reporter struct {
	period  time.Duration
	counter *counter.Set
	builder *metric.Builder
	os      Os
	onError func(code scopeerr.Code, op string, err error)

	startOnce sync.Once
	started   atomic.Bool
}

// New constructs a Reporter bound to its collaborators. It does not start
// the background goroutine — Start does that, lazily, so that no thread
// exists during the host's early startup.
func New(period time.Duration, c *counter.Set, b *metric.Builder, os Os, onError func(code scopeerr.Code, op string, err error)) *Reporter {
	if onError == nil {
		onError = func(scopeerr.Code, string, error) {}
	}
	return &Reporter{period: period, counter: c, builder: b, os: os, onError: onError}
}

// Started reports whether the background goroutine has been spawned.
func (r *Reporter) Started() bool {
	return r.started.Load()
}

// Start spawns the single background goroutine if it has not already been
// spawned. Idempotent: a second call is a no-op. There is no stop path —
// the Reporter has no cooperative shutdown and dies with the process.
func (r *Reporter) Start() {
	r.startOnce.Do(func() {
		r.started.Store(true)
		go r.loop()
	})
}

// loop runs forever, sampling and emitting once per period. Every failure
// to read an Os counter is logged, and that single sample's value is
// simply skipped for this tick.
func (r *Reporter) loop() {
	for {
		r.tick()
		time.Sleep(r.period)
	}
}

// tick performs one sampling pass: CPU, RSS, the three proc.* gauges, then
// the aggregate byte totals. Split out from loop so tests can drive a
// single iteration without waiting on a timer. A failed Os read is logged
// and that field of the sample is left at zero rather than skipping the
// whole tick — the other fields are independent reads and still worth
// emitting.
func (r *Reporter) tick() {
	var s metric.ProcSample

	if userSec, sysSec, err := r.os.CPUTimes(); err != nil {
		r.onError(scopeerr.OsQueryFailed, "reporter.CPUTimes", err)
	} else {
		s.CPUUserSec, s.CPUSysSec = userSec, sysSec
	}

	if rss, err := r.os.MemRSSKB(); err != nil {
		r.onError(scopeerr.OsQueryFailed, "reporter.MemRSSKB", err)
	} else {
		s.MemKB = rss
	}

	if n, err := r.os.NumThreads(); err != nil {
		r.onError(scopeerr.OsQueryFailed, "reporter.NumThreads", err)
	} else {
		s.Threads = n
	}

	if n, err := r.os.NumFDs(); err != nil {
		r.onError(scopeerr.OsQueryFailed, "reporter.NumFDs", err)
	} else {
		s.FDs = n
	}

	if n, err := r.os.NumChildProcs(); err != nil {
		r.onError(scopeerr.OsQueryFailed, "reporter.NumChildProcs", err)
	} else {
		s.Children = n
	}

	r.builder.EmitProcSample(s)

	snap := r.counter.Snapshot()
	r.builder.EmitCounter("net.rx", snap.NetRx, metric.Delta)
	r.builder.EmitCounter("net.tx", snap.NetTx, metric.Delta)
}
