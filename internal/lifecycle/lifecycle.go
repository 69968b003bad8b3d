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

// Package lifecycle owns the shim's startup and fork handling: the
// constructor that runs once at library load, the deferred periodic
// reporter start gate, and the child-side reset after fork(). It is the
// one place that wires every other collaborator together; everything it
// constructs is then published to internal/intercept via intercept.Install
// so the cgo entry points have something to dispatch into.
package lifecycle

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sabouaram/scopeagent/config"
	"github.com/sabouaram/scopeagent/formatter"
	"github.com/sabouaram/scopeagent/internal/counter"
	"github.com/sabouaram/scopeagent/internal/fdtable"
	"github.com/sabouaram/scopeagent/internal/intercept"
	"github.com/sabouaram/scopeagent/internal/metric"
	"github.com/sabouaram/scopeagent/internal/reporter"
	"github.com/sabouaram/scopeagent/internal/resolver"
	"github.com/sabouaram/scopeagent/internal/scopeerr"
	"github.com/sabouaram/scopeagent/logger"
	"github.com/sabouaram/scopeagent/osinfo"
	"github.com/sabouaram/scopeagent/output"
)

// Shim is the fully constructed library context: all of the shim's global
// mutable state, owned for the lifetime of the process.
type Shim struct {
	cfg   config.Snapshot
	log   *logger.Log
	out   outputCloser
	sym   *resolver.Table
	fdt   *fdtable.Table
	state *intercept.State

	runID string

	startupTime atomic.Pointer[time.Time]
	delayStart  time.Duration

	reporterOs  reporter.Os
	reporterRef atomic.Pointer[reporter.Reporter]

	forkMu sync.Mutex
}

type outputCloser interface {
	metric.Output
	Close() error
}

// New is the library constructor: (1) read config, (2) resolve symbols,
// (3) allocate the FD table, (4) read process identity and stamp the
// startup time, (5) init Log and Output/Formatter. It deliberately does
// not start the periodic reporter — that is the deferred-start gate's job,
// driven from the first eligible close.
func New() (*Shim, error) {
	path := config.Path(config.CfgFileName)
	cfg, err := config.Read(path)
	if err != nil {
		// A missing config never stops the library from loading; the
		// built-in defaults take over.
		cfg = config.Default()
	}

	sym := resolver.New()
	sym.Resolve(resolver.AllSymbols...)
	sym.Resolve(darwinExtraSymbols()...)

	// onError is late-bound: the FD table is allocated before the Log, but
	// any allocation failure it reports afterwards must still reach the
	// log.
	var onError func(code scopeerr.Code, op string, err error)

	fdt := fdtable.New(func(code scopeerr.Code, op string, err error) {
		if onError != nil {
			onError(code, op, err)
		}
	})

	pid := os.Getpid()
	hostname, _ := os.Hostname()

	osSvc, osErr := osinfo.New(pid)
	procname := fmt.Sprintf("pid-%d", pid)
	if osErr == nil {
		procname = osSvc.Procname(64)
	}

	log := logger.Init(logger.Options{
		Level:    logLevel(cfg),
		FilePath: cfg.LogFilePath,
	})

	// Viper's internal jww chatter must not leak onto the host's stdout.
	logger.SetSPF13Level(log, logLevel(cfg))

	onError = func(code scopeerr.Code, op string, err error) {
		log.Send(logrusLevelFor(code), fmt.Sprintf("%s: %s", op, code), nil)
	}

	out, err := buildOutput(cfg)
	if err != nil {
		onError(scopeerr.ConfigMissing, "lifecycle.buildOutput", err)
	}

	var fmtr metric.Formatter
	if out != nil {
		fmtr = &formatter.StatsD{Verbose: cfg.Verbose}
	}

	id := metric.Identity{Proc: procname, PID: pid, Host: hostname}
	builder := metric.NewBuilder(id, fmtr, out, onError)

	st := intercept.New(fdt, &counter.Set{}, builder, cfg.EventRxTx)

	sh := &Shim{
		cfg:        cfg,
		log:        log,
		out:        out,
		sym:        sym,
		fdt:        fdt,
		state:      st,
		runID:      uuid.NewString(),
		delayStart: cfg.DelayStartDuration(),
	}

	now := time.Now()
	sh.startupTime.Store(&now)

	// osSvc is a concrete *osinfo.Os; only promote it into the
	// reporter.Os-typed field when non-nil, or the field would hold a
	// non-nil interface wrapping a nil pointer (the classic typed-nil
	// pitfall) and every later nil-check on it would be wrong.
	if osSvc != nil {
		sh.reporterOs = osSvc
		sh.reporterRef.Store(reporter.New(cfg.OutPeriod(), st.Counters(), builder, osSvc, onError))
	}

	st.SetHooks(sh.onClose, sh.onForkChild)
	intercept.Install(st, sym)

	config.Destroy(cfg)

	return sh, nil
}

// onClose implements the deferred-start gate: on an intercepted close, if
// the periodic thread has not been started and the delay-start threshold
// has elapsed since load, spawn it. Deferring past early startup avoids
// tripping sandboxes (e.g. the Chrome zygote) that forbid thread creation
// while the host is still initializing. Called from every close, not just
// the first — but Reporter.Start is idempotent, so repeated calls after
// the gate opens are free.
func (s *Shim) onClose() {
	r := s.reporterRef.Load()
	if r == nil || r.Started() {
		return
	}
	start := s.startupTime.Load()
	if start == nil || time.Since(*start) < s.delayStart {
		return
	}
	r.Start()
}

// onForkChild finishes what internal/intercept.State.OnForkChild's counter
// reset starts: reset the time-base, and replace the Reporter with a
// fresh, unstarted one so a parent's already-fired sync.Once (copied
// verbatim by fork()) can never prevent the child from lazily starting its
// own background thread later.
func (s *Shim) onForkChild() {
	s.forkMu.Lock()
	defer s.forkMu.Unlock()

	now := time.Now()
	s.startupTime.Store(&now)

	if s.reporterOs != nil {
		var onErr func(scopeerr.Code, string, error)
		if s.log != nil {
			onErr = func(code scopeerr.Code, op string, err error) {
				s.log.Send(logrusLevelFor(code), fmt.Sprintf("%s: %s", op, code), nil)
			}
		}
		s.reporterRef.Store(reporter.New(s.cfg.OutPeriod(), s.state.Counters(), s.builderForReporter(), s.reporterOs, onErr))
	}
}

// builderForReporter hands onForkChild's fresh Reporter the Builder that
// intercept.State exposes through State.Builder(); the two always share
// the same Builder for the shim's whole life.
func (s *Shim) builderForReporter() *metric.Builder {
	return s.state.Builder()
}

// RunID is a per-load identifier (a random UUID) generated once in New.
// It is available only through this accessor: it is not attached as a
// label to any emitted record, and a post-fork child keeps its parent's
// value.
func (s *Shim) RunID() string { return s.runID }

// Close releases the Output/Log resources. The injected shim itself never
// calls this — it has no shutdown path and dies with the process; Close
// exists for tests that construct a Shim outside of a real injected
// process.
func (s *Shim) Close() error {
	var err error
	if s.out != nil {
		err = s.out.Close()
	}
	if s.log != nil {
		_ = s.log.Close()
	}
	return err
}

// buildOutput never returns a non-nil interface wrapping a nil concrete
// pointer: every branch funnels through an explicit nil check so a
// construction failure yields a true nil outputCloser, not the classic
// typed-nil-interface trap.
func buildOutput(cfg config.Snapshot) (outputCloser, error) {
	switch cfg.OutputKind {
	case config.OutputTCP:
		o, err := output.NewTCP(cfg.OutputDest)
		if err != nil {
			return nil, err
		}
		return o, nil
	case config.OutputFile:
		o, err := output.NewFile(cfg.OutputDest)
		if err != nil {
			return nil, err
		}
		return o, nil
	case config.OutputProm:
		o, err := output.NewProm(cfg.OutputDest)
		if err != nil {
			return nil, err
		}
		return o, nil
	default:
		o, err := output.NewUDP(cfg.OutputDest)
		if err != nil {
			return nil, err
		}
		return o, nil
	}
}

func darwinExtraSymbols() []string {
	return darwinSymbols
}
