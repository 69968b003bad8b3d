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

// Package osinfo answers process-level questions — name, thread count, fd
// count, child count — plus the CPU/RSS sampling the periodic reporter
// needs. Built on gopsutil/v3/process so the same code runs unmodified on
// every platform the shim targets, rather than hand-rolling /proc parsing
// or a cgo getrusage call.
package osinfo

import (
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/process"
)

// Os is the concrete Os collaborator, bound to a single pid for its whole
// lifetime (the shim's own process).
type Os struct {
	pid int32
	p   *process.Process
}

// New binds an Os to pid.
func New(pid int) (*Os, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, err
	}
	return &Os{pid: int32(pid), p: p}, nil
}

// Procname returns the process name, truncated to maxLen when maxLen is
// positive, so callers formatting into a fixed-width field (e.g. a StatsD
// tag) get a stable bound.
func (o *Os) Procname(maxLen int) string {
	name, err := o.p.Name()
	if err != nil || name == "" {
		name = filepath.Base(os.Args[0])
	}
	if maxLen > 0 && len(name) > maxLen {
		name = name[:maxLen]
	}
	return name
}

// NumThreads returns the process's current thread count.
func (o *Os) NumThreads() (int, error) {
	n, err := o.p.NumThreads()
	return int(n), err
}

// NumFDs returns the process's current open descriptor count.
func (o *Os) NumFDs() (int, error) {
	n, err := o.p.NumFDs()
	return int(n), err
}

// NumChildProcs returns the number of direct child processes.
func (o *Os) NumChildProcs() (int, error) {
	children, err := o.p.Children()
	if err != nil {
		return 0, err
	}
	return len(children), nil
}

// CPUTimes returns user and system CPU seconds, the equivalent of
// getrusage's ru_utime and ru_stime.
func (o *Os) CPUTimes() (userSec, sysSec float64, err error) {
	t, err := o.p.Times()
	if err != nil {
		return 0, 0, err
	}
	return t.User, t.System, nil
}

// MemRSSKB returns the resident set size in kilobytes.
func (o *Os) MemRSSKB() (uint64, error) {
	mi, err := o.p.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return mi.RSS / 1024, nil
}
