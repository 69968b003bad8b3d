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
	"sync/atomic"

	"github.com/sabouaram/scopeagent/internal/resolver"
)

// active holds the single State + symbol Table the cgo-exported entry
// points dereference. It is a package-level atomic pointer rather than a
// plain var: Lifecycle publishes it exactly once, at load, and every
// interceptor (running on an arbitrary host thread) only ever reads it.
var active atomic.Pointer[activeShim]

type activeShim struct {
	state *State
	sym   *resolver.Table
}

// Install publishes the constructed State and resolved symbol Table so the
// cgo entry points can start dispatching. Called exactly once, from
// internal/lifecycle's constructor path.
func Install(s *State, sym *resolver.Table) {
	active.Store(&activeShim{state: s, sym: sym})
}

// current returns the installed shim, or nil before Install has run (e.g.
// a libc call arriving from another shared library's own constructor,
// racing this one's — every cgo entry point treats a nil State as
// SymbolUnresolved-equivalent and returns -1 without calling the real
// function).
func current() *activeShim {
	return active.Load()
}
