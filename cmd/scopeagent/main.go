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

// Command scopeagent builds the injected shared library itself:
//
//	go build -buildmode=c-shared -o scopeagent.so ./cmd/scopeagent
//
// main() is never called by the host process — the host only ever dlopen()s
// the resulting .so (directly, or via LD_PRELOAD/DYLD_INSERT_LIBRARIES).
// Go's own c-shared runtime bootstrap runs every package init() before the
// library is usable by its caller, so the constructor below fires before
// the host's main without any explicit C constructor attribute.
package main

import (
	_ "github.com/sabouaram/scopeagent/internal/intercept"

	"github.com/sabouaram/scopeagent/internal/lifecycle"
)

func init() {
	// New never returns a non-nil error in practice (every internal
	// failure degrades to a default and is logged); the check is kept so a
	// future failure mode can't silently leave the shim half-installed.
	if _, err := lifecycle.New(); err != nil {
		return
	}
}

func main() {}
