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

// Package scopeerr holds the shim's internal error codes. None of these
// ever reach the host process: every interceptor swallows them after
// logging, so the host only ever observes the real libc return value and
// errno.
package scopeerr

import "fmt"

type Code uint8

const (
	_ Code = iota
	SymbolUnresolved
	AllocFailed
	OsQueryFailed
	EmitFailed
	ConfigMissing
)

func (c Code) String() string {
	switch c {
	case SymbolUnresolved:
		return "symbol_unresolved"
	case AllocFailed:
		return "alloc_failed"
	case OsQueryFailed:
		return "os_query_failed"
	case EmitFailed:
		return "emit_failed"
	case ConfigMissing:
		return "config_missing"
	default:
		return "unknown"
	}
}

// Err is the shim-internal error value. It is never wrapped in a standard
// error chain that could escape to the host; callers log it and drop it.
type Err struct {
	Code Code
	Op   string
	Err  error
}

func New(code Code, op string, err error) *Err {
	return &Err{Code: code, Op: op, Err: err}
}

func (e *Err) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Err)
}

func (e *Err) Unwrap() error {
	return e.Err
}
