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

package osinfo_test

import (
	"os"
	"testing"

	"github.com/sabouaram/scopeagent/osinfo"
)

func TestNew_SelfPid(t *testing.T) {
	o, err := osinfo.New(os.Getpid())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if n := o.Procname(0); n == "" {
		t.Fatalf("expected a non-empty procname")
	}

	if n, err := o.NumThreads(); err != nil || n < 1 {
		t.Fatalf("NumThreads() = %d, %v", n, err)
	}

	if _, err := o.NumFDs(); err != nil {
		t.Fatalf("NumFDs: %v", err)
	}

	if u, s, err := o.CPUTimes(); err != nil || u < 0 || s < 0 {
		t.Fatalf("CPUTimes() = %v, %v, %v", u, s, err)
	}

	if kb, err := o.MemRSSKB(); err != nil || kb == 0 {
		t.Fatalf("MemRSSKB() = %d, %v", kb, err)
	}
}

func TestProcname_TruncatesToMaxLen(t *testing.T) {
	o, err := osinfo.New(os.Getpid())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	full := o.Procname(0)
	if len(full) < 2 {
		t.Skip("process name too short to exercise truncation")
	}
	truncated := o.Procname(2)
	if len(truncated) != 2 {
		t.Fatalf("Procname(2) = %q, want length 2", truncated)
	}
}
