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

// Package output implements the Output collaborator: UDP, TCP, and file
// transports for already-formatted lines, plus a Prometheus scrape sink
// that bypasses the line formatter entirely. Every Send/SendEvent must be
// non-blocking or bounded: a congested or unreachable sink drops the
// record rather than stalling the caller's intercepted libc call.
package output

import (
	"bufio"
	"net"
	"os"
	"sync"
	"time"

	"github.com/sabouaram/scopeagent/internal/metric"
)

// UDP sends each line as a single best-effort datagram. Connection-less by
// nature, so an unreachable collector never blocks the caller.
type UDP struct {
	conn net.Conn
}

// NewUDP dials dest (already resolved, e.g. via the config package's
// go-sockaddr/template pass).
func NewUDP(dest string) (*UDP, error) {
	c, err := net.Dial("udp", dest)
	if err != nil {
		return nil, err
	}
	return &UDP{conn: c}, nil
}

func (u *UDP) Send(line []byte) error {
	_ = u.conn.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
	_, err := u.conn.Write(line)
	return err
}

func (u *UDP) SendEvent(metric.Event) error { return nil }

func (u *UDP) Close() error { return u.conn.Close() }

// TCP keeps a persistent connection, reconnecting lazily on the next Send
// after a write failure, with a bounded write deadline so a stalled
// collector cannot block an interceptor indefinitely.
type TCP struct {
	mu   sync.Mutex
	dest string
	conn net.Conn
}

func NewTCP(dest string) (*TCP, error) {
	t := &TCP{dest: dest}
	c, err := net.DialTimeout("tcp", dest, time.Second)
	if err != nil {
		return nil, err
	}
	t.conn = c
	return t, nil
}

func (t *TCP) Send(line []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		c, err := net.DialTimeout("tcp", t.dest, time.Second)
		if err != nil {
			return err
		}
		t.conn = c
	}

	_ = t.conn.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
	if _, err := t.conn.Write(line); err != nil {
		_ = t.conn.Close()
		t.conn = nil
		return err
	}
	return nil
}

func (t *TCP) SendEvent(metric.Event) error { return nil }

func (t *TCP) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}

// File appends lines to a local path, buffered, for deployments that ship a
// sidecar tailer instead of a network collector.
type File struct {
	mu sync.Mutex
	f  *os.File
	w  *bufio.Writer
}

func NewFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &File{f: f, w: bufio.NewWriter(f)}, nil
}

func (fl *File) Send(line []byte) error {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if _, err := fl.w.Write(line); err != nil {
		return err
	}
	return fl.w.Flush()
}

func (fl *File) SendEvent(metric.Event) error { return nil }

func (fl *File) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	_ = fl.w.Flush()
	return fl.f.Close()
}
