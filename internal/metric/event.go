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

// Package metric assembles the shim's typed metric/event records and hands
// them to the Formatter/Output collaborators. It never blocks: Output is
// documented as lossy-on-congestion, so Emit* never waits on I/O.
package metric

// Semantic is the kind of value a metric carries, matching the StatsD type
// suffixes: Current -> g, Delta -> c, DeltaMs -> ms, Histogram -> h,
// Set -> s.
type Semantic uint8

const (
	Current Semantic = iota
	Delta
	DeltaMs
	Histogram
	Set
)

// Field is one label in an event's field set, kept as an ordered slice
// (not a map) so formatters can render fields in a stable, test-friendly
// order.
type Field struct {
	Name  string
	Value string
}

// Event is a single gauge-style counter event or DNS/byte event.
type Event struct {
	Name   string
	Value  int64
	Sem    Semantic
	Fields []Field
}

// ProcSample is the process resource sample emitted by the periodic
// reporter.
type ProcSample struct {
	CPUUserSec float64
	CPUSysSec  float64
	MemKB      uint64
	Threads    int
	FDs        int
	Children   int
}

// Formatter renders an Event to its wire form. ok is false when the
// rendered line cannot be produced at all (e.g. it would overflow the
// formatter's length cap even after dropping every optional field).
type Formatter interface {
	Format(e Event) (line []byte, ok bool)
}

// Output transports an already-formatted line. Send must be non-blocking
// or bounded — it runs on the caller's thread inside an intercepted libc
// call; SendEvent receives the structured Event directly for sinks (e.g.
// the Prometheus sink) that do not go through a textual formatter at all.
type Output interface {
	Send(line []byte) error
	SendEvent(e Event) error
}
