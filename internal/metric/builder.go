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

package metric

import (
	"strconv"

	"github.com/sabouaram/scopeagent/internal/fdtable"
	"github.com/sabouaram/scopeagent/internal/scopeerr"
)

// Identity is the process identity read once at library load and re-read
// in the child after fork.
type Identity struct {
	Proc string
	PID  int
	Host string
}

// Builder assembles and dispatches Event records. It is owned for the
// lifetime of the library.
type Builder struct {
	id  Identity
	fmt Formatter
	out Output

	onError func(code scopeerr.Code, op string, err error)
}

func NewBuilder(id Identity, f Formatter, o Output, onError func(code scopeerr.Code, op string, err error)) *Builder {
	if onError == nil {
		onError = func(scopeerr.Code, string, error) {}
	}
	return &Builder{id: id, fmt: f, out: o, onError: onError}
}

// baseFields returns the proc/pid/host triple carried on records that have
// no descriptor of their own (proc.* samples, aggregate totals, net.dns).
func (b *Builder) baseFields() []Field {
	return []Field{
		{Name: "proc", Value: b.id.Proc},
		{Name: "pid", Value: strconv.Itoa(b.id.PID)},
		{Name: "host", Value: b.id.Host},
	}
}

// netFields is the label prefix shared by every descriptor-carrying event.
// Field order is part of the wire contract: proc, pid, fd, host, proto —
// the descriptor sits between pid and host, not after the identity triple.
func (b *Builder) netFields(fd int, proto string) []Field {
	return []Field{
		{Name: "proc", Value: b.id.Proc},
		{Name: "pid", Value: strconv.Itoa(b.id.PID)},
		{Name: "fd", Value: strconv.Itoa(fd)},
		{Name: "host", Value: b.id.Host},
		{Name: "proto", Value: proto},
	}
}

// emit formats and sends an event, whose Fields are already complete and
// ordered. Never blocks: a SendEvent or Send error is logged (EmitFailed)
// and dropped, exactly once, never retried; a line the formatter rejects
// is dropped without a log entry.
func (b *Builder) emit(e Event) {
	if b.out != nil {
		if err := b.out.SendEvent(e); err != nil {
			b.onError(scopeerr.EmitFailed, "metric.emit.SendEvent", err)
		}
	}

	if b.fmt == nil || b.out == nil {
		return
	}
	line, ok := b.fmt.Format(e)
	if !ok {
		return
	}
	if err := b.out.Send(line); err != nil {
		b.onError(scopeerr.EmitFailed, "metric.emit.Send", err)
	}
}

// EmitCounter emits a bare gauge/counter event with no fd-specific labels
// (used by the periodic reporter for proc.* metrics and the aggregate
// net.rx/net.tx totals).
func (b *Builder) EmitCounter(name string, value int64, sem Semantic, fields ...Field) {
	b.emit(Event{Name: name, Value: value, Sem: sem, Fields: append(b.baseFields(), fields...)})
}

// EmitPortEvent emits net.port / net.tcp / net.conn style events, labeled
// with fd/proto/port.
func (b *Builder) EmitPortEvent(name string, value int64, fd int, proto string, port uint16) {
	b.emit(Event{
		Name:  name,
		Value: value,
		Sem:   Current,
		Fields: append(b.netFields(fd, proto),
			Field{Name: "port", Value: strconv.Itoa(int(port))},
		),
	})
}

// dataClass infers "ssl" vs "clear" purely from port 443 on either side.
func dataClass(local, remote fdtable.SockAddr) string {
	if local.Port == 443 || remote.Port == 443 {
		return "ssl"
	}
	return "clear"
}

// EmitByteEvent emits net.rx / net.tx events labeled with fd, proto, port
// plus localip/localp/remoteip/remotep/data. Unix sockets render blank
// addresses (fdtable.SockAddr.HostPort already does this).
func (b *Builder) EmitByteEvent(name string, value int64, sem Semantic, fd int, proto string, port uint16, local, remote fdtable.SockAddr) {
	lip, lp := local.HostPort()
	rip, rp := remote.HostPort()

	b.emit(Event{
		Name:  name,
		Value: value,
		Sem:   sem,
		Fields: append(b.netFields(fd, proto),
			Field{Name: "port", Value: strconv.Itoa(int(port))},
			Field{Name: "localip", Value: lip},
			Field{Name: "localp", Value: lp},
			Field{Name: "remoteip", Value: rip},
			Field{Name: "remotep", Value: rp},
			Field{Name: "data", Value: dataClass(local, remote)},
		),
	})
}

// EmitDNSEvent emits net.dns, labeled with the queried domain.
func (b *Builder) EmitDNSEvent(value int64, domain string) {
	b.emit(Event{
		Name:  "net.dns",
		Value: value,
		Sem:   Delta,
		Fields: append(b.baseFields(),
			Field{Name: "domain", Value: domain},
		),
	})
}

// EmitProcSample renders a process resource sample as the five proc.*
// events the periodic reporter emits each tick.
func (b *Builder) EmitProcSample(s ProcSample) {
	b.EmitCounter("proc.cpu", int64((s.CPUUserSec+s.CPUSysSec)*1000), Current)
	b.EmitCounter("proc.mem", int64(s.MemKB), Current)
	b.EmitCounter("proc.thread", int64(s.Threads), Current)
	b.EmitCounter("proc.fd", int64(s.FDs), Current)
	b.EmitCounter("proc.child", int64(s.Children), Current)
}
