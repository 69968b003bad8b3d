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
	"errors"
	"testing"

	"github.com/sabouaram/scopeagent/internal/fdtable"
	"github.com/sabouaram/scopeagent/internal/scopeerr"
)

type fakeFormatter struct {
	lastEvent Event
	ok        bool
}

func (f *fakeFormatter) Format(e Event) ([]byte, bool) {
	f.lastEvent = e
	return []byte(e.Name), f.ok
}

type fakeOutput struct {
	sent       [][]byte
	sentEvents []Event
	sendErr    error
	eventErr   error
}

func (f *fakeOutput) Send(line []byte) error {
	f.sent = append(f.sent, line)
	return f.sendErr
}

func (f *fakeOutput) SendEvent(e Event) error {
	f.sentEvents = append(f.sentEvents, e)
	return f.eventErr
}

func TestEmitCounter_CarriesBaseFields(t *testing.T) {
	ff := &fakeFormatter{ok: true}
	fo := &fakeOutput{}
	b := NewBuilder(Identity{Proc: "testapp", PID: 666, Host: "myhost"}, ff, fo, nil)

	b.EmitCounter("net.port", 2, Current)

	if len(fo.sentEvents) != 1 {
		t.Fatalf("expected 1 event sent, got %d", len(fo.sentEvents))
	}
	ev := fo.sentEvents[0]
	want := map[string]string{"proc": "testapp", "pid": "666", "host": "myhost"}
	for _, f := range ev.Fields {
		if v, ok := want[f.Name]; ok && v != f.Value {
			t.Fatalf("field %s = %s, want %s", f.Name, f.Value, v)
		}
	}
}

// Label order is part of the wire contract: the descriptor sits between
// pid and host on every fd-carrying event.
func TestEmitPortEvent_FieldOrder(t *testing.T) {
	ff := &fakeFormatter{ok: true}
	fo := &fakeOutput{}
	b := NewBuilder(Identity{Proc: "testapp", PID: 666, Host: "myhost"}, ff, fo, nil)

	b.EmitPortEvent("net.port", 2, 3, "TCP", 8125)

	want := []Field{
		{Name: "proc", Value: "testapp"},
		{Name: "pid", Value: "666"},
		{Name: "fd", Value: "3"},
		{Name: "host", Value: "myhost"},
		{Name: "proto", Value: "TCP"},
		{Name: "port", Value: "8125"},
	}
	got := fo.sentEvents[0].Fields
	if len(got) != len(want) {
		t.Fatalf("got %d fields, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("field %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestEmitByteEvent_FieldOrder(t *testing.T) {
	ff := &fakeFormatter{ok: true}
	fo := &fakeOutput{}
	b := NewBuilder(Identity{Proc: "p", PID: 1, Host: "h"}, ff, fo, nil)

	local := fdtable.IP4or6FromBytes(false, []byte{10, 0, 0, 1}, 51000)
	remote := fdtable.IP4or6FromBytes(false, []byte{10, 0, 0, 2}, 9000)
	b.EmitByteEvent("net.tx", 2, Delta, 3, "TCP", 51000, local, remote)

	wantNames := []string{"proc", "pid", "fd", "host", "proto", "port", "localip", "localp", "remoteip", "remotep", "data"}
	got := fo.sentEvents[0].Fields
	if len(got) != len(wantNames) {
		t.Fatalf("got %d fields, want %d: %+v", len(got), len(wantNames), got)
	}
	for i, name := range wantNames {
		if got[i].Name != name {
			t.Fatalf("field %d = %q, want %q", i, got[i].Name, name)
		}
	}
}

func TestEmitDNSEvent_FieldOrder(t *testing.T) {
	ff := &fakeFormatter{ok: true}
	fo := &fakeOutput{}
	b := NewBuilder(Identity{Proc: "p", PID: 1, Host: "h"}, ff, fo, nil)

	b.EmitDNSEvent(1, "www.example.com")

	wantNames := []string{"proc", "pid", "host", "domain"}
	got := fo.sentEvents[0].Fields
	if len(got) != len(wantNames) {
		t.Fatalf("got %d fields, want %d: %+v", len(got), len(wantNames), got)
	}
	for i, name := range wantNames {
		if got[i].Name != name {
			t.Fatalf("field %d = %q, want %q", i, got[i].Name, name)
		}
	}
}

func TestEmitByteEvent_UnixSocketBlankAddrs(t *testing.T) {
	ff := &fakeFormatter{ok: true}
	fo := &fakeOutput{}
	b := NewBuilder(Identity{Proc: "p", PID: 1, Host: "h"}, ff, fo, nil)

	b.EmitByteEvent("net.tx", 2, Delta, 3, "UNIX", 0, fdtable.UnixFromPath("/tmp/a"), fdtable.UnixFromPath("/tmp/b"))

	ev := fo.sentEvents[0]
	for _, f := range ev.Fields {
		if f.Name == "localip" || f.Name == "remoteip" {
			if f.Value != "" {
				t.Fatalf("expected blank %s for unix socket, got %q", f.Name, f.Value)
			}
		}
	}
}

func TestEmitByteEvent_SSLInferredFromPort443(t *testing.T) {
	ff := &fakeFormatter{ok: true}
	fo := &fakeOutput{}
	b := NewBuilder(Identity{Proc: "p", PID: 1, Host: "h"}, ff, fo, nil)

	remote := fdtable.IP4or6FromBytes(false, []byte{93, 184, 216, 34}, 443)
	local := fdtable.IP4or6FromBytes(false, []byte{10, 0, 0, 1}, 51000)
	b.EmitByteEvent("net.tx", 10, Delta, 3, "TCP", 443, local, remote)

	ev := fo.sentEvents[0]
	found := false
	for _, f := range ev.Fields {
		if f.Name == "data" {
			found = true
			if f.Value != "ssl" {
				t.Fatalf("data = %q, want ssl", f.Value)
			}
		}
	}
	if !found {
		t.Fatalf("expected a data field")
	}
}

func TestEmit_FormatterRejectionDropsLineButStillSendsEvent(t *testing.T) {
	ff := &fakeFormatter{ok: false}
	fo := &fakeOutput{}
	b := NewBuilder(Identity{}, ff, fo, nil)

	b.EmitCounter("A", 1, Current)

	if len(fo.sent) != 0 {
		t.Fatalf("expected no line sent when formatter rejects, got %d", len(fo.sent))
	}
	if len(fo.sentEvents) != 1 {
		t.Fatalf("expected the structured event to still be sent")
	}
}

func TestEmit_OutputErrorLoggedNotPanicked(t *testing.T) {
	ff := &fakeFormatter{ok: true}
	fo := &fakeOutput{sendErr: errors.New("congested"), eventErr: errors.New("congested")}

	logged := 0
	b := NewBuilder(Identity{}, ff, fo, func(code scopeerr.Code, op string, err error) {
		logged++
	})

	b.EmitCounter("A", 1, Current)

	if logged == 0 {
		t.Fatalf("expected the output error to be logged")
	}
}
