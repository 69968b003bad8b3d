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

// Package network carries the socket-kind enumeration shared by the FD
// table, the metric builder and the output formatters.
package network

import "encoding/json"

// Kind is the socket kind recorded for a tracked file descriptor.
// It is derived once, at socket()/accept() time, from the kernel-reported
// address family and socket type.
type Kind uint8

const (
	Other Kind = iota
	Tcp
	Udp
	Unix
	Raw
	Rdm
	SeqPacket
)

var kindName = map[Kind]string{
	Other:     "other",
	Tcp:       "tcp",
	Udp:       "udp",
	Unix:      "unix",
	Raw:       "raw",
	Rdm:       "rdm",
	SeqPacket: "seqpacket",
}

var nameKind = func() map[string]Kind {
	m := make(map[string]Kind, len(kindName))
	for k, v := range kindName {
		m[v] = k
	}
	return m
}()

// String returns the lowercase wire name of the kind, or "" when the value
// is outside the known range.
func (k Kind) String() string {
	return kindName[k]
}

// Proto returns the StatsD-friendly protocol label ("TCP"/"UDP"/"UNIX"/…)
// used in net.port / net.tcp / byte-event label sets.
func (k Kind) Proto() string {
	s := k.String()
	if s == "" {
		return ""
	}
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// Parse maps a wire name back to a Kind. ok is false for an unknown name.
func Parse(s string) (k Kind, ok bool) {
	k, ok = nameKind[s]
	return
}

// ParseSocketType maps the `type` argument of socket(2) (SOCK_STREAM,
// SOCK_DGRAM, …) plus the address family to the Kind used by the FD table.
// family/typ follow the golang.org/x/sys/unix AF_*/SOCK_* numeric space.
func ParseSocketType(family, typ int) Kind {
	const (
		afUnix     = 1
		afInet     = 2
		afInet6    = 10 // linux value; darwin differs but is remapped by callers
		sockStream = 1
		sockDgram  = 2
		sockRaw    = 3
		sockRdm    = 4
		sockSeqPkt = 5
	)

	if family == afUnix {
		return Unix
	}

	switch typ {
	case sockStream:
		if family == afInet || family == afInet6 {
			return Tcp
		}
		return Other
	case sockDgram:
		if family == afInet || family == afInet6 {
			return Udp
		}
		return Other
	case sockRaw:
		return Raw
	case sockRdm:
		return Rdm
	case sockSeqPkt:
		return SeqPacket
	default:
		return Other
	}
}

// MarshalJSON renders the Kind as its wire name, for config snapshots and
// any structured event fields that embed it.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON accepts either the wire name or a bare integer.
func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if v, ok := Parse(s); ok {
			*k = v
			return nil
		}
	}
	var n uint8
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*k = Kind(n)
	return nil
}
