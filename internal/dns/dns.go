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

// Package dns extracts the queried name from an outbound DNS packet. A
// hand-rolled label walker over untrusted datagram memory is an
// out-of-bounds read waiting to happen, so parsing goes through
// github.com/miekg/dns instead: its wire-format unpacker treats the
// supplied slice length as authoritative and returns an error rather than
// reading past it. On any malformed input the caller leaves the recorded
// name untouched.
package dns

import (
	"strings"

	"github.com/miekg/dns"
)

// MaxNameLen bounds the returned name, matching the FD table's dns_name
// buffer (internal/fdtable.maxDNSName).
const MaxNameLen = 253

// classIN is the only question class the extractor records a name for.
const classIN = 1

// ExtractName parses payload as a DNS query message and returns the dotted
// question name. ok is false when the payload is not a well-formed DNS
// query, carries no question, or the question class is not IN — in every
// such case the caller must leave dns_name untouched.
func ExtractName(payload []byte) (name string, ok bool) {
	if len(payload) < 12 {
		return "", false
	}

	var m dns.Msg
	if err := m.Unpack(payload); err != nil {
		return "", false
	}

	if m.Response || len(m.Question) == 0 {
		return "", false
	}

	q := m.Question[0]
	if q.Qclass != classIN {
		return "", false
	}

	name = strings.TrimSuffix(q.Name, ".")
	if len(name) == 0 {
		return "", false
	}
	if len(name) > MaxNameLen {
		name = name[:MaxNameLen]
	}
	return name, true
}

// IsDNSPort reports whether port is the well-known DNS port, the condition
// interceptors use to decide whether to attempt extraction at all.
func IsDNSPort(port uint16) bool {
	return port == 53
}
