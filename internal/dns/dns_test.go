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

package dns_test

import (
	"testing"

	mdns "github.com/miekg/dns"

	"github.com/sabouaram/scopeagent/internal/dns"
)

func buildQuery(t *testing.T, name string, qclass uint16) []byte {
	t.Helper()
	m := new(mdns.Msg)
	m.SetQuestion(mdns.Fqdn(name), mdns.TypeA)
	if qclass != 0 {
		m.Question[0].Qclass = qclass
	}
	b, err := m.Pack()
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	return b
}

// A well-formed query for www.example.com yields exactly that dotted name.
func TestExtractName_WWWExample(t *testing.T) {
	payload := buildQuery(t, "www.example.com", 0)
	name, ok := dns.ExtractName(payload)
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if name != "www.example.com" {
		t.Fatalf("name = %q, want www.example.com", name)
	}
}

func TestExtractName_NonINClassSkipped(t *testing.T) {
	const classCH = 3
	payload := buildQuery(t, "chaosnet.example", classCH)
	if _, ok := dns.ExtractName(payload); ok {
		t.Fatalf("expected non-IN class query to be skipped")
	}
}

func TestExtractName_TruncatedPayloadRejected(t *testing.T) {
	payload := buildQuery(t, "www.example.com", 0)
	for _, cut := range []int{0, 1, 5, 11, len(payload) - 1} {
		if cut < 0 || cut > len(payload) {
			continue
		}
		if _, ok := dns.ExtractName(payload[:cut]); ok {
			t.Fatalf("expected truncated payload (len=%d) to be rejected", cut)
		}
	}
}

func TestExtractName_NotDNSGarbage(t *testing.T) {
	garbage := make([]byte, 64)
	for i := range garbage {
		garbage[i] = byte(i)
	}
	if _, ok := dns.ExtractName(garbage); ok {
		t.Fatalf("expected non-DNS payload to be rejected, not panic")
	}
}

func TestExtractName_ResponseSkipped(t *testing.T) {
	m := new(mdns.Msg)
	m.SetQuestion(mdns.Fqdn("example.com"), mdns.TypeA)
	m.Response = true
	b, err := m.Pack()
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if _, ok := dns.ExtractName(b); ok {
		t.Fatalf("expected a response message to be skipped")
	}
}

func TestIsDNSPort(t *testing.T) {
	if !dns.IsDNSPort(53) {
		t.Fatalf("expected port 53 to be DNS")
	}
	if dns.IsDNSPort(54) {
		t.Fatalf("expected port 54 to not be DNS")
	}
}
