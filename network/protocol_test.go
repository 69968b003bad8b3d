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

package network_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/sabouaram/scopeagent/network"
)

func TestNetwork(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "network/protocol suite")
}

var _ = Describe("Kind", func() {
	Describe("String()", func() {
		It("returns 'tcp' for Tcp", func() {
			Expect(Tcp.String()).To(Equal("tcp"))
		})

		It("returns 'udp' for Udp", func() {
			Expect(Udp.String()).To(Equal("udp"))
		})

		It("returns 'unix' for Unix", func() {
			Expect(Unix.String()).To(Equal("unix"))
		})

		It("returns empty for an out-of-range value", func() {
			Expect(Kind(99).String()).To(Equal(""))
		})
	})

	Describe("Proto()", func() {
		It("upper-cases the wire name for the label set", func() {
			Expect(Tcp.Proto()).To(Equal("TCP"))
			Expect(Udp.Proto()).To(Equal("UDP"))
		})

		It("returns empty for an unknown kind", func() {
			Expect(Kind(99).Proto()).To(Equal(""))
		})
	})

	Describe("Parse()", func() {
		It("round-trips every known kind through String()", func() {
			for _, k := range []Kind{Tcp, Udp, Unix, Raw, Rdm, SeqPacket, Other} {
				got, ok := Parse(k.String())
				Expect(ok).To(BeTrue())
				Expect(got).To(Equal(k))
			}
		})

		It("reports ok=false for an unknown name", func() {
			_, ok := Parse("sctp")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("ParseSocketType()", func() {
		It("classifies AF_INET+SOCK_STREAM as Tcp", func() {
			Expect(ParseSocketType(2, 1)).To(Equal(Tcp))
		})

		It("classifies AF_INET+SOCK_DGRAM as Udp", func() {
			Expect(ParseSocketType(2, 2)).To(Equal(Udp))
		})

		It("classifies AF_UNIX as Unix regardless of type", func() {
			Expect(ParseSocketType(1, 1)).To(Equal(Unix))
			Expect(ParseSocketType(1, 2)).To(Equal(Unix))
		})

		It("classifies SOCK_RAW as Raw", func() {
			Expect(ParseSocketType(2, 3)).To(Equal(Raw))
		})
	})

	Describe("JSON", func() {
		It("marshals to its wire name and unmarshals back", func() {
			b, err := Tcp.MarshalJSON()
			Expect(err).ToNot(HaveOccurred())
			Expect(string(b)).To(Equal(`"tcp"`))

			var k Kind
			Expect(k.UnmarshalJSON(b)).To(Succeed())
			Expect(k).To(Equal(Tcp))
		})

		It("accepts a bare integer", func() {
			var k Kind
			Expect(k.UnmarshalJSON([]byte("1"))).To(Succeed())
			Expect(k).To(Equal(Tcp))
		})
	})
})
