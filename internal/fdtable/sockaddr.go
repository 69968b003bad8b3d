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

package fdtable

import (
	"net"
	"strconv"
)

// Family is the address family recorded for a SockAddr.
type Family uint8

const (
	Unspecified Family = iota
	IPv4
	IPv6
	UnixPath
)

// SockAddr is the endpoint shape stored for both the local and remote side
// of a tracked descriptor. A zero value is Unspecified, which permits the
// lazy getsockname/getpeername lookup at next use.
type SockAddr struct {
	Family Family
	IP     net.IP
	Port   uint16
	Path   string
}

// IsUnspecified reports whether this endpoint still needs to be resolved
// via ensure_addrs.
func (s SockAddr) IsUnspecified() bool {
	return s.Family == Unspecified
}

// IP4or6FromBytes builds a SockAddr from raw big-endian address bytes, as
// decoded out of a sockaddr_in/sockaddr_in6 by the cgo interceptor layer.
func IP4or6FromBytes(v6 bool, addr []byte, port uint16) SockAddr {
	fam := IPv4
	if v6 {
		fam = IPv6
	}
	ip := make(net.IP, len(addr))
	copy(ip, addr)
	return SockAddr{Family: fam, IP: ip, Port: port}
}

// UnixFromPath builds a SockAddr for an AF_UNIX endpoint.
func UnixFromPath(path string) SockAddr {
	return SockAddr{Family: UnixPath, Path: path}
}

// String renders the endpoint the way the byte-event label set expects:
// "ip:port" for IPv4/IPv6, "" for Unix and Unspecified endpoints.
func (s SockAddr) String() string {
	switch s.Family {
	case IPv4, IPv6:
		return net.JoinHostPort(s.IP.String(), strconv.Itoa(int(s.Port)))
	default:
		return ""
	}
}

// HostPort splits the endpoint into the localip/localp (or remoteip/remotep)
// label pair; both are blank for Unix and Unspecified endpoints.
func (s SockAddr) HostPort() (host string, port string) {
	switch s.Family {
	case IPv4, IPv6:
		return s.IP.String(), strconv.Itoa(int(s.Port))
	default:
		return "", ""
	}
}
