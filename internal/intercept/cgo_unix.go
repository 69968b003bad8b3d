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

//go:build linux || darwin

// This file carries the shim's C-ABI entry points: every intercepted
// symbol exported with C linkage under its libc name (cgo's
// //export directive exports the Go function under its own name, so each
// function below is literally called close, socket, sendmsg, ...). Each
// wrapper (1) checks its resolved next-in-chain pointer is non-nil via
// internal/resolver's Table, (2) calls the real symbol through a trampoline
// in interpose.c (cgo cannot call an arbitrary void* directly), and (3) on
// success, hands the already-decoded arguments to a State method. The
// preamble is declaration-only (see interpose.h) because cgo copies it into
// the generated export header. No wrapper ever blocks beyond the real call
// itself.
package intercept

/*
#include <sys/types.h>
#include "interpose.h"
*/
import "C"

import (
	"errors"
	"unsafe"

	"github.com/sabouaram/scopeagent/internal/fdtable"
	"github.com/sabouaram/scopeagent/internal/resolver"
	"github.com/sabouaram/scopeagent/network"
)

var errSymbolUnresolved = errors.New("intercept: symbol unresolved")

// maxDNSPayload bounds how much of a datagram is copied into Go memory for
// DNS name extraction; ordinary DNS queries are well under this.
const maxDNSPayload = 1500

// addrFromC converts a decoded scope_addr_t into the table's SockAddr
// shape. ok is false for SCOPE_FAM_NONE (invalid/unsupported family).
func addrFromC(out *C.scope_addr_t) (fdtable.SockAddr, bool) {
	switch out.family {
	case C.SCOPE_FAM_INET:
		b := C.GoBytes(unsafe.Pointer(&out.addr[0]), 4)
		return fdtable.IP4or6FromBytes(false, b, uint16(out.port)), true
	case C.SCOPE_FAM_INET6:
		b := C.GoBytes(unsafe.Pointer(&out.addr[0]), 16)
		return fdtable.IP4or6FromBytes(true, b, uint16(out.port)), true
	case C.SCOPE_FAM_UNIX:
		return fdtable.UnixFromPath(C.GoString(&out.unixpath[0])), true
	default:
		return fdtable.SockAddr{}, false
	}
}

func decodeSockaddr(sa unsafe.Pointer, salen C.uint) (fdtable.SockAddr, bool) {
	if sa == nil || salen == 0 {
		return fdtable.SockAddr{}, false
	}
	var out C.scope_addr_t
	C.scope_decode_sockaddr(sa, salen, &out)
	return addrFromC(&out)
}

// copyPayload makes a bounded Go-owned copy of a C buffer, used only for
// the DNS parse path — never for the bulk of a transfer.
func copyPayload(buf unsafe.Pointer, n C.size_t) []byte {
	if buf == nil || n == 0 {
		return nil
	}
	if n > maxDNSPayload {
		n = maxDNSPayload
	}
	return C.GoBytes(buf, C.int(n))
}

// resolved looks up name in the active symbol table. ok is false when no
// shim is installed yet or the symbol failed to resolve — the call site
// treats both as an unresolved symbol and returns -1 untouched.
func resolved(sh *activeShim, name string) (unsafe.Pointer, bool) {
	if sh == nil || sh.sym == nil {
		return nil, false
	}
	p := sh.sym.Lookup(name)
	return p, p != nil
}

//export close
func close(fd C.int) C.int {
	sh := current()
	p, ok := resolved(sh, resolver.Close)
	if !ok {
		return -1
	}
	rc := C.scope_call_close(p, fd)
	if rc == 0 {
		sh.state.OnClose(int(fd))
	}
	return rc
}

//export shutdown
func shutdown(fd, how C.int) C.int {
	sh := current()
	p, ok := resolved(sh, resolver.Shutdown)
	if !ok {
		return -1
	}
	rc := C.scope_call_shutdown(p, fd, how)
	if rc == 0 {
		sh.state.OnClose(int(fd))
	}
	return rc
}

//export read
func read(fd C.int, buf unsafe.Pointer, count C.size_t) C.ssize_t {
	sh := current()
	p, ok := resolved(sh, resolver.Read)
	if !ok {
		return -1
	}
	n := C.scope_call_read(p, fd, buf, count)
	if n > 0 && sh.state.IsTrackedNetworkFD(int(fd)) {
		sh.state.OnRecv(int(fd), int(n), nil, adoptFn(sh), ensureFn(sh))
	}
	return n
}

//export write
func write(fd C.int, buf unsafe.Pointer, count C.size_t) C.ssize_t {
	sh := current()
	p, ok := resolved(sh, resolver.Write)
	if !ok {
		return -1
	}
	n := C.scope_call_write(p, fd, buf, count)
	if n > 0 && sh.state.IsTrackedNetworkFD(int(fd)) {
		payload := copyPayload(buf, C.size_t(n))
		sh.state.OnSend(int(fd), int(n), nil, payload, adoptFn(sh), ensureFn(sh))
	}
	return n
}

//export fcntl
func fcntl(fd, cmd C.int, arg C.long) C.int {
	sh := current()
	p, ok := resolved(sh, resolver.Fcntl)
	if !ok {
		return -1
	}
	rc := C.scope_call_fcntl(p, fd, cmd, arg)
	if rc >= 0 && C.scope_is_dupfd(cmd) != 0 {
		sh.state.OnDup(int(fd), int(rc), adoptFn(sh))
	}
	return rc
}

//export socket
func socket(domain, typ, proto C.int) C.int {
	sh := current()
	p, ok := resolved(sh, resolver.Socket)
	if !ok {
		return -1
	}
	fd := C.scope_call_socket(p, domain, typ, proto)
	if fd >= 0 {
		sh.state.OnSocket(int(fd), int(C.scope_norm_family(domain)), int(C.scope_norm_socktype(typ)))
	}
	return fd
}

//export bind
func bind(fd C.int, addr unsafe.Pointer, addrlen C.uint) C.int {
	sh := current()
	p, ok := resolved(sh, resolver.Bind)
	if !ok {
		return -1
	}
	rc := C.scope_call_bind(p, fd, addr, addrlen)
	if rc == 0 {
		if sa, ok := decodeSockaddr(addr, addrlen); ok {
			sh.state.OnBind(int(fd), sa)
		}
	}
	return rc
}

//export listen
func listen(fd, backlog C.int) C.int {
	sh := current()
	p, ok := resolved(sh, resolver.Listen)
	if !ok {
		return -1
	}
	rc := C.scope_call_listen(p, fd, backlog)
	if rc == 0 {
		sh.state.OnListen(int(fd))
	}
	return rc
}

//export accept
func accept(fd C.int, addr unsafe.Pointer, addrlen *C.uint) C.int {
	sh := current()
	p, ok := resolved(sh, resolver.Accept)
	if !ok {
		return -1
	}
	nfd := C.scope_call_accept(p, fd, addr, unsafe.Pointer(addrlen))
	if nfd >= 0 && addr != nil && addrlen != nil {
		if sa, ok := decodeSockaddr(addr, *addrlen); ok {
			sh.state.OnAccept(int(nfd), sa)
		}
	}
	return nfd
}

//export accept4
func accept4(fd C.int, addr unsafe.Pointer, addrlen *C.uint, flags C.int) C.int {
	sh := current()
	p, ok := resolved(sh, resolver.Accept4)
	if !ok {
		return -1
	}
	nfd := C.scope_call_accept4(p, fd, addr, unsafe.Pointer(addrlen), flags)
	if nfd >= 0 && addr != nil && addrlen != nil {
		if sa, ok := decodeSockaddr(addr, *addrlen); ok {
			sh.state.OnAccept(int(nfd), sa)
		}
	}
	return nfd
}

//export connect
func connect(fd C.int, addr unsafe.Pointer, addrlen C.uint) C.int {
	sh := current()
	p, ok := resolved(sh, resolver.Connect)
	if !ok {
		return -1
	}
	rc := C.scope_call_connect(p, fd, addr, addrlen)
	if rc == 0 {
		if sa, ok := decodeSockaddr(addr, addrlen); ok {
			sh.state.OnConnect(int(fd), sa)
		}
	}
	return rc
}

//export send
func send(fd C.int, buf unsafe.Pointer, length C.size_t, flags C.int) C.ssize_t {
	sh := current()
	p, ok := resolved(sh, resolver.Send)
	if !ok {
		return -1
	}
	n := C.scope_call_send(p, fd, buf, length, flags)
	if n > 0 {
		payload := copyPayload(buf, C.size_t(n))
		sh.state.OnSend(int(fd), int(n), nil, payload, adoptFn(sh), ensureFn(sh))
	}
	return n
}

//export sendto
func sendto(fd C.int, buf unsafe.Pointer, length C.size_t, flags C.int, addr unsafe.Pointer, addrlen C.uint) C.ssize_t {
	sh := current()
	p, ok := resolved(sh, resolver.SendTo)
	if !ok {
		return -1
	}
	n := C.scope_call_sendto(p, fd, buf, length, flags, addr, addrlen)
	if n > 0 {
		var remote *fdtable.SockAddr
		if sa, ok := decodeSockaddr(addr, addrlen); ok {
			remote = &sa
		}
		payload := copyPayload(buf, C.size_t(n))
		sh.state.OnSend(int(fd), int(n), remote, payload, adoptFn(sh), ensureFn(sh))
	}
	return n
}

//export sendmsg
func sendmsg(fd C.int, msg unsafe.Pointer, flags C.int) C.ssize_t {
	sh := current()
	p, ok := resolved(sh, resolver.SendMsg)
	if !ok {
		return -1
	}
	n := C.scope_call_sendmsg(p, fd, msg, flags)
	if n > 0 && msg != nil {
		var remote *fdtable.SockAddr
		// The remote endpoint only updates when msg_name decodes to a
		// valid sockaddr; TCP sendmsg never carries msg_name, so the
		// length/validity check alone already excludes it.
		if sa, ok := decodeSockaddr(C.scope_msg_name(msg), C.scope_msg_namelen(msg)); ok {
			remote = &sa
		}
		payload := copyPayload(C.scope_msg_first_iov(msg), C.scope_msg_first_iovlen(msg))
		sh.state.OnSend(int(fd), int(n), remote, payload, adoptFn(sh), ensureFn(sh))
	}
	return n
}

//export recv
func recv(fd C.int, buf unsafe.Pointer, length C.size_t, flags C.int) C.ssize_t {
	sh := current()
	p, ok := resolved(sh, resolver.Recv)
	if !ok {
		return -1
	}
	n := C.scope_call_recv(p, fd, buf, length, flags)
	if n > 0 {
		sh.state.OnRecv(int(fd), int(n), nil, adoptFn(sh), ensureFn(sh))
	}
	return n
}

//export recvfrom
func recvfrom(fd C.int, buf unsafe.Pointer, length C.size_t, flags C.int, addr unsafe.Pointer, addrlen *C.uint) C.ssize_t {
	sh := current()
	p, ok := resolved(sh, resolver.RecvFrom)
	if !ok {
		return -1
	}
	n := C.scope_call_recvfrom(p, fd, buf, length, flags, addr, unsafe.Pointer(addrlen))
	if n > 0 {
		var remote *fdtable.SockAddr
		if addr != nil && addrlen != nil {
			if sa, ok := decodeSockaddr(addr, *addrlen); ok {
				remote = &sa
			}
		}
		sh.state.OnRecv(int(fd), int(n), remote, adoptFn(sh), ensureFn(sh))
	}
	return n
}

//export recvmsg
func recvmsg(fd C.int, msg unsafe.Pointer, flags C.int) C.ssize_t {
	sh := current()
	p, ok := resolved(sh, resolver.RecvMsg)
	if !ok {
		return -1
	}
	n := C.scope_call_recvmsg(p, fd, msg, flags)
	if n > 0 && msg != nil {
		var remote *fdtable.SockAddr
		if sa, ok := decodeSockaddr(C.scope_msg_name(msg), C.scope_msg_namelen(msg)); ok {
			remote = &sa
		}
		sh.state.OnRecv(int(fd), int(n), remote, adoptFn(sh), ensureFn(sh))
	}
	return n
}

//export fork
func fork() C.int {
	sh := current()
	p, ok := resolved(sh, resolver.Fork)
	if !ok {
		return -1
	}
	pid := C.scope_call_fork(p)
	if pid == 0 {
		sh.state.OnForkChild()
	}
	return pid
}

// adoptFn/ensureFn bind the getsockname/getpeername/getsockopt trampolines
// to the shapes internal/fdtable expects, so internal/intercept/state.go
// (and internal/fdtable itself) stay cgo-free.

// soType classifies an inet descriptor by reading SO_TYPE, used when
// adopting an fd the table has never seen.
func soType(sh *activeShim, fd int) network.Kind {
	p, ok := resolved(sh, resolver.GetSockOpt)
	if !ok {
		return network.Raw
	}
	switch C.scope_sock_is_dgram(p, C.int(fd)) {
	case 1:
		return network.Udp
	case 0:
		return network.Tcp
	default:
		return network.Raw
	}
}

func adoptFn(sh *activeShim) fdtable.AdoptFunc {
	return func(fd int) (kind network.Kind, local, remote fdtable.SockAddr, err error) {
		gp, okG := resolved(sh, resolver.GetSockName)
		if !okG {
			return network.Other, fdtable.SockAddr{}, fdtable.SockAddr{}, errSymbolUnresolved
		}

		var out C.scope_addr_t
		if C.scope_call_getname(gp, C.int(fd), &out) != 0 {
			return network.Other, fdtable.SockAddr{}, fdtable.SockAddr{}, errors.New("intercept: getsockname failed")
		}
		sa, ok := addrFromC(&out)
		if !ok {
			return network.Other, fdtable.SockAddr{}, fdtable.SockAddr{}, errors.New("intercept: unknown sockaddr family")
		}
		local = sa

		if sa.Family == fdtable.UnixPath {
			kind = network.Unix
		} else {
			kind = soType(sh, fd)
		}

		if pp, okP := resolved(sh, resolver.GetPeerName); okP {
			if C.scope_call_getname(pp, C.int(fd), &out) == 0 {
				if rsa, ok2 := addrFromC(&out); ok2 {
					remote = rsa
				}
			}
		}
		return kind, local, remote, nil
	}
}

func ensureFn(sh *activeShim) fdtable.EnsureAddrsFunc {
	return func(fd int) (local, remote fdtable.SockAddr, err error) {
		var out C.scope_addr_t

		if gp, okG := resolved(sh, resolver.GetSockName); okG {
			if C.scope_call_getname(gp, C.int(fd), &out) == 0 {
				if sa, ok := addrFromC(&out); ok {
					local = sa
				}
			}
		}
		if pp, okP := resolved(sh, resolver.GetPeerName); okP {
			if C.scope_call_getname(pp, C.int(fd), &out) == 0 {
				if sa, ok := addrFromC(&out); ok {
					remote = sa
				}
			}
		}
		return local, remote, nil
	}
}
