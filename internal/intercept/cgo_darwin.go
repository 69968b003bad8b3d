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

//go:build darwin

// macOS's libSystem resolves a handful of POSIX names to cancellation-aware
// variants that a plain dlsym(RTLD_NEXT, "close") will not intercept. Each
// one funnels into the same State.OnClose/OnAccept as its POSIX
// counterpart in cgo_unix.go. The two
// names carrying a dollar sign cannot be Go identifiers, so //export cannot
// produce them directly: interpose_darwin.c defines close$NOCANCEL and
// accept$NOCANCEL as thin aliases over the scope_*-prefixed exports below.
package intercept

/*
#include "interpose.h"
*/
import "C"

import (
	"unsafe"

	"github.com/sabouaram/scopeagent/internal/resolver"
)

//export close_nocancel
func close_nocancel(fd C.int) C.int {
	return darwinClose(resolver.CloseNoCancel, fd)
}

//export guarded_close_np
func guarded_close_np(fd C.int, guard unsafe.Pointer) C.int {
	return darwinClose(resolver.GuardedCloseNP, fd)
}

//export scope_close_nocancel
func scope_close_nocancel(fd C.int) C.int {
	return darwinClose(resolver.CloseNoCancelDollar, fd)
}

//export scope_accept_nocancel
func scope_accept_nocancel(fd C.int, addr unsafe.Pointer, addrlen *C.uint) C.int {
	sh := current()
	p, ok := resolved(sh, resolver.AcceptNoCancelDollar)
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

func darwinClose(symbol string, fd C.int) C.int {
	sh := current()
	p, ok := resolved(sh, symbol)
	if !ok {
		return -1
	}
	rc := C.scope_call_close(p, fd)
	if rc == 0 {
		sh.state.OnClose(int(fd))
	}
	return rc
}
