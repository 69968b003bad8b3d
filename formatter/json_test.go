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

package formatter_test

import (
	"strings"
	"testing"

	. "github.com/sabouaram/scopeagent/formatter"
)

const testUID = 0xCAFEBABEDEADBEEF

func TestJSON_StringValue(t *testing.T) {
	e := JSONEvent{
		Src:      "stdin",
		Host:     "earl",
		Data:     []byte("поспехаў"),
		DataSize: len("поспехаў"),
		Ts:       1573058085.991,
		Cmd:      "cmd",
		Proc:     "formattest",
		UID:      testUID,
	}
	got, err := JSON(e)
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	want := `{"ty":"ev","id":"earl-formattest-cmd","_time":1573058085.991,"source":"stdin","_raw":"поспехаў","host":"earl","_channel":"14627333968688430831"}`
	if string(got) != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

// buildEmbeddedNulBuf constructs the fixture payload with NULs at the two
// space positions following "mund" and "nuk".
func buildEmbeddedNulBuf() []byte {
	s := "Une mund te ha qelq dhe nuk me gjen gje"
	buf := []byte(s)
	i := strings.Index(s, "mund") + len("mund")
	j := strings.Index(s, "nuk") + len("nuk")
	buf[i] = 0
	buf[j] = 0
	return buf
}

func TestJSON_EmbeddedNulls(t *testing.T) {
	buf := buildEmbeddedNulBuf()

	e := JSONEvent{
		Src:      "stdout",
		Host:     "earl",
		Data:     buf,
		DataSize: len(buf),
		Ts:       1573058085.001,
		UID:      testUID,
	}
	got, err := JSON(e)
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	want := `{"ty":"ev","id":"earl--","_time":1573058085.001,"source":"stdout","_raw":"Une mund\u0000te ha qelq dhe nuk\u0000me gjen gje","host":"earl","_channel":"14627333968688430831"}`
	if string(got) != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

func TestJSON_DataSizeZeroActsLikeNULTerminated(t *testing.T) {
	buf := buildEmbeddedNulBuf()

	e := JSONEvent{
		Src:  "stdout",
		Host: "earl",
		Data: buf,
		// DataSize left at zero: Data is treated as NUL-terminated.
		Ts:  1573058085.001,
		UID: testUID,
	}
	got, err := JSON(e)
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	want := `{"ty":"ev","id":"earl--","_time":1573058085.001,"source":"stdout","_raw":"Une mund","host":"earl","_channel":"14627333968688430831"}`
	if string(got) != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

func TestJSON_NilDataYieldsEmptyRaw(t *testing.T) {
	e := JSONEvent{
		Src:      "stdout",
		Host:     "earl",
		Data:     nil,
		DataSize: 29,
		Ts:       1573058085.001,
		UID:      testUID,
	}
	got, err := JSON(e)
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	want := `{"ty":"ev","id":"earl--","_time":1573058085.001,"source":"stdout","_raw":"","host":"earl","_channel":"14627333968688430831"}`
	if string(got) != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}
