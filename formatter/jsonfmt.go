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

package formatter

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// JSONEvent is a structured event message: a channel identifier (UID) the
// caller owns the lifetime/uniqueness of, a raw payload with an explicit
// size (so embedded NULs survive), and the source/host/cmd/proc labels
// used to build the id field.
type JSONEvent struct {
	Src      string
	Host     string
	Data     []byte
	DataSize int // 0 => Data is treated as a NUL-terminated C string
	Ts       float64
	Cmd      string
	Proc     string
	UID      uint64 // channel identifier, rendered as _channel
}

// jsonWire is marshaled with encoding/json so that field order (Go
// preserves struct declaration order, unlike map iteration) is stable on
// the wire, and so that embedded NULs and non-ASCII text are
// escaped/preserved the way encoding/json already does.
type jsonWire struct {
	Ty      string  `json:"ty"`
	ID      string  `json:"id"`
	Time    float64 `json:"_time"`
	Source  string  `json:"source"`
	Raw     string  `json:"_raw"`
	Host    string  `json:"host"`
	Channel string  `json:"_channel"`
}

// rawString applies the DataSize contract: a DataSize of 0 treats Data as
// NUL-terminated; Data == nil yields "".
func rawString(data []byte, dataSize int) string {
	if data == nil {
		return ""
	}
	if dataSize == 0 {
		if i := bytes.IndexByte(data, 0); i >= 0 {
			return string(data[:i])
		}
		return string(data)
	}
	n := dataSize
	if n > len(data) {
		n = len(data)
	}
	return string(data[:n])
}

// JSON renders a JSONEvent to its single-line ND-JSON wire form.
func JSON(e JSONEvent) ([]byte, error) {
	w := jsonWire{
		Ty:      "ev",
		ID:      e.Host + "-" + e.Proc + "-" + e.Cmd,
		Time:    e.Ts,
		Source:  e.Src,
		Raw:     rawString(e.Data, e.DataSize),
		Host:    e.Host,
		Channel: strconv.FormatUint(e.UID, 10),
	}

	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(w); err != nil {
		return nil, err
	}
	// json.Encoder.Encode appends a trailing newline; the ND-JSON contract
	// wants exactly one line with no trailing newline in the comparison
	// fixtures.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
