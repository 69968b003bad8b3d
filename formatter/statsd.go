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
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// StatsD renders metric.Event values to the StatsD wire form. A zero value
// is ready to use (no prefix, no length cap, no field filter, verbosity
// off).
type StatsD struct {
	// Prefix is prepended to every metric name.
	Prefix string

	// MaxLen caps the rendered line length, trailing newline included. 0
	// means unbounded. When the full line would exceed MaxLen, trailing
	// fields are dropped one at a time (name/value/type suffix are never
	// touched); if it still doesn't fit with zero fields, Format returns
	// ok=false.
	MaxLen int

	// Verbose gates whether an event's label set is rendered at all. The
	// deployed default is low verbosity (labels suppressed) to keep wire
	// volume down.
	Verbose bool

	// FieldFilter, when set, keeps only fields whose name matches it.
	FieldFilter *regexp.Regexp

	// CustomTags are static tags applied to every line in addition to the
	// event's own fields.
	CustomTags []Field
}

func suffixFor(s Semantic) (string, bool) {
	switch s {
	case Current:
		return "g", true
	case Delta:
		return "c", true
	case DeltaMs:
		return "ms", true
	case Histogram:
		return "h", true
	case Set:
		return "s", true
	default:
		return "", false
	}
}

// Format implements metric.Formatter.
func (f *StatsD) Format(e Event) ([]byte, bool) {
	suffix, ok := suffixFor(e.Sem)
	if !ok {
		return nil, false
	}

	tags := f.tags(e)
	head := fmt.Sprintf("%s%s:%d|%s", f.Prefix, e.Name, e.Value, suffix)

	for n := len(tags); n >= 0; n-- {
		line := render(head, tags[:n])
		if f.MaxLen <= 0 || len(line) <= f.MaxLen {
			return []byte(line), true
		}
	}
	return nil, false
}

func (f *StatsD) tags(e Event) []Field {
	var out []Field
	out = append(out, f.CustomTags...)

	if !f.Verbose {
		return out
	}

	for _, fld := range e.Fields {
		if f.FieldFilter != nil && !f.FieldFilter.MatchString(fld.Name) {
			continue
		}
		out = append(out, fld)
	}
	return out
}

func render(head string, tags []Field) string {
	if len(tags) == 0 {
		return head + "\n"
	}
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = t.Name + ":" + t.Value
	}
	return head + "|#" + strings.Join(parts, ",") + "\n"
}

// ParseLine parses a line previously produced by Format with an empty
// Prefix back into an Event. Used by cmd/scopectl for offline replay.
func ParseLine(line string) (Event, bool) {
	line = strings.TrimSuffix(line, "\n")

	var head, tail string
	if i := strings.Index(line, "|#"); i >= 0 {
		head = line[:i]
		tail = line[i+2:]
	} else {
		head = line
	}

	parts := strings.SplitN(head, "|", 2)
	if len(parts) != 2 {
		return Event{}, false
	}
	nameValue, typeSuffix := parts[0], parts[1]

	ci := strings.LastIndex(nameValue, ":")
	if ci < 0 {
		return Event{}, false
	}
	name := nameValue[:ci]
	value, err := strconv.ParseInt(nameValue[ci+1:], 10, 64)
	if err != nil {
		return Event{}, false
	}

	var sem Semantic
	switch typeSuffix {
	case "g":
		sem = Current
	case "c":
		sem = Delta
	case "ms":
		sem = DeltaMs
	case "h":
		sem = Histogram
	case "s":
		sem = Set
	default:
		return Event{}, false
	}

	ev := Event{Name: name, Value: value, Sem: sem}
	if tail != "" {
		for _, kv := range strings.Split(tail, ",") {
			ci := strings.Index(kv, ":")
			if ci < 0 {
				continue
			}
			ev.Fields = append(ev.Fields, Field{Name: kv[:ci], Value: kv[ci+1:]})
		}
	}
	return ev, true
}
