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

package logger

import (
	"io"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

var levelColor = map[logrus.Level]*color.Color{
	logrus.DebugLevel: color.New(color.FgCyan),
	logrus.InfoLevel:  color.New(color.FgGreen),
	logrus.WarnLevel:  color.New(color.FgYellow),
	logrus.ErrorLevel: color.New(color.FgRed),
	logrus.FatalLevel: color.New(color.FgHiRed, color.Bold),
	logrus.PanicLevel: color.New(color.FgHiRed, color.Bold),
}

// stdHook writes colorized, single-line entries to a colorable writer
// (stdout/stderr). It never returns an error: a write failure here must not
// become a second source of errors for the shim to report.
type stdHook struct {
	w      io.Writer
	levels []logrus.Level
}

func newStdHook(w io.Writer, levels []logrus.Level) logrus.Hook {
	return &stdHook{w: w, levels: levels}
}

func (h *stdHook) Levels() []logrus.Level { return h.levels }

func (h *stdHook) Fire(e *logrus.Entry) error {
	c, ok := levelColor[e.Level]
	if !ok {
		c = color.New()
	}
	line, err := e.String()
	if err != nil {
		return nil
	}
	_, _ = c.Fprint(h.w, line)
	return nil
}

// fileHook writes plain (uncolored) lines via logrus's default text
// formatter to an already-open file.
type fileHook struct {
	w      io.Writer
	levels []logrus.Level
	fmt    logrus.Formatter
}

func newFileHook(w io.Writer, levels []logrus.Level) logrus.Hook {
	return &fileHook{w: w, levels: levels, fmt: &logrus.TextFormatter{DisableColors: true, FullTimestamp: true}}
}

func (h *fileHook) Levels() []logrus.Level { return h.levels }

func (h *fileHook) Fire(e *logrus.Entry) error {
	b, err := h.fmt.Format(e)
	if err != nil {
		return nil
	}
	_, _ = h.w.Write(b)
	return nil
}
