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

// Package logger is the shim's own diagnostic log: a logrus.Logger with
// pluggable hooks that the core calls into whenever a shim-side failure
// needs to be recorded. All such failures route through here and never
// surface to the host process.
package logger

import (
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/sirupsen/logrus"
)

// Options configures the two hooks this package wires by default.
type Options struct {
	// Level is the minimum level that reaches either hook.
	Level logrus.Level

	// DisableColor forces plain os.Stdout/os.Stderr instead of the
	// colorable writer.
	DisableColor bool

	// FilePath, when non-empty, adds a second hook writing plain-text lines
	// to that path (opened append-only, created if missing).
	FilePath string
}

// Log is the concrete Log collaborator. The zero value is not usable; build
// one with Init.
type Log struct {
	l *logrus.Logger
	f *os.File
}

// Init builds a Log. It never fails in a way that blocks the library
// constructor: a bad FilePath degrades to console-only logging.
func Init(opt Options) *Log {
	l := logrus.New()
	l.SetLevel(opt.Level)
	l.SetOutput(io.Discard) // every line is routed through hooks below

	var out io.Writer = os.Stdout
	if !opt.DisableColor {
		out = colorable.NewColorableStdout()
	}
	l.AddHook(newStdHook(out, logrus.AllLevels))

	lg := &Log{l: l}

	if opt.FilePath != "" {
		f, err := os.OpenFile(opt.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			lg.f = f
			l.AddHook(newFileHook(f, logrus.AllLevels))
		}
	}

	return lg
}

// Send records a best-effort, leveled line. The core never checks a return
// value here — a logging failure must not become a second failure to
// handle.
func (lg *Log) Send(level logrus.Level, line string, fields logrus.Fields) {
	if lg == nil || lg.l == nil {
		return
	}
	lg.l.WithFields(fields).Log(level, line)
}

// Logrus exposes the underlying *logrus.Logger for the hclog bridge and for
// wiring a cobra command's verbose flag straight to SetLevel.
func (lg *Log) Logrus() *logrus.Logger {
	return lg.l
}

// Close releases the file hook, if any. Safe to call on a console-only Log.
func (lg *Log) Close() error {
	if lg == nil || lg.f == nil {
		return nil
	}
	return lg.f.Close()
}
