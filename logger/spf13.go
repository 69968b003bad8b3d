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
	"bytes"
	"io"

	"github.com/sirupsen/logrus"
	jww "github.com/spf13/jwalterweatherman"
)

// jwwWriter routes jwalterweatherman output lines into a Log at a fixed
// level.
type jwwWriter struct {
	l     *Log
	level logrus.Level
}

func (w jwwWriter) Write(p []byte) (int, error) {
	w.l.Send(w.level, string(bytes.TrimRight(p, "\n")), nil)
	return len(p), nil
}

// SetSPF13Level configures the global jwalterweatherman logger (the
// logging library spf13 projects such as Cobra and Viper share) to use lg
// as its output destination, so the config loader's and scopectl's
// internal chatter lands in the same sink as everything else instead of
// leaking onto the host's stdout.
//
// Passing a nil lg silences jww entirely.
func SetSPF13Level(lg *Log, lvl logrus.Level) {
	if lg == nil {
		jww.SetStdoutOutput(io.Discard)
		jww.SetLogOutput(io.Discard)
		jww.SetLogThreshold(jww.LevelCritical)
		return
	}

	// jww's "stdout" stream carries user-facing notes, its "log" stream
	// the verbose trace; both route through Send so hooks decide where
	// they land.
	jww.SetStdoutOutput(jwwWriter{l: lg, level: logrus.InfoLevel})
	jww.SetLogOutput(jwwWriter{l: lg, level: logrus.DebugLevel})

	switch lvl {
	case logrus.TraceLevel, logrus.DebugLevel:
		jww.SetLogThreshold(jww.LevelTrace)
	case logrus.InfoLevel:
		jww.SetLogThreshold(jww.LevelInfo)
	case logrus.WarnLevel:
		jww.SetLogThreshold(jww.LevelWarn)
	case logrus.ErrorLevel:
		jww.SetLogThreshold(jww.LevelError)
	case logrus.FatalLevel:
		jww.SetLogThreshold(jww.LevelFatal)
	default:
		jww.SetLogThreshold(jww.LevelCritical)
	}
}
