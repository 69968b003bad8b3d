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
	"log"

	"github.com/hashicorp/go-hclog"
	"github.com/sirupsen/logrus"
)

// hcBridge adapts *Log to hclog.Logger, so a host process that already
// plumbs hclog through its own tooling (common in HashiCorp-adjacent
// environments) can absorb the shim's diagnostics without a second sink.
type hcBridge struct {
	l    *Log
	name string
}

// AsHCLog wraps lg as an hclog.Logger.
func AsHCLog(lg *Log, name string) hclog.Logger {
	return &hcBridge{l: lg, name: name}
}

func (h *hcBridge) fields(args []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(args); i += 2 {
		if k, ok := args[i].(string); ok {
			f[k] = args[i+1]
		}
	}
	return f
}

func (h *hcBridge) Log(level hclog.Level, msg string, args ...interface{}) {
	switch level {
	case hclog.Trace, hclog.Debug:
		h.Debug(msg, args...)
	case hclog.Info:
		h.Info(msg, args...)
	case hclog.Warn:
		h.Warn(msg, args...)
	case hclog.Error:
		h.Error(msg, args...)
	}
}

func (h *hcBridge) Trace(msg string, args ...interface{}) { h.Debug(msg, args...) }

func (h *hcBridge) Debug(msg string, args ...interface{}) {
	h.l.Send(logrus.DebugLevel, msg, h.fields(args))
}

func (h *hcBridge) Info(msg string, args ...interface{}) {
	h.l.Send(logrus.InfoLevel, msg, h.fields(args))
}

func (h *hcBridge) Warn(msg string, args ...interface{}) {
	h.l.Send(logrus.WarnLevel, msg, h.fields(args))
}

func (h *hcBridge) Error(msg string, args ...interface{}) {
	h.l.Send(logrus.ErrorLevel, msg, h.fields(args))
}

func (h *hcBridge) IsTrace() bool { return true }
func (h *hcBridge) IsDebug() bool { return true }
func (h *hcBridge) IsInfo() bool  { return true }
func (h *hcBridge) IsWarn() bool  { return true }
func (h *hcBridge) IsError() bool { return true }

func (h *hcBridge) ImpliedArgs() []interface{} { return nil }

func (h *hcBridge) With(args ...interface{}) hclog.Logger { return h }

func (h *hcBridge) Name() string { return h.name }

func (h *hcBridge) Named(name string) hclog.Logger {
	return &hcBridge{l: h.l, name: h.name + "." + name}
}

func (h *hcBridge) ResetNamed(name string) hclog.Logger {
	return &hcBridge{l: h.l, name: name}
}

func (h *hcBridge) SetLevel(hclog.Level) {}

func (h *hcBridge) GetLevel() hclog.Level { return hclog.Info }

func (h *hcBridge) StandardLogger(*hclog.StandardLoggerOptions) *log.Logger {
	return log.New(io.Discard, "", 0)
}

func (h *hcBridge) StandardWriter(*hclog.StandardLoggerOptions) io.Writer {
	return io.Discard
}
