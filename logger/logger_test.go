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

package logger_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/sabouaram/scopeagent/logger"
)

func TestInit_ConsoleOnly(t *testing.T) {
	lg := logger.Init(logger.Options{Level: logrus.DebugLevel, DisableColor: true})
	defer lg.Close()

	lg.Send(logrus.InfoLevel, "hello", logrus.Fields{"k": "v"})
}

func TestInit_WithFileHook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shim.log")
	lg := logger.Init(logger.Options{Level: logrus.InfoLevel, DisableColor: true, FilePath: path})
	defer lg.Close()

	lg.Send(logrus.ErrorLevel, "boom", nil)
	_ = lg.Close()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(b) == 0 {
		t.Fatalf("expected file hook to have written something")
	}
}

func TestInit_BadFilePathDegradesToConsole(t *testing.T) {
	lg := logger.Init(logger.Options{Level: logrus.InfoLevel, DisableColor: true, FilePath: "/nonexistent-dir-xyz/shim.log"})
	defer lg.Close()

	// Must not panic even though the file hook failed to install.
	lg.Send(logrus.InfoLevel, "still alive", nil)
}

func TestSetSPF13Level_RoutesJWWOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shim.log")
	lg := logger.Init(logger.Options{Level: logrus.DebugLevel, DisableColor: true, FilePath: path})

	logger.SetSPF13Level(lg, logrus.DebugLevel)
	defer logger.SetSPF13Level(nil, logrus.InfoLevel)

	jww.INFO.Println("hello from jww")

	_ = lg.Close()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(b), "hello from jww") {
		t.Fatalf("expected jww output to route into the file hook, got %q", b)
	}
}

func TestSetSPF13Level_NilSilences(t *testing.T) {
	logger.SetSPF13Level(nil, logrus.InfoLevel)

	// Must not panic, and nothing should reach a sink.
	jww.WARN.Println("dropped")
}

func TestAsHCLog_BridgesLevels(t *testing.T) {
	lg := logger.Init(logger.Options{Level: logrus.DebugLevel, DisableColor: true})
	defer lg.Close()

	hc := logger.AsHCLog(lg, "scopeagent")
	hc.Info("hello from hclog", "key", "value")
	hc.Named("sub").Warn("nested")

	if hc.Name() != "scopeagent" {
		t.Fatalf("Name() = %q", hc.Name())
	}
}
