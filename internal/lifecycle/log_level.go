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

package lifecycle

import (
	"github.com/sirupsen/logrus"

	"github.com/sabouaram/scopeagent/config"
	"github.com/sabouaram/scopeagent/internal/scopeerr"
)

// logLevel picks the shim's own log verbosity from the config snapshot's
// Verbose flag — the same knob that gates StatsD label verbosity.
func logLevel(cfg config.Snapshot) logrus.Level {
	if cfg.Verbose {
		return logrus.DebugLevel
	}
	return logrus.InfoLevel
}

// logrusLevelFor maps a shim-internal error code to a log level.
// ConfigMissing is expected during normal operation (no config file
// deployed yet) and logs at Info; everything else is a Warn — never an
// Error, since none of these ever abort the shim or reach the host.
func logrusLevelFor(code scopeerr.Code) logrus.Level {
	if code == scopeerr.ConfigMissing {
		return logrus.InfoLevel
	}
	return logrus.WarnLevel
}
