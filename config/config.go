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

// Package config locates, reads and validates the agent's configuration
// file. Parsing is delegated to viper; validation to
// go-playground/validator; the output destination field accepts a
// hashicorp/go-sockaddr/template string so one config file can be deployed
// fleet-wide. A missing or invalid file never stops the library from
// loading — the constructor falls back to Default().
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	sockaddr "github.com/hashicorp/go-sockaddr/template"
	"github.com/spf13/viper"
	validator "github.com/go-playground/validator/v10"
)

// CfgFileName is the config file name the shim looks for in its search
// path.
const CfgFileName = "scopeagent.yml"

// OutputKind selects which Output implementation the Lifecycle wires up.
type OutputKind string

const (
	OutputUDP  OutputKind = "udp"
	OutputTCP  OutputKind = "tcp"
	OutputFile OutputKind = "file"
	OutputProm OutputKind = "prom"
)

// Snapshot is the immutable configuration snapshot read once at library
// load; nothing mutates it afterwards.
type Snapshot struct {
	// Period is the Periodic Reporter's sleep interval, in seconds.
	Period int `mapstructure:"period" validate:"required,gt=0"`

	// DelayStart, in seconds, is how long past load the deferred
	// thread-start gate waits before the first eligible close spawns the
	// Reporter.
	DelayStart int `mapstructure:"delay_start" validate:"gte=0"`

	// EventRxTx toggles per-call net.rx/net.tx emission on top of the
	// Reporter's periodic aggregate totals.
	EventRxTx bool `mapstructure:"event_rx_tx"`

	// LogDataPath is the log-data-path toggle; off by default. It is kept
	// in the snapshot and printed by scopectl, but the interceptors do not
	// read it: byte-event labels are the same whether it is set or not.
	LogDataPath bool `mapstructure:"log_data_path"`

	// Verbose gates the formatter's field-label verbosity.
	Verbose bool `mapstructure:"verbose"`

	// OutputKind selects the Output sink.
	OutputKind OutputKind `mapstructure:"output_kind" validate:"required,oneof=udp tcp file prom"`

	// OutputDest is a hashicorp/go-sockaddr/template string resolved to a
	// concrete host:port (udp/tcp/prom) or filesystem path (file).
	OutputDest string `mapstructure:"output_dest" validate:"required"`

	// LogFilePath, when non-empty, adds a file hook to the shim's own Log.
	LogFilePath string `mapstructure:"log_file_path"`
}

// Default returns the built-in fallback snapshot used when Read fails: the
// library still loads, logging only to console, emitting over UDP to
// localhost at a conservative period.
func Default() Snapshot {
	return Snapshot{
		Period:     10,
		DelayStart: 5,
		EventRxTx:  false,
		OutputKind: OutputUDP,
		OutputDest: "127.0.0.1:8125",
	}
}

// Path resolves the configuration file location: $SCOPEAGENT_CFG if set,
// otherwise name searched in the current directory, then /etc/scopeagent.
func Path(name string) string {
	if p := os.Getenv("SCOPEAGENT_CFG"); p != "" {
		return p
	}
	if _, err := os.Stat(name); err == nil {
		return name
	}
	return filepath.Join("/etc/scopeagent", name)
}

// Read loads and validates the snapshot at path. A missing/unparsable file
// and a snapshot that fails validation are both reported the same way;
// callers fall back to Default either way.
func Read(path string) (Snapshot, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("period", 10)
	v.SetDefault("delay_start", 5)
	v.SetDefault("output_kind", string(OutputUDP))

	if err := v.ReadInConfig(); err != nil {
		return Snapshot{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var snap Snapshot
	if err := v.Unmarshal(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}

	dest, err := sockaddr.Parse(snap.OutputDest)
	if err == nil {
		snap.OutputDest = dest
	}
	// A template parse failure leaves OutputDest as the literal string from
	// the file, so a plain "host:port" (no template directives) still works.

	if err := validator.New().Struct(snap); err != nil {
		return Snapshot{}, fmt.Errorf("config: validate %s: %w", path, err)
	}

	return snap, nil
}

// OutPeriod is the reporting period as a time.Duration, the unit the
// periodic reporter sleeps in.
func (s Snapshot) OutPeriod() time.Duration {
	return time.Duration(s.Period) * time.Second
}

// DelayStartDuration is the DELAY_START threshold as a time.Duration.
func (s Snapshot) DelayStartDuration() time.Duration {
	return time.Duration(s.DelayStart) * time.Second
}

// Destroy releases the snapshot. It holds no resources of its own, so this
// is a no-op kept to mirror the consumed-interface contract explicitly.
func Destroy(Snapshot) {}
