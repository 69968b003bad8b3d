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

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sabouaram/scopeagent/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestRead_ValidFile(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, config.CfgFileName, `
period: 15
delay_start: 3
event_rx_tx: true
verbose: true
output_kind: udp
output_dest: "127.0.0.1:8125"
`)

	snap, err := config.Read(p)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if snap.Period != 15 || snap.DelayStart != 3 || !snap.EventRxTx {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.OutPeriod().Seconds() != 15 {
		t.Fatalf("OutPeriod() = %v", snap.OutPeriod())
	}
}

func TestRead_MissingFile(t *testing.T) {
	if _, err := config.Read(filepath.Join(t.TempDir(), "does-not-exist.yml")); err == nil {
		t.Fatalf("expected an error for a missing config file")
	}
}

func TestRead_InvalidOutputKindFailsValidation(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, config.CfgFileName, `
period: 15
output_kind: carrier-pigeon
output_dest: "127.0.0.1:8125"
`)
	if _, err := config.Read(p); err == nil {
		t.Fatalf("expected validation to reject an unknown output_kind")
	}
}

func TestDefault_IsSelfConsistent(t *testing.T) {
	snap := config.Default()
	if snap.Period <= 0 {
		t.Fatalf("Default().Period must be positive")
	}
	if snap.OutputKind != config.OutputUDP {
		t.Fatalf("Default().OutputKind = %v", snap.OutputKind)
	}
}

func TestPath_EnvOverride(t *testing.T) {
	t.Setenv("SCOPEAGENT_CFG", "/tmp/custom-scopeagent.yml")
	if got := config.Path(config.CfgFileName); got != "/tmp/custom-scopeagent.yml" {
		t.Fatalf("Path() = %q", got)
	}
}
