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

// Package replay implements scopectl's "replay" command: it reads back
// whatever one of the Output sinks wrote (a StatsD line stream, or
// newline-delimited JSON events) and prints each record in a human-readable
// form, entirely offline.
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sabouaram/scopeagent/formatter"
)

// NewCommand builds the "replay" subcommand.
func NewCommand() *cobra.Command {
	var (
		format string
		file   string
	)

	cmd := &cobra.Command{
		Use:     "replay",
		Example: "scopectl replay --format statsd --file ./out.statsd",
		Short:   "Parse and print a captured StatsD or JSON event stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := cmd.InOrStdin()
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			switch format {
			case "statsd":
				return replayStatsD(cmd.OutOrStdout(), r)
			case "json":
				return replayJSON(cmd.OutOrStdout(), r)
			default:
				return fmt.Errorf("replay: unknown --format %q (want statsd or json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "statsd", "input line format: statsd or json")
	cmd.Flags().StringVarP(&file, "file", "f", "", "input file (defaults to stdin)")
	return cmd
}

func replayStatsD(w io.Writer, r io.Reader) error {
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := sc.Text()
		ev, ok := formatter.ParseLine(line)
		if !ok {
			fmt.Fprintf(w, "%d: unparsable: %s\n", n, line)
			continue
		}
		fmt.Fprintf(w, "%d: %s=%d sem=%d fields=%v\n", n, ev.Name, ev.Value, ev.Sem, ev.Fields)
	}
	return sc.Err()
}

func replayJSON(w io.Writer, r io.Reader) error {
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := sc.Bytes()
		var record map[string]interface{}
		if err := json.Unmarshal(line, &record); err != nil {
			fmt.Fprintf(w, "%d: unparsable: %s\n", n, sc.Text())
			continue
		}
		pretty, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d:\n%s\n", n, pretty)
	}
	return sc.Err()
}
