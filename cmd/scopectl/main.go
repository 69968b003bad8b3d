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

// Command scopectl is the offline companion to the injected shim: it never
// loads internal/intercept or any cgo symbol, and only ever reads files the
// shim already produced or will consume — a config snapshot, or a stream of
// StatsD/JSON lines one of the Output sinks wrote out.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sabouaram/scopeagent/cmd/scopectl/internal/replay"
	"github.com/sabouaram/scopeagent/config"
	"github.com/sabouaram/scopeagent/logger"
)

func main() {
	lg := logger.Init(logger.Options{Level: logrus.InfoLevel})
	defer lg.Close()
	logger.SetSPF13Level(lg, logrus.InfoLevel)

	root := &cobra.Command{
		Use:   "scopectl",
		Short: "Offline diagnostics for the scopeagent shim",
		Long: "scopectl inspects a scopeagent.yml configuration snapshot and replays " +
			"StatsD or JSON event lines the shim's Output sinks produced, without " +
			"ever loading the interposition core itself.",
	}

	root.AddCommand(newConfigCmd())
	root.AddCommand(replay.NewCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect a scopeagent configuration file",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigValidateCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:     "show",
		Example: "scopectl config show --file /etc/scopeagent/scopeagent.yml",
		Short:   "Resolve and print the configuration snapshot the shim would load",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := path
			if p == "" {
				p = config.Path(config.CfgFileName)
			}

			snap, err := config.Read(p)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "config.read %s failed, falling back to defaults: %s\n", p, err)
				snap = config.Default()
			}

			fmt.Fprintf(cmd.OutOrStdout(), "path:          %s\n", p)
			fmt.Fprintf(cmd.OutOrStdout(), "period:        %ds (%s)\n", snap.Period, snap.OutPeriod())
			fmt.Fprintf(cmd.OutOrStdout(), "delay_start:   %ds (%s)\n", snap.DelayStart, snap.DelayStartDuration())
			fmt.Fprintf(cmd.OutOrStdout(), "event_rx_tx:   %t\n", snap.EventRxTx)
			fmt.Fprintf(cmd.OutOrStdout(), "log_data_path: %t\n", snap.LogDataPath)
			fmt.Fprintf(cmd.OutOrStdout(), "verbose:       %t\n", snap.Verbose)
			fmt.Fprintf(cmd.OutOrStdout(), "output_kind:   %s\n", snap.OutputKind)
			fmt.Fprintf(cmd.OutOrStdout(), "output_dest:   %s\n", snap.OutputDest)
			fmt.Fprintf(cmd.OutOrStdout(), "log_file_path: %s\n", snap.LogFilePath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "config file path (defaults to Config.path's search order)")
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:     "validate",
		Example: "scopectl config validate --file ./scopeagent.yml",
		Short:   "Validate a configuration file without loading the shim",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := path
			if p == "" {
				p = config.Path(config.CfgFileName)
			}
			if _, err := config.Read(p); err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", p)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "config file path (defaults to Config.path's search order)")
	return cmd
}
