/*
 * root.go, part of goconf.
 *
 *
 * Copyright 2021 Raul Mera rauldotmeraatusachdotcl
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 *
 *
 */

package main

import (
	"fmt"
	"time"

	"github.com/rmera/goconf/config"
	"github.com/rmera/goconf/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

//app holds what the commands share once the settings are loaded.
type app struct {
	v            *viper.Viper
	settingsFile string
	settings     *config.Settings
	log          logging.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{v: config.NewViper()}
	cmd := &cobra.Command{
		Use:   "goconf",
		Short: "Conformer generation for tables of molecules",
		Long: "goconf adds 3D conformers to the molecules of a tab-separated table.\n" +
			"Each row is processed independently, with a pool of workers. The conformers\n" +
			"are minimized with a small force field and the redundant ones are dropped.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := cmd.PersistentFlags()
	pf.StringVarP(&a.settingsFile, "settings", "s", "", "settings file (toml, yaml or json)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "json", "log format (json, console)")
	pf.IntP("workers", "w", 0, "number of workers (default: number of CPUs)")
	pf.Duration("row-timeout", 0, "maximum time per row, 0 for no limit")
	pf.Int("progress-step", 16, "rows between progress reports")
	for key, flag := range map[string]string{
		"log.level":     "log-level",
		"log.format":    "log-format",
		"workers":       "workers",
		"row_timeout":   "row-timeout",
		"progress_step": "progress-step",
	} {
		//the flags were just defined, binding can't fail.
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}
	cmd.AddCommand(
		newRunCommand(a),
		newIDCodeCommand(a),
		newPlotCommand(a),
		newVersionCommand(),
	)
	return cmd
}

func (a *app) init() error {
	s, err := config.LoadSettings(a.v, a.settingsFile)
	if err != nil {
		return err
	}
	log, err := logging.NewLogger(s.Log)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	a.settings = s
	a.log = log
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "goconf %s\ncommit %s\nbuilt %s\n", version, commit, buildDate)
		},
	}
}

//elapsed formats d for the reports.
func elapsed(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
