/*
 * settings.go, part of goconf.
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

package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/rmera/goconf/logging"
	"github.com/spf13/viper"
)

//EnvPrefix is the prefix of the environment variables that override the settings,
//for instance GOCONF_WORKERS or GOCONF_LOG_LEVEL.
const EnvPrefix = "GOCONF"

//Settings are the runtime settings of the command line program.
type Settings struct {
	Log          logging.LogConfig `mapstructure:"log"`
	Workers      int               `mapstructure:"workers"`
	ProgressStep int               `mapstructure:"progress_step"`
	RowTimeout   time.Duration     `mapstructure:"row_timeout"`
	MetricsAddr  string            `mapstructure:"metrics_addr"`
}

//NewViper returns a viper instance with the defaults of every setting, reading the
//environment.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_paths", []string{"stderr"})
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("progress_step", 16)
	v.SetDefault("row_timeout", time.Duration(0))
	v.SetDefault("metrics_addr", "")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

//LoadSettings reads the settings file (if not empty) into v, and returns the settings,
//with environment variables and flags bound to v taking precedence.
func LoadSettings(v *viper.Viper, file string) (*Settings, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading settings: %w", err)
		}
	}
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("config: decoding settings: %w", err)
	}
	if s.Workers <= 0 {
		return nil, errors.New("config: workers must be positive")
	}
	return &s, nil
}
