/*
 * options.go, part of goconf.
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

package batch

import (
	"runtime"
	"time"
)

//Options contains the settings of a Processor.
type Options struct {
	cpus         int
	progressStep int
	rowTimeout   time.Duration
}

//DefaultOptions returns options using all the CPUs, reporting progress every 16 rows,
//without row timeout.
func DefaultOptions() *Options {
	return &Options{cpus: runtime.NumCPU(), progressStep: 16}
}

//Cpus sets the maximum number of workers, if a positive number is given, and returns
//the current value.
func (O *Options) Cpus(n ...int) int {
	if len(n) > 0 && n[0] > 0 {
		O.cpus = n[0]
	}
	return O.cpus
}

//ProgressStep sets how many rows are completed between progress reports, if a value
//is given, and returns the current value. With a step of 0 or less, every row is
//reported as an increment of one.
func (O *Options) ProgressStep(n ...int) int {
	if len(n) > 0 {
		O.progressStep = n[0]
	}
	return O.progressStep
}

//RowTimeout sets the deadline given to each row, if a value is given, and returns the
//current one. Zero means no deadline. The deadline is only honored by row functions
//that watch their context.
func (O *Options) RowTimeout(d ...time.Duration) time.Duration {
	if len(d) > 0 && d[0] >= 0 {
		O.rowTimeout = d[0]
	}
	return O.rowTimeout
}
