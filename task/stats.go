/*
 * stats.go, part of goconf.
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

package task

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//EnergyStats summarizes a set of energies, in kcal/mol.
//All the values are NaN if the set is empty.
type EnergyStats struct {
	N      int
	Mean   float64
	StdDev float64
	Median float64
	Min    float64
	Max    float64
}

//Stats returns the summary of energies.
func Stats(energies []float64) EnergyStats {
	nan := math.NaN()
	s := EnergyStats{N: len(energies), Mean: nan, StdDev: nan, Median: nan, Min: nan, Max: nan}
	if len(energies) == 0 {
		return s
	}
	sorted := append([]float64(nil), energies...)
	sort.Float64s(sorted)
	s.Min = floats.Min(sorted)
	s.Max = floats.Max(sorted)
	s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	if len(sorted) == 1 {
		s.Mean, s.StdDev = sorted[0], 0
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(sorted, nil)
	return s
}
