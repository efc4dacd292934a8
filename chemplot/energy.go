/*
 * energy.go, part of goconf.
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

package chemplot

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot/plotter"
)

//EnergyHistogram plots the distribution of energies, in kcal/mol, with the given number
//of bins (a default if bins<=0), and saves it to filename. NaN energies are skipped.
func EnergyHistogram(energies []float64, bins int, title, filename string) error {
	vals := make(plotter.Values, 0, len(energies))
	for _, e := range energies {
		if !math.IsNaN(e) && !math.IsInf(e, 0) {
			vals = append(vals, e)
		}
	}
	if len(vals) == 0 {
		return ErrNoData
	}
	if bins <= 0 {
		bins = min(max(len(vals)/4, 1), 30)
	}
	p := basicPlot(title, "Energy (kcal/mol)", "Molecules")
	h, err := plotter.NewHist(vals, bins)
	if err != nil {
		return err
	}
	h.FillColor = colors(0, 1)
	p.Add(h)
	return save(p, filename)
}

//Relative returns the energies minus the lowest one. NaN values stay NaN.
func Relative(energies []float64) []float64 {
	var finite []float64
	for _, e := range energies {
		if !math.IsNaN(e) {
			finite = append(finite, e)
		}
	}
	ret := make([]float64, len(energies))
	if len(finite) == 0 {
		copy(ret, energies)
		return ret
	}
	low := floats.Min(finite)
	for i, e := range energies {
		ret[i] = e - low
	}
	return ret
}

//ConformerEnergies plots, for each set of energies in sets (one set per molecule),
//the energy of each conformer relative to the lowest of the set, against the position
//of the conformer in the set. Each set gets its own color.
func ConformerEnergies(sets [][]float64, title, filename string) error {
	p := basicPlot(title, "Conformer", "Relative energy (kcal/mol)")
	points := 0
	for key, set := range sets {
		rel := Relative(set)
		pts := make(plotter.XYs, 0, len(rel))
		for i, e := range rel {
			if math.IsNaN(e) {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(i), Y: e})
		}
		if len(pts) == 0 {
			continue
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		s.GlyphStyle.Color = colors(key, len(sets))
		p.Add(s)
		points += len(pts)
	}
	if points == 0 {
		return ErrNoData
	}
	return save(p, filename)
}
