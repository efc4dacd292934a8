/*
 * torsions.go, part of goconf.
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
	"fmt"

	chem "github.com/rmera/goconf"
	"github.com/rmera/goconf/torsion"
	"gonum.org/v1/plot/plotter"
)

//TorsionPairs returns, for each conformer in confs, the values in degrees of the torsions
//t1 and t2 of the topology top.
func TorsionPairs(top *chem.Topology, confs []*chem.Conformer, t1, t2 torsion.Torsion) ([][]float64, error) {
	if top == nil || len(confs) == 0 {
		return nil, ErrNoData
	}
	ret := make([][]float64, 0, len(confs))
	for i, c := range confs {
		if c.Coords.NVecs() != top.Len() {
			return nil, fmt.Errorf("chemplot: conformer %d has %d atoms, the topology %d", i, c.Coords.NVecs(), top.Len())
		}
		mol := &chem.Molecule{Topology: top, Coords: c.Coords}
		ret = append(ret, []float64{
			chem.MolDihedral(mol, t1.A, t1.B, t1.C, t1.D) / chem.Deg2Rad,
			chem.MolDihedral(mol, t2.A, t2.B, t2.C, t2.D) / chem.Deg2Rad,
		})
	}
	return ret, nil
}

//TorsionMap plots the pairs of torsions in data, in degrees, one point per conformer,
//as in a Ramachandran plot. The points with the indexes in tag (at most 4) are
//highlighted with different shapes.
func TorsionMap(data [][]float64, tag []int, title, filename string) error {
	if len(data) == 0 {
		return ErrNoData
	}
	p := basicPlot(title, "Torsion 1 (deg)", "Torsion 2 (deg)")
	p.X.Min, p.X.Max = -180, 180
	p.Y.Min, p.Y.Max = -180, 180
	temp := make(plotter.XYs, 1)
	var tagged int
	for key, val := range data {
		if len(val) < 2 {
			return fmt.Errorf("chemplot: point %d has %d values, 2 needed", key, len(val))
		}
		temp[0].X = val[0]
		temp[0].Y = val[1]
		s, err := plotter.NewScatter(temp)
		if err != nil {
			return err
		}
		if isInInt(tag, key) {
			//the error only means the point will not be highlighted.
			s.GlyphStyle.Shape, _ = getShape(tagged)
			tagged++
		}
		s.GlyphStyle.Color = colors(key, len(data))
		p.Add(s)
	}
	return save(p, filename)
}
