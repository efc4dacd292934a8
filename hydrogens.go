/*
 * hydrogens.go, part of goconf.
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

package chem

import (
	"math"

	v3 "github.com/rmera/goconf/v3"
)

//bond length used to place new hydrogens, before any optimization.
const hbondLength = 1.09

//tetrahedral directions, used for atoms without heavy neighbors.
var tetrahedron = [4][3]float64{{1, 1, 1}, {1, -1, -1}, {-1, 1, -1}, {-1, -1, 1}}

func normalize(v [3]float64) ([3]float64, bool) {
	n := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if n < 1e-8 {
		return v, false
	}
	return [3]float64{v[0] / n, v[1] / n, v[2] / n}, true
}

func cross3(a, b [3]float64) [3]float64 {
	return [3]float64{a[1]*b[2] - a[2]*b[1], a[2]*b[0] - a[0]*b[2], a[0]*b[1] - a[1]*b[0]}
}

//perpendicular returns a unit vector perpendicular to the unit vector u.
func perpendicular(u [3]float64) [3]float64 {
	t := [3]float64{1, 0, 0}
	if math.Abs(u[0]) > 0.9 {
		t = [3]float64{0, 1, 0}
	}
	p, _ := normalize(cross3(u, t))
	return p
}

//hydrogenDirections returns n unit vectors pointing away from the neighbors of atom i.
//The directions make an angle of about 109.5 degrees with the existing bonds.
func hydrogenDirections(M *Molecule, i, n int) [][3]float64 {
	ret := make([][3]float64, 0, n)
	c := M.Coords.RawRowView(i)
	var sum [3]float64
	nb := M.Neighbors(i)
	bonds := make([][3]float64, 0, len(nb))
	for _, j := range nb {
		p := M.Coords.RawRowView(j)
		d, ok := normalize([3]float64{p[0] - c[0], p[1] - c[1], p[2] - c[2]})
		if !ok {
			continue
		}
		bonds = append(bonds, d)
		for k := range sum {
			sum[k] += d[k]
		}
	}
	u, ok := normalize([3]float64{-sum[0], -sum[1], -sum[2]})
	if len(nb) == 0 || !ok {
		if len(nb) == 0 {
			for k := 0; k < n; k++ {
				t, _ := normalize(tetrahedron[k%4])
				ret = append(ret, t)
			}
			return ret
		}
		u = perpendicular([3]float64{1, 0, 0})
	}
	if n == 1 {
		return append(ret, u)
	}
	//the new hydrogens are distributed on a cone around u
	theta := 70.5 * Deg2Rad
	if len(nb) >= 2 {
		theta = 54.75 * Deg2Rad
	}
	if M.Hybridization(i) == 2 {
		theta = 60 * Deg2Rad
	}
	p := perpendicular(u)
	if len(bonds) >= 2 {
		//hydrogens go out of the plane of the first two bonds
		if pn, ok := normalize(cross3(bonds[0], bonds[1])); ok {
			p = pn
		}
	}
	q := cross3(u, p)
	for k := 0; k < n; k++ {
		phi := 2 * math.Pi * float64(k) / float64(n)
		var d [3]float64
		for j := range d {
			d[j] = math.Cos(theta)*u[j] + math.Sin(theta)*(math.Cos(phi)*p[j]+math.Sin(phi)*q[j])
		}
		ret = append(ret, d)
	}
	return ret
}

//AddHydrogens turns the implicit hydrogens of M into explicit atoms, bonded to their
//parent atoms. If M has coordinates, the new hydrogens are placed at a typical bond
//length from their parents, pointing away from the other neighbors. Returns the number
//of hydrogens added.
func AddHydrogens(M *Molecule) int {
	added := 0
	n := M.Len()
	for i := 0; i < n; i++ {
		at := M.Atom(i)
		nh := at.ImplicitH
		if nh <= 0 {
			continue
		}
		dirs := hydrogenDirections(M, i, nh)
		c := M.Coords.RawRowView(i)
		origin := [3]float64{c[0], c[1], c[2]}
		for _, d := range dirs {
			h := M.AddAtomAt(&Atom{Symbol: "H"}, origin[0]+hbondLength*d[0], origin[1]+hbondLength*d[1], origin[2]+hbondLength*d[2])
			M.AddBond(i, h, 1) //the atoms are new, the bond can't be there already.
			added++
		}
		at.ImplicitH = 0
	}
	return added
}

//RemoveHydrogens deletes the explicit hydrogens bonded to exactly one heavy atom, adding them
//to the implicit hydrogen count of that atom.
func RemoveHydrogens(M *Molecule) int {
	removed := 0
	for i := M.Len() - 1; i >= 0; i-- {
		at := M.Atom(i)
		if at.Heavy() || len(at.Bonds) != 1 || at.Charge != 0 {
			continue
		}
		parent := at.Bonds[0].Cross(at)
		if !parent.Heavy() {
			continue
		}
		parent.ImplicitH++
		nc := v3.Zeros(M.Len() - 1)
		nc.DelVec(M.Coords, i)
		M.Coords = nc
		M.DelAtom(i)
		removed++
	}
	return removed
}
