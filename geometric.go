/*
 * geometric.go, part of goconf.
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
	"fmt"
	"math"

	v3 "github.com/rmera/goconf/v3"
)

//Conversion factors between degrees and radians.
const (
	Deg2Rad = math.Pi / 180.0
	Rad2Deg = 180.0 / math.Pi
)

func checkVec(point *v3.Matrix, number int) {
	if point == nil {
		panic(fmt.Sprintf("Vector %d is nil", number))
	}
	pr, pc := point.Dims()
	if pr != 1 || pc != 3 {
		panic(fmt.Sprintf("Vector %d has invalid shape", number))
	}
}

//Angle returns the angle between the vectors v1 and v2, in radians.
func Angle(v1, v2 *v3.Matrix) float64 {
	checkVec(v1, 1)
	checkVec(v2, 2)
	n := v1.Norm(2) * v2.Norm(2)
	if n == 0 {
		return 0
	}
	c := v1.Dot(v2) / n
	return math.Acos(math.Max(-1, math.Min(1, c)))
}

//Dihedral calculate the dihedral between the points a, b, c, d, where the first plane
//is defined by abc and the second by bcd. The result is in (-pi, pi].
func Dihedral(a, b, c, d *v3.Matrix) float64 {
	for number, point := range []*v3.Matrix{a, b, c, d} {
		checkVec(point, number)
	}
	//bma=b minus a
	bma := v3.Zeros(1)
	cmb := v3.Zeros(1)
	dmc := v3.Zeros(1)
	bmascaled := v3.Zeros(1)
	bma.Sub(b, a)
	cmb.Sub(c, b)
	dmc.Sub(d, c)
	bmascaled.Scale(cmb.Norm(2), bma)
	v1 := v3.Zeros(1)
	v2 := v3.Zeros(1)
	v1.Cross(bma, cmb)
	v2.Cross(cmb, dmc)
	first := bmascaled.Dot(v2)
	second := v1.Dot(v2)
	return math.Atan2(first, second)
}

//MolDihedral returns the dihedral angle defined by the atoms a, b, c and d of M.
func MolDihedral(M *Molecule, a, b, c, d int) float64 {
	return Dihedral(M.Coord(a), M.Coord(b), M.Coord(c), M.Coord(d))
}

//RotateAbout rotates, in place, the vectors of coords with indexes in torotate, by angle radians
//around the axis that goes from the point ax1 to the point ax2. The rotation follows the
//right-hand rule with the thumb pointing from ax1 to ax2 (Rodrigues' formula).
func RotateAbout(coords *v3.Matrix, ax1, ax2 *v3.Matrix, angle float64, torotate []int) error {
	o := ax1.RawRowView(0)
	e := ax2.RawRowView(0)
	k := [3]float64{e[0] - o[0], e[1] - o[1], e[2] - o[2]}
	n := math.Sqrt(k[0]*k[0] + k[1]*k[1] + k[2]*k[2])
	if n < 1e-8 {
		return newError("Rotation axis of zero length", "RotateAbout", true)
	}
	origin := [3]float64{o[0], o[1], o[2]} //the axis points could be among the rotated vectors
	for i := range k {
		k[i] /= n
	}
	cos, sin := math.Cos(angle), math.Sin(angle)
	for _, i := range torotate {
		r := coords.RawRowView(i)
		v := [3]float64{r[0] - origin[0], r[1] - origin[1], r[2] - origin[2]}
		kdotv := k[0]*v[0] + k[1]*v[1] + k[2]*v[2]
		kxv := [3]float64{k[1]*v[2] - k[2]*v[1], k[2]*v[0] - k[0]*v[2], k[0]*v[1] - k[1]*v[0]}
		for j := 0; j < 3; j++ {
			r[j] = v[j]*cos + kxv[j]*sin + k[j]*kdotv*(1-cos) + origin[j]
		}
	}
	return nil
}

//SetDihedral rotates the atoms in moving around the b-c axis so the dihedral a-b-c-d of M
//becomes target (radians). moving should contain the atoms on the c side of the b-c bond.
func SetDihedral(M *Molecule, a, b, c, d int, target float64, moving []int) error {
	current := MolDihedral(M, a, b, c, d)
	err := RotateAbout(M.Coords, M.Coord(b), M.Coord(c), target-current, moving)
	return errDecorate(err, "SetDihedral")
}

//RMSD returns the RSMD (root of the mean square deviation) for the sets of cartesian
//coordinates in test and template.
func RMSD(test, template *v3.Matrix) (float64, error) {
	if test.NVecs() != template.NVecs() {
		return 0, newError("Ill formed matrices for RMSD calculation", "RMSD", true)
	}
	var sum float64
	for i := 0; i < template.NVecs(); i++ {
		a := test.RawRowView(i)
		b := template.RawRowView(i)
		for j := 0; j < 3; j++ {
			sum += (a[j] - b[j]) * (a[j] - b[j])
		}
	}
	return math.Sqrt(sum / float64(template.NVecs())), nil
}

//WrapAngle folds an angle in radians into [-pi, pi).
func WrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
