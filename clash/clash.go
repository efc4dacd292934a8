/*
 * clash.go, part of goconf.
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

//Package clash detects steric clashes within a molecule and relieves them by rotating
//torsions.
package clash

import (
	"fmt"
	"math"

	chem "github.com/rmera/goconf"
	v3 "github.com/rmera/goconf/v3"

	"gonum.org/v1/gonum/floats"
)

//minimum topological separation, in bonds, for a pair of atoms to be checked.
const minSeparation = 4

//Checker finds overlaps between atoms of one topology that are separated by more than
//three bonds (or are in different fragments).
type Checker struct {
	pairs  [][2]int
	limits []float64
}

//NewChecker prepares a Checker for top. Two atoms clash when they are closer than factor
//times the sum of their van der Waals radii.
func NewChecker(top *chem.Topology, factor float64) (*Checker, error) {
	if factor <= 0 {
		return nil, fmt.Errorf("clash: invalid clash factor %g", factor)
	}
	dist := top.Distances()
	radii := make([]float64, top.Len())
	for i, at := range top.Atoms {
		r, ok := chem.VdwRadius(at.Symbol)
		if !ok {
			return nil, fmt.Errorf("clash: no van der Waals radius for %s (atom %d)", at.Symbol, i)
		}
		radii[i] = r
	}
	C := new(Checker)
	for i := 0; i < top.Len(); i++ {
		for j := i + 1; j < top.Len(); j++ {
			if d := dist[i][j]; d >= 0 && d < minSeparation {
				continue
			}
			C.pairs = append(C.pairs, [2]int{i, j})
			C.limits = append(C.limits, factor*(radii[i]+radii[j]))
		}
	}
	return C, nil
}

//HighestOverlap returns the largest overlap (the clash limit minus the distance) among
//the checked pairs of coords, and the pair. If there are no pairs, it returns -Inf.
//A positive overlap means a clash.
func (C *Checker) HighestOverlap(coords *v3.Matrix) (over float64, indexes [2]int) {
	over = math.Inf(-1)
	for k, p := range C.pairs {
		ov := C.limits[k] - coords.Distance(p[0], p[1])
		if ov > over {
			over = ov
			indexes = p
		}
	}
	return
}

//Clashes returns true if any pair of checked atoms clashes.
func (C *Checker) Clashes(coords *v3.Matrix) bool {
	over, _ := C.HighestOverlap(coords)
	return over > 0
}

//LowestDist returns the shortest distance between a point in test and one in clash, and
//the indexes of both points.
func LowestDist(test, clash *v3.Matrix) (dist float64, indexes [2]int) {
	dist = math.Inf(1)
	for i := 0; i < test.NVecs(); i++ {
		a1 := test.RawRowView(i)
		for j := 0; j < clash.NVecs(); j++ {
			a2 := clash.RawRowView(j)
			dt := math.Sqrt((a1[0]-a2[0])*(a1[0]-a2[0]) + (a1[1]-a2[1])*(a1[1]-a2[1]) + (a1[2]-a2[2])*(a1[2]-a2[2]))
			if dt < dist {
				dist = dt
				indexes[0] = i
				indexes[1] = j
			}
		}
	}
	return
}

func bondRotate(coord *v3.Matrix, at1, at2 int, angle float64, torotate []int) error {
	a1 := coord.VecView(at1).Clone()
	a2 := coord.VecView(at2).Clone()
	return chem.RotateAbout(coord, a1, a2, angle, torotate)
}

//AngleFuncGrad returns the normalized central-difference gradient of f with respect to
//the rotation of the atoms in rotated[i] around the bonds axes[i], for each i.
func AngleFuncGrad(test *v3.Matrix, axes [][2]int, rotated [][]int, f func(*v3.Matrix) float64, epsilon ...float64) ([]float64, error) {
	var e float64 = 2 * chem.Deg2Rad
	if len(epsilon) > 0 {
		e = epsilon[0]
	}
	clone := test.Clone()
	grad := make([]float64, 0, len(axes))
	for i, v := range axes {
		clone.Copy(test.Dense)
		if err := bondRotate(clone, v[0], v[1], e, rotated[i]); err != nil {
			return nil, err
		}
		dpos := f(clone)
		clone.Copy(test.Dense)
		if err := bondRotate(clone, v[0], v[1], -e, rotated[i]); err != nil {
			return nil, err
		}
		dneg := f(clone)
		grad = append(grad, (dpos-dneg)/(2*e))
	}
	if n := floats.Norm(grad, 2); n > 0 {
		floats.Scale(1/n, grad) //normalization
	}
	return grad, nil
}

//AngleStep returns a copy of test where each torsion i has been rotated by step*grad[i].
//grad is assumed to be normalized. To go in the opposite direction of the gradient,
//simply give a negative step.
func AngleStep(test *v3.Matrix, axes [][2]int, rotated [][]int, grad []float64, step float64) (*v3.Matrix, error) {
	clone := test.Clone()
	for i, v := range axes {
		if err := bondRotate(clone, v[0], v[1], step*grad[i], rotated[i]); err != nil {
			return nil, err
		}
	}
	return clone, nil
}

//DeClash rotates the given torsions of test to reduce the highest overlap found by C,
//for at most maxSteps steps of step radians. It returns the new coordinates and whether
//the clashes were removed. test is not modified.
func (C *Checker) DeClash(test *v3.Matrix, axes [][2]int, rotated [][]int, maxSteps int, step float64) (*v3.Matrix, bool, error) {
	f := func(c *v3.Matrix) float64 {
		o, _ := C.HighestOverlap(c)
		return o
	}
	prev := f(test)
	for i := 0; i < maxSteps && prev > 0; i++ {
		grad, err := AngleFuncGrad(test, axes, rotated, f)
		if err != nil {
			return nil, false, err
		}
		next, err := AngleStep(test, axes, rotated, grad, -step)
		if err != nil {
			return nil, false, err
		}
		m := f(next)
		if m >= prev {
			break
		}
		test, prev = next, m
	}
	return test, prev <= 0, nil
}
