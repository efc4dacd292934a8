/*
 * kabsch.go, part of goconf.
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

package align

import (
	"fmt"
	"math"

	chem "github.com/rmera/goconf"
	v3 "github.com/rmera/goconf/v3"
	"gonum.org/v1/gonum/mat"
)

//CenterOfGravity returns the geometric center of the points in the rows of points.
func CenterOfGravity(points *v3.Matrix) *v3.Matrix {
	ret := v3.Zeros(1)
	n := points.NVecs()
	if n == 0 {
		return ret
	}
	r := ret.RawRowView(0)
	for i := 0; i < n; i++ {
		p := points.RawRowView(i)
		r[0] += p[0]
		r[1] += p[1]
		r[2] += p[2]
	}
	for k := range r {
		r[k] /= float64(n)
	}
	return ret
}

//OptimalRotation returns the 3x3 rotation matrix R that minimizes the sum of squared
//distances between (cand-candCOG)*R+refCOG and ref, where points are row vectors.
//R is always a proper rotation (determinant 1). For degenerate input (collinear or
//coincident points) some valid rotation is returned.
func OptimalRotation(ref, cand, refCOG, candCOG *v3.Matrix) *mat.Dense {
	if ref.NVecs() != cand.NVecs() {
		panic(v3.ErrShape)
	}
	rc := refCOG.RawRowView(0)
	cc := candCOG.RawRowView(0)
	//H = P^T Q where P and Q are the centered candidate and reference points.
	h := mat.NewDense(3, 3, nil)
	for k := 0; k < ref.NVecs(); k++ {
		p := cand.RawRowView(k)
		q := ref.RawRowView(k)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				h.Set(i, j, h.At(i, j)+(p[i]-cc[i])*(q[j]-rc[j]))
			}
		}
	}
	var svd mat.SVD
	if ok := svd.Factorize(h, mat.SVDFull); !ok {
		return identity()
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	//R = U D V^T, with D correcting an improper rotation.
	d := mat.NewDiagDense(3, []float64{1, 1, 1})
	uvt := mat.NewDense(3, 3, nil)
	uvt.Mul(&u, v.T())
	if v3.Det(uvt) < 0 {
		d.SetDiag(2, -1)
	}
	ud := mat.NewDense(3, 3, nil)
	ud.Mul(&u, d)
	rot := mat.NewDense(3, 3, nil)
	rot.Mul(ud, v.T())
	for _, f := range rot.RawMatrix().Data {
		if math.IsNaN(f) {
			return identity()
		}
	}
	return rot
}

func identity() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}

//Transform returns (coords-candCOG)*rot+refCOG.
func Transform(coords *v3.Matrix, rot mat.Matrix, candCOG, refCOG *v3.Matrix) *v3.Matrix {
	centered := coords.Clone()
	centered.SubVec(centered, candCOG)
	ret := v3.Zeros(coords.NVecs())
	ret.Mul(centered, rot)
	ret.AddVec(ret, refCOG)
	return ret
}

//Superimpose returns a copy of cand superimposed onto ref, and the RMSD between ref and the
//superimposed cand. Only the atoms in atoms are used to obtain the superposition (and
//the RMSD), but all are moved. If atoms is empty, all atoms are used.
func Superimpose(ref, cand *v3.Matrix, atoms []int) (*v3.Matrix, float64, error) {
	if ref.NVecs() != cand.NVecs() {
		return nil, -1, fmt.Errorf("Superimpose: reference with %d atoms and candidate with %d", ref.NVecs(), cand.NVecs())
	}
	fref, fcand := ref, cand
	if len(atoms) > 0 {
		fref = v3.Zeros(len(atoms))
		fcand = v3.Zeros(len(atoms))
		if err := fref.SomeVecsSafe(ref, atoms); err != nil {
			return nil, -1, fmt.Errorf("Superimpose: %w", err)
		}
		fcand.SomeVecs(cand, atoms)
	}
	refCOG := CenterOfGravity(fref)
	candCOG := CenterOfGravity(fcand)
	rot := OptimalRotation(fref, fcand, refCOG, candCOG)
	ret := Transform(cand, rot, candCOG, refCOG)
	fret := ret
	if len(atoms) > 0 {
		fret = v3.Zeros(len(atoms))
		fret.SomeVecs(ret, atoms)
	}
	rmsd, err := chem.RMSD(fret, fref)
	if err != nil {
		return nil, -1, fmt.Errorf("Superimpose: %w", err)
	}
	return ret, rmsd, nil
}

//HeavyAtoms returns the indexes of the non-hydrogen atoms in mol, the usual choice
//for superimposing conformers.
func HeavyAtoms(mol chem.Atomer) []int {
	ret := make([]int, 0, mol.Len())
	for i := 0; i < mol.Len(); i++ {
		if mol.Atom(i).Heavy() {
			ret = append(ret, i)
		}
	}
	return ret
}
