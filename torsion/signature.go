/*
 * signature.go, part of goconf.
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

package torsion

import (
	"math"

	chem "github.com/rmera/goconf"
)

//Signature is the list of values, in radians, of the rotatable torsions of a conformer.
type Signature []float64

//Compute returns the signature of mol for the given torsions.
func Compute(mol *chem.Molecule, torsions []Torsion) Signature {
	s := make(Signature, len(torsions))
	for i, t := range torsions {
		s[i] = chem.MolDihedral(mol, t.A, t.B, t.C, t.D)
	}
	return s
}

//Equal returns true if every angle of x differs from the corresponding angle of y by less
//than tol, with differences taken modulo 2*pi. Signatures of different lengths are never equal.
func Equal(x, y Signature, tol float64) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if math.Abs(chem.WrapAngle(x[i]-y[i])) >= tol {
			return false
		}
	}
	return true
}

//Filter keeps the signatures of the accepted conformers of one molecule. A Filter
//must not be shared between molecules, or between goroutines.
type Filter struct {
	tolerance float64
	accepted  []Signature
}

//NewFilter returns an empty filter that considers two signatures redundant when all their
//angles are within tol radians.
func NewFilter(tol float64) *Filter {
	return &Filter{tolerance: tol, accepted: make([]Signature, 0, 16)}
}

//IsRedundant returns true if sig matches a signature already accepted. Otherwise, sig is
//added to the accepted signatures and false is returned.
func (F *Filter) IsRedundant(sig Signature) bool {
	for _, v := range F.accepted {
		if Equal(v, sig, F.tolerance) {
			return true
		}
	}
	F.accepted = append(F.accepted, append(Signature(nil), sig...))
	return false
}

//Len returns the number of accepted signatures.
func (F *Filter) Len() int {
	return len(F.accepted)
}

//Tolerance returns the tolerance of the filter, in radians.
func (F *Filter) Tolerance() float64 {
	return F.tolerance
}
