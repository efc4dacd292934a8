/*
 * tables.go, part of goconf.
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

//Package forcefield implements a small molecular mechanics force field and a bounded
//minimizer built on it. Minimization failures are returned as data in a Result, so
//callers processing many molecules never see a panic or an error escape from here.
package forcefield

import (
	"errors"
	"fmt"
	"math"
	"strings"

	chem "github.com/rmera/goconf"
)

var (
	//ErrMissingParameter is returned when an atom, bond or angle type has no parameters.
	ErrMissingParameter = errors.New("forcefield: missing parameter")
	//ErrUnknownTableSet is returned for table set names that are not known.
	ErrUnknownTableSet = errors.New("forcefield: unknown table set")
)

//TableSet selects the set of parameter tables used to build a Field.
type TableSet string

const (
	//Standard uses the hybridization deduced from the bond orders.
	Standard TableSet = "standard"
	//Planar treats nitrogens bonded to sp2 atoms as sp2 (planar), as in amides and anilines.
	Planar TableSet = "planar"
)

//ParseTableSet returns the table set called name.
func ParseTableSet(name string) (TableSet, error) {
	t := TableSet(strings.ToLower(strings.TrimSpace(name)))
	if err := t.check(); err != nil {
		return "", err
	}
	return t, nil
}

func (t TableSet) check() error {
	switch t {
	case Standard, Planar:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTableSet, string(t))
	}
}

//element parameters: single bond covalent radius (A), Cordero et al. 2008, and
//Lennard-Jones well depth (kcal/mol). Van der Waals radii come from the chem package.
type element struct {
	covrad float64
	eps    float64
}

var elements = map[string]element{
	"H":  {0.31, 0.020},
	"C":  {0.76, 0.086},
	"N":  {0.71, 0.170},
	"O":  {0.66, 0.210},
	"F":  {0.57, 0.061},
	"Si": {1.11, 0.402},
	"P":  {1.07, 0.200},
	"S":  {1.05, 0.250},
	"Cl": {1.02, 0.265},
	"Se": {1.20, 0.291},
	"Br": {1.20, 0.320},
	"I":  {1.39, 0.400},
	"Na": {1.66, 0.030},
	"K":  {2.03, 0.035},
	"Mg": {1.41, 0.111},
	"Ca": {1.76, 0.238},
	"Zn": {1.22, 0.124},
}

//Force constants.
const (
	bondK      = 300.0 //kcal/mol/A^2 per unit of bond order
	angleK     = 60.0  //kcal/mol/rad^2
	linearK    = 40.0  //kcal/mol, for k(1+cos(theta)) terms
	sp3V       = 1.4   //kcal/mol barrier for 3-fold torsions
	conjV      = 5.0   //conjugated single bonds between sp2 atoms
	amideV     = 20.0
	doubleV    = 45.0
	scale14    = 0.5
	vdwScale   = 0.89 //the LJ minimum is at vdwScale times the sum of the vdW radii
	coulombK   = 332.06
	dielectric = 4.0 //distance dependent dielectric, epsilon=dielectric*r
)

func params(at *chem.Atom) (element, float64, error) {
	e, ok := elements[at.Symbol]
	vdw, ok2 := chem.VdwRadius(at.Symbol)
	if !ok || !ok2 {
		return element{}, 0, fmt.Errorf("%w: element %q (atom %d)", ErrMissingParameter, at.Symbol, at.Index)
	}
	return e, vdw, nil
}

//bondLength returns the ideal length of a bond of the given order between the atoms with
//the given single-bond radii, with Pauling's correction for the bond order.
func bondLength(r1, r2, order float64) float64 {
	return r1 + r2 - 0.71*math.Log10(order)
}

//hybridization returns 1, 2 or 3 for sp, sp2 and sp3 atoms, under the table set t.
func (t TableSet) hybridization(top *chem.Topology, i int) int {
	h := top.Hybridization(i)
	if t != Planar || h != 3 || top.Atom(i).Symbol != "N" {
		return h
	}
	for _, j := range top.Neighbors(i) {
		if top.Hybridization(j) == 2 {
			return 2
		}
	}
	return h
}

//idealAngle returns the equilibrium bond angle, in radians, for a central atom of the given hybridization.
func idealAngle(hyb int) float64 {
	switch hyb {
	case 1:
		return math.Pi
	case 2:
		return 120 * chem.Deg2Rad
	default:
		return 109.47 * chem.Deg2Rad
	}
}
