/*
 * strategy.go, part of goconf.
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

//Package conformer implements the strategies that sample the conformational space of a
//molecule. A Strategy produces a finite sequence of conformers, writing each one
//into the coordinates of the molecule it is given.
package conformer

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	chem "github.com/rmera/goconf"
	"github.com/rmera/goconf/clash"
	"github.com/rmera/goconf/torsion"
	v3 "github.com/rmera/goconf/v3"
)

//ErrNoGeometry is returned when a rotamer-based strategy is requested for a molecule
//without 3D coordinates.
var ErrNoGeometry = errors.New("conformer: the molecule has no 3D geometry")

//Strategy is a lazy, finite and non-restartable sequence of conformers.
//Next writes the next conformer into the coordinates of mol, which must be
//the molecule (or a copy of the molecule) the strategy was created for, and returns mol.
//When the strategy is exhausted, or cannot build a valid conformer, Next returns nil.
//Strategies are not safe for concurrent use.
type Strategy interface {
	Next(mol *chem.Molecule) *chem.Molecule
}

//New prepares a strategy for mol. It does not build any geometry.
func New(mol *chem.Molecule, o *Options) (Strategy, error) {
	return NewContext(context.Background(), mol, o)
}

//NewContext is like New, but uses ctx for the lookups in the fragment cache.
func NewContext(ctx context.Context, mol *chem.Molecule, o *Options) (Strategy, error) {
	if mol == nil || mol.Len() == 0 {
		return nil, errors.New("conformer: empty molecule")
	}
	if o == nil {
		o = DefaultOptions()
	}
	torsions := torsion.Find(mol.Topology)
	if len(torsions) == 0 {
		return &single{}, nil
	}
	if o.Kind() == SelfOrganized {
		return newSelfOrganized(ctx, mol, torsions, o)
	}
	r, err := newRotamers(mol, torsions, o.Source())
	if err != nil {
		return nil, err
	}
	switch o.Kind() {
	case PureRandom:
		return newRandom(r, false, nil, o), nil
	case LowEnergyRandom:
		return newRandom(r, true, nil, o), nil
	case AdaptiveRandom:
		checker, err := clash.NewChecker(mol.Topology, o.ClashFactor())
		if err != nil {
			return nil, fmt.Errorf("conformer: %w", err)
		}
		return newRandom(r, true, checker, o), nil
	case Systematic:
		//without radii, the combinations are not screened for clashes.
		checker, _ := clash.NewChecker(mol.Topology, o.ClashFactor())
		return newSystematic(r, checker, o.MaxTrials()), nil
	default:
		return nil, fmt.Errorf("conformer: unknown strategy %v", o.Kind())
	}
}

//single serves the input geometry once. It is used for molecules without rotatable bonds.
type single struct {
	done bool
}

func (S *single) Next(mol *chem.Molecule) *chem.Molecule {
	if S.done || mol == nil {
		return nil
	}
	S.done = true
	return mol
}

//rotamers is the state shared by the strategies that combine rotamer states.
type rotamers struct {
	base     *v3.Matrix
	torsions []torsion.Torsion
	states   [][]torsion.State
	angles   []float64
	axes     [][2]int
	moving   [][]int
}

func newRotamers(mol *chem.Molecule, torsions []torsion.Torsion, src torsion.Source) (*rotamers, error) {
	r := &rotamers{
		base:     mol.Coords.Clone(),
		torsions: torsions,
		states:   make([][]torsion.State, len(torsions)),
		angles:   make([]float64, len(torsions)),
		axes:     make([][2]int, len(torsions)),
		moving:   make([][]int, len(torsions)),
	}
	for i, t := range torsions {
		if r.base.Distance(t.B, t.C) < 1e-3 {
			return nil, ErrNoGeometry
		}
		r.states[i] = src.States(t)
		if len(r.states[i]) == 0 {
			r.states[i] = torsion.Grid{}.States(t)
		}
		r.axes[i] = [2]int{t.B, t.C}
		r.moving[i] = t.Moving
	}
	return r, nil
}

//set writes into mol the conformer with the given state for each torsion.
func (R *rotamers) set(mol *chem.Molecule, idx []int) bool {
	if mol.Len() != R.base.NVecs() {
		return false
	}
	mol.Coords.Copy(R.base.Dense)
	for i, k := range idx {
		R.angles[i] = R.states[i][k].Angle
	}
	return torsion.Apply(mol, R.torsions, R.angles) == nil
}

//restore puts back the starting geometry in mol.
func (R *rotamers) restore(mol *chem.Molecule) {
	if mol.Len() == R.base.NVecs() {
		mol.Coords.Copy(R.base.Dense)
	}
}

//relieve tries to remove the clashes in mol by rotating its torsions. It returns false if
//the clashes remain.
func (R *rotamers) relieve(mol *chem.Molecule, checker *clash.Checker) bool {
	if !checker.Clashes(mol.Coords) {
		return true
	}
	fixed, ok, err := checker.DeClash(mol.Coords, R.axes, R.moving, 20, 5*chem.Deg2Rad)
	if err != nil || !ok {
		return false
	}
	mol.Coords.Copy(fixed.Dense)
	return true
}

func combinationKey(idx []int) string {
	b := make([]byte, 0, len(idx))
	for _, v := range idx {
		b = binary.AppendUvarint(b, uint64(v))
	}
	return string(b)
}
