/*
 * chem.go, part of goconf.
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

	v3 "github.com/rmera/goconf/v3"
)

/**Note: Many functions here panic instead of returning errors. This is because they are "fundamental"
 * functions. If something goes wrong here, the program is most likely wrong and should
 * crash. Most panics are related to using the function on a nil object or trying to access out-of-bounds
 * fields**/

//Atom contains the information about one atom, except for the coordinates, which are in a matrix.
type Atom struct {
	Symbol    string
	Charge    int //formal charge
	ImplicitH int //hydrogens not present as atoms
	Index     int
	Bonds     []*Bond
}

//Copy returns a copy of the Atom object, without bonds.
func (A *Atom) Copy() *Atom {
	if A == nil {
		panic(ErrNilAtom)
	}
	return &Atom{Symbol: A.Symbol, Charge: A.Charge, ImplicitH: A.ImplicitH, Index: A.Index}
}

//Heavy returns true if the atom is not a hydrogen.
func (A *Atom) Heavy() bool {
	return A.Symbol != "H"
}

/*****Topology type***/

//Topology contains the atoms and bonds of a molecule, i.e. everything except for the coordinates.
//Derived data (neighbor lists, rings, fragments, topological distances) is computed when first
//requested and discarded whenever the structure is edited. A Topology is not safe for concurrent
//modification.
type Topology struct {
	Atoms []*Atom
	Bonds []*Bond
	h     *helpers
}

//helpers holds the lazily computed data.
type helpers struct {
	neighbors [][]int
	ringBond  []bool
	fragments [][]int
	dist      [][]int
}

//NewTopology returns an empty topology.
func NewTopology() *Topology {
	return &Topology{Atoms: make([]*Atom, 0, 20), Bonds: make([]*Bond, 0, 20)}
}

//invalidate discards all derived data.
func (T *Topology) invalidate() {
	T.h = nil
}

func (T *Topology) derived() *helpers {
	if T.h == nil {
		T.h = new(helpers)
	}
	return T.h
}

//Len returns the number of atoms.
func (T *Topology) Len() int {
	return len(T.Atoms)
}

//Atom returns the ith atom. Panics if out of range.
func (T *Topology) Atom(i int) *Atom {
	if i < 0 || i >= len(T.Atoms) {
		panic(ErrAtomOutOfRange)
	}
	return T.Atoms[i]
}

//AddAtom appends at to the topology, sets its index, and returns it.
func (T *Topology) AddAtom(at *Atom) int {
	if at == nil {
		panic(ErrNilAtom)
	}
	at.Index = len(T.Atoms)
	at.Bonds = nil
	T.Atoms = append(T.Atoms, at)
	T.invalidate()
	return at.Index
}

//AddBond creates a bond of the given order between the atoms i and j.
func (T *Topology) AddBond(i, j int, order float64) (*Bond, error) {
	if i == j || i < 0 || j < 0 || i >= T.Len() || j >= T.Len() {
		return nil, newError(fmt.Sprintf("Can't bond atoms %d and %d in a topology of %d atoms", i, j, T.Len()), "AddBond", true)
	}
	if T.BondBetween(i, j) != nil {
		return nil, newError(fmt.Sprintf("Atoms %d and %d are already bonded", i, j), "AddBond", true)
	}
	if order <= 0 {
		return nil, newError(fmt.Sprintf("Invalid bond order %4.2f", order), "AddBond", true)
	}
	b := &Bond{Index: len(T.Bonds), At1: T.Atoms[i], At2: T.Atoms[j], Order: order}
	b.At1.Bonds = append(b.At1.Bonds, b)
	b.At2.Bonds = append(b.At2.Bonds, b)
	T.Bonds = append(T.Bonds, b)
	T.invalidate()
	return b, nil
}

//DelAtom removes the ith atom and all its bonds. The remaining atoms and bonds are re-indexed.
func (T *Topology) DelAtom(i int) {
	at := T.Atom(i)
	bonds := make([]*Bond, 0, len(T.Bonds))
	for _, b := range T.Bonds {
		if b.At1 == at || b.At2 == at {
			other := b.Cross(at)
			other.Bonds = takefromslice(other.Bonds, b)
			continue
		}
		bonds = append(bonds, b)
	}
	T.Bonds = bonds
	T.Atoms = append(T.Atoms[:i], T.Atoms[i+1:]...)
	T.reindex()
	T.invalidate()
}

func (T *Topology) reindex() {
	for i, v := range T.Atoms {
		v.Index = i
	}
	for i, v := range T.Bonds {
		v.Index = i
	}
}

//Neighbors returns the indexes of the atoms bonded to atom i, in increasing order.
//The returned slice must not be modified.
func (T *Topology) Neighbors(i int) []int {
	h := T.derived()
	if h.neighbors == nil {
		h.neighbors = make([][]int, T.Len())
		for _, b := range T.Bonds {
			a1, a2 := b.At1.Index, b.At2.Index
			h.neighbors[a1] = insertSorted(h.neighbors[a1], a2)
			h.neighbors[a2] = insertSorted(h.neighbors[a2], a1)
		}
	}
	return h.neighbors[i]
}

//BondBetween returns the bond joining the atoms i and j, or nil if they are not bonded.
func (T *Topology) BondBetween(i, j int) *Bond {
	for _, b := range T.Atom(i).Bonds {
		if b.At1.Index == j || b.At2.Index == j {
			return b
		}
	}
	return nil
}

//HeavyDegree returns the number of non-hydrogen atoms bonded to atom i.
func (T *Topology) HeavyDegree(i int) int {
	n := 0
	for _, v := range T.Neighbors(i) {
		if T.Atoms[v].Heavy() {
			n++
		}
	}
	return n
}

//HasImplicitHydrogens returns true if any atom carries hydrogens that are not explicit atoms.
func (T *Topology) HasImplicitHydrogens() bool {
	for _, v := range T.Atoms {
		if v.ImplicitH > 0 {
			return true
		}
	}
	return false
}

//Copy returns a deep copy of the topology.
func (T *Topology) Copy() *Topology {
	r := NewTopology()
	for _, v := range T.Atoms {
		r.Atoms = append(r.Atoms, v.Copy())
	}
	for _, b := range T.Bonds {
		nb := &Bond{Index: b.Index, At1: r.Atoms[b.At1.Index], At2: r.Atoms[b.At2.Index], Order: b.Order}
		nb.At1.Bonds = append(nb.At1.Bonds, nb)
		nb.At2.Bonds = append(nb.At2.Bonds, nb)
		r.Bonds = append(r.Bonds, nb)
	}
	return r
}

//SubTopology returns a new topology with the atoms in indexes (in that order) and the bonds among them.
func (T *Topology) SubTopology(indexes []int) *Topology {
	r := NewTopology()
	newindex := make(map[int]int, len(indexes))
	for _, v := range indexes {
		newindex[v] = r.AddAtom(T.Atom(v).Copy())
	}
	for _, b := range T.Bonds {
		i, ok1 := newindex[b.At1.Index]
		j, ok2 := newindex[b.At2.Index]
		if ok1 && ok2 {
			r.AddBond(i, j, b.Order) //can't fail, the bond was valid in T.
		}
	}
	return r
}

/**Molecule type**/

//Molecule contains a topology and the current coordinates of its atoms.
type Molecule struct {
	*Topology
	Coords *v3.Matrix
}

//NewMolecule returns a molecule with the given topology and coordinates. If coords is nil, a
//zero-filled coordinate matrix is created.
func NewMolecule(top *Topology, coords *v3.Matrix) (*Molecule, error) {
	if top == nil || top.Len() == 0 {
		return nil, newError("Supplied a nil or empty Topology", "NewMolecule", true)
	}
	if coords == nil {
		coords = v3.Zeros(top.Len())
	}
	if coords.NVecs() != top.Len() {
		return nil, newError(fmt.Sprintf("Mismatched topology (%d atoms) and coordinates (%d)", top.Len(), coords.NVecs()), "NewMolecule", true)
	}
	return &Molecule{Topology: top, Coords: coords}, nil
}

//Copy returns a deep copy of the molecule.
func (M *Molecule) Copy() *Molecule {
	return &Molecule{Topology: M.Topology.Copy(), Coords: M.Coords.Clone()}
}

//Coord returns a view of the coordinates of the ith atom.
func (M *Molecule) Coord(i int) *v3.Matrix {
	return M.Coords.VecView(i)
}

//SetCoord sets the coordinates of the ith atom.
func (M *Molecule) SetCoord(i int, x, y, z float64) {
	r := M.Coords.RawRowView(i)
	r[0], r[1], r[2] = x, y, z
}

//AddAtomAt adds at to the molecule with the given coordinates, and returns its index.
func (M *Molecule) AddAtomAt(at *Atom, x, y, z float64) int {
	i := M.AddAtom(at)
	nc := v3.Zeros(M.Len())
	if i > 0 {
		nc.View(0, i).Copy(M.Coords.Dense)
	}
	M.Coords = nc
	M.SetCoord(i, x, y, z)
	return i
}

//Has3D returns true if the molecule has 3D coordinates, i.e., not all the z coordinates
//(or all the coordinates) are zero.
func (M *Molecule) Has3D() bool {
	if M.Len() < 2 {
		return M.Len() == 1
	}
	for i := 0; i < M.Len(); i++ {
		if M.Coords.At(i, 2) != 0 {
			return true
		}
	}
	return false
}

//Snapshot returns a Conformer holding a copy of the current coordinates.
func (M *Molecule) Snapshot(energy float64) *Conformer {
	return &Conformer{Coords: M.Coords.Clone(), Energy: energy}
}

//SubMolecule returns a new molecule with the atoms in indexes (in that order).
func (M *Molecule) SubMolecule(indexes []int) *Molecule {
	c := v3.Zeros(len(indexes))
	c.SomeVecs(M.Coords, indexes)
	return &Molecule{Topology: M.SubTopology(indexes), Coords: c}
}

//Conformer is a frozen set of coordinates for a fixed topology, with its energy
//(NaN if unknown).
type Conformer struct {
	Coords *v3.Matrix
	Energy float64
}
