/*
 * torsion.go, part of goconf.
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

//Package torsion finds the rotatable torsions of a molecule, computes the torsion
//signatures used to detect redundant conformers, and provides the rotamer states
//sampled by the conformer strategies.
package torsion

import (
	"fmt"
	"math"
	"sort"

	chem "github.com/rmera/goconf"
)

//Class is the kind of a rotatable bond, given by the hybridization of its atoms.
type Class int

const (
	SP3SP3 Class = iota
	SP2SP3
	SP2SP2
	Amide
)

func (c Class) String() string {
	switch c {
	case SP3SP3:
		return "sp3-sp3"
	case SP2SP3:
		return "sp2-sp3"
	case SP2SP2:
		return "sp2-sp2"
	case Amide:
		return "amide"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

//Torsion is the dihedral A-B-C-D around the rotatable bond B-C. Moving contains the
//atoms on the C side of the bond, which move when the torsion is set.
type Torsion struct {
	A, B, C, D int
	Moving     []int
	Class      Class
}

//Find returns one torsion per rotatable bond of top. In each fragment, the moving side of a
//torsion is the one away from the most central atom, and the torsions are sorted by the
//distance of their B atoms to that atom, so setting them in order never changes the
//value of a torsion set earlier.
func Find(top *chem.Topology) []Torsion {
	rot := top.RotatableBonds()
	if len(rot) == 0 {
		return nil
	}
	dist := top.Distances()
	root := make(map[int]int) //fragment index of each atom -> root
	fragOf := make([]int, top.Len())
	for k, f := range top.Fragments() {
		for _, v := range f {
			fragOf[v] = k
		}
		root[k] = center(f, dist)
	}
	ret := make([]Torsion, 0, len(rot))
	depth := make([]int, 0, len(rot))
	for _, b := range rot {
		i, j := b.At1.Index, b.At2.Index
		r := root[fragOf[i]]
		if dist[r][j] < dist[r][i] {
			i, j = j, i
		}
		t := Torsion{
			A:      heavyNeighbor(top, i, j),
			B:      i,
			C:      j,
			D:      heavyNeighbor(top, j, i),
			Moving: top.Side(i, j),
			Class:  classify(top, i, j),
		}
		ret = append(ret, t)
		depth = append(depth, dist[r][i])
	}
	idx := make([]int, len(ret))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return depth[idx[a]] < depth[idx[b]] })
	sorted := make([]Torsion, len(ret))
	for k, i := range idx {
		sorted[k] = ret[i]
	}
	return sorted
}

//center returns the atom of frag with the smallest eccentricity, the lowest index among ties.
func center(frag []int, dist [][]int) int {
	best, bestecc := frag[0], math.MaxInt
	for _, i := range frag {
		ecc := 0
		for _, j := range frag {
			ecc = max(ecc, dist[i][j])
		}
		if ecc < bestecc {
			best, bestecc = i, ecc
		}
	}
	return best
}

//heavyNeighbor returns the lowest-index heavy atom bonded to i, other than exclude.
func heavyNeighbor(top *chem.Topology, i, exclude int) int {
	for _, v := range top.Neighbors(i) {
		if v != exclude && top.Atom(v).Heavy() {
			return v
		}
	}
	panic(fmt.Sprintf("torsion: atom %d has no heavy neighbor besides %d", i, exclude))
}

//isAmide returns true if i is a carbonyl carbon and j a nitrogen, or vice versa.
func isAmide(top *chem.Topology, i, j int) bool {
	if top.Atom(i).Symbol == "N" {
		i, j = j, i
	}
	if top.Atom(i).Symbol != "C" || top.Atom(j).Symbol != "N" {
		return false
	}
	for _, b := range top.Atom(i).Bonds {
		if b.Order == 2 && b.Cross(top.Atom(i)).Symbol == "O" {
			return true
		}
	}
	return false
}

func classify(top *chem.Topology, i, j int) Class {
	if isAmide(top, i, j) {
		return Amide
	}
	sp2 := 0
	if top.Hybridization(i) == 2 {
		sp2++
	}
	if top.Hybridization(j) == 2 {
		sp2++
	}
	return Class(sp2)
}

//Apply sets the torsions of mol to angles (radians), in the order given.
func Apply(mol *chem.Molecule, torsions []Torsion, angles []float64) error {
	if len(angles) != len(torsions) {
		return fmt.Errorf("torsion: %d angles for %d torsions", len(angles), len(torsions))
	}
	for k, t := range torsions {
		if err := chem.SetDihedral(mol, t.A, t.B, t.C, t.D, angles[k], t.Moving); err != nil {
			return fmt.Errorf("torsion: setting torsion %d: %w", k, err)
		}
	}
	return nil
}
