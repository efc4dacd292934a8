/*
 * bonds.go, part of goconf.
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
	"sort"
)

//Bond joins two atoms.
type Bond struct {
	Index int
	At1   *Atom
	At2   *Atom
	Order float64 //1, 2, 3 or 1.5 for aromatic bonds.
}

//Cross returns the atom bonded to origin through B.
func (B *Bond) Cross(origin *Atom) *Atom {
	if origin.Index == B.At1.Index {
		return B.At2
	}
	if origin.Index == B.At2.Index {
		return B.At1
	}
	panic(ErrNotInBond) //programming error, so a panic is warranted.
}

//Aromatic returns true for bonds of order 1.5.
func (B *Bond) Aromatic() bool {
	return B.Order > 1 && B.Order < 2
}

//return a new *Bond slice without b
func takefromslice(bonds []*Bond, b *Bond) []*Bond {
	newb := make([]*Bond, 0, len(bonds))
	for _, v := range bonds {
		if v != b {
			newb = append(newb, v)
		}
	}
	return newb
}

func insertSorted(s []int, v int) []int {
	i := sort.SearchInts(s, v)
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

//InRing returns true if b is part of a ring.
func (T *Topology) InRing(b *Bond) bool {
	h := T.derived()
	if h.ringBond == nil {
		h.ringBond = T.ringBonds()
	}
	return h.ringBond[b.Index]
}

//ringBonds marks every bond that is not a bridge of the molecular graph.
//Bridges are found with a depth-first search comparing discovery times
//with the lowest time reachable from each subtree.
func (T *Topology) ringBonds() []bool {
	n := T.Len()
	disc := make([]int, n)
	low := make([]int, n)
	for i := range disc {
		disc[i] = -1
	}
	ring := make([]bool, len(T.Bonds))
	for i := range ring {
		ring[i] = true
	}
	t := 0
	var dfs func(u int, parent *Bond)
	dfs = func(u int, parent *Bond) {
		disc[u] = t
		low[u] = t
		t++
		for _, b := range T.Atoms[u].Bonds {
			if b == parent {
				continue
			}
			v := b.Cross(T.Atoms[u]).Index
			if disc[v] < 0 {
				dfs(v, b)
				low[u] = min(low[u], low[v])
				if low[v] > disc[u] {
					ring[b.Index] = false
				}
			} else {
				low[u] = min(low[u], disc[v])
			}
		}
	}
	for i := 0; i < n; i++ {
		if disc[i] < 0 {
			dfs(i, nil)
		}
	}
	return ring
}

//union-find over atom indexes.
type unionFind []int

func newUnionFind(n int) unionFind {
	u := make(unionFind, n)
	for i := range u {
		u[i] = i
	}
	return u
}

func (u unionFind) find(i int) int {
	for u[i] != i {
		u[i] = u[u[i]]
		i = u[i]
	}
	return i
}

func (u unionFind) union(i, j int) {
	ri, rj := u.find(i), u.find(j)
	if ri == rj {
		return
	}
	if ri < rj {
		u[rj] = ri
	} else {
		u[ri] = rj
	}
}

//Fragments returns the disconnected parts of the molecular graph, each as a sorted
//list of atom indexes. Fragments are ordered by their lowest atom index.
//The returned slices must not be modified.
func (T *Topology) Fragments() [][]int {
	h := T.derived()
	if h.fragments != nil {
		return h.fragments
	}
	u := newUnionFind(T.Len())
	for _, b := range T.Bonds {
		u.union(b.At1.Index, b.At2.Index)
	}
	pos := make(map[int]int)
	frags := make([][]int, 0, 1)
	for i := 0; i < T.Len(); i++ {
		r := u.find(i)
		k, ok := pos[r]
		if !ok {
			k = len(frags)
			pos[r] = k
			frags = append(frags, nil)
		}
		frags[k] = append(frags[k], i)
	}
	h.fragments = frags
	return frags
}

//LargestFragment returns the index, in the Fragments() slice, of the fragment with most atoms.
//Ties are resolved in favor of the first fragment.
func (T *Topology) LargestFragment() int {
	best := 0
	for i, v := range T.Fragments() {
		if len(v) > len(T.Fragments()[best]) {
			best = i
		}
	}
	return best
}

//RingSystems returns the groups of atoms joined by ring bonds, i.e. the rigid ring
//systems of the molecule. Each group is sorted.
func (T *Topology) RingSystems() [][]int {
	u := newUnionFind(T.Len())
	inring := make([]bool, T.Len())
	for _, b := range T.Bonds {
		if T.InRing(b) {
			u.union(b.At1.Index, b.At2.Index)
			inring[b.At1.Index] = true
			inring[b.At2.Index] = true
		}
	}
	pos := make(map[int]int)
	var systems [][]int
	for i := 0; i < T.Len(); i++ {
		if !inring[i] {
			continue
		}
		r := u.find(i)
		k, ok := pos[r]
		if !ok {
			k = len(systems)
			pos[r] = k
			systems = append(systems, nil)
		}
		systems[k] = append(systems[k], i)
	}
	return systems
}

//Distances returns the matrix of topological distances (number of bonds in the shortest path)
//between all pairs of atoms. Atoms in different fragments are at distance -1.
//The returned slices must not be modified.
func (T *Topology) Distances() [][]int {
	h := T.derived()
	if h.dist != nil {
		return h.dist
	}
	n := T.Len()
	d := make([][]int, n)
	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		d[i] = make([]int, n)
		for j := range d[i] {
			d[i][j] = -1
		}
		d[i][i] = 0
		queue = append(queue[:0], i)
		for len(queue) > 0 {
			c := queue[0]
			queue = queue[1:]
			for _, v := range T.Neighbors(c) {
				if d[i][v] < 0 {
					d[i][v] = d[i][c] + 1
					queue = append(queue, v)
				}
			}
		}
	}
	h.dist = d
	return d
}

//Side returns, sorted, the atoms that are reached from the atom across without going through
//the atom from, including across itself. If from and across are bonded and the bond is not
//in a ring, these are the atoms that move when the bond is rotated keeping from fixed.
func (T *Topology) Side(from, across int) []int {
	seen := make([]bool, T.Len())
	seen[from] = true
	seen[across] = true
	ret := []int{across}
	queue := []int{across}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for _, v := range T.Neighbors(c) {
			if !seen[v] {
				seen[v] = true
				ret = append(ret, v)
				queue = append(queue, v)
			}
		}
	}
	sort.Ints(ret)
	return ret
}

//Hybridization returns 1, 2 or 3 for sp, sp2 and sp3 atoms, as deduced from the orders
//of the bonds of the ith atom.
func (T *Topology) Hybridization(i int) int {
	doubles := 0
	for _, b := range T.Atom(i).Bonds {
		switch {
		case b.Order >= 3:
			return 1
		case b.Order >= 2:
			doubles++
		case b.Aromatic():
			return 2
		}
	}
	switch doubles {
	case 0:
		return 3
	case 1:
		return 2
	default:
		return 1
	}
}

//RotatableBonds returns the single, non-ring bonds whose atoms both have at least two heavy
//neighbors and none of which is linear. Rotating such a bond changes the shape of the molecule.
func (T *Topology) RotatableBonds() []*Bond {
	ret := make([]*Bond, 0, 5)
	for _, b := range T.Bonds {
		if b.Order != 1 || T.InRing(b) {
			continue
		}
		i, j := b.At1.Index, b.At2.Index
		if T.HeavyDegree(i) < 2 || T.HeavyDegree(j) < 2 {
			continue
		}
		if T.Hybridization(i) == 1 || T.Hybridization(j) == 1 {
			continue
		}
		ret = append(ret, b)
	}
	return ret
}

//StripSmallFragments returns a molecule with only the largest fragment of M.
//If M has only one fragment, M itself is returned.
func StripSmallFragments(M *Molecule) *Molecule {
	frags := M.Fragments()
	if len(frags) < 2 {
		return M
	}
	return M.SubMolecule(frags[M.LargestFragment()])
}
