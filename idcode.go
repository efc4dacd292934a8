/*
 * idcode.go, part of goconf.
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
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
)

//The canonical code (idcode) of a molecular graph has the form
//
//	atom.atom.atom|bond.bond
//
//where each atom is written as its symbol, optionally followed by its formal charge
//(+n or -n) and its implicit hydrogens (Hn), and each bond as i-j, i=j, i#j or i:j
//(single, double, triple, aromatic), i and j being canonical atom positions with i<j.
//Atoms appear in canonical order and bonds sorted by (i,j). Stereochemistry is not encoded.

const (
	atomSep = "."
	bondSep = "."
	partSep = "|"
)

var bondSymbols = map[float64]string{1: "-", 2: "=", 3: "#", 1.5: ":"}
var symbolBondOrders = map[string]float64{"-": 1, "=": 2, "#": 3, ":": 1.5}

var atomRegex = regexp.MustCompile(`^([A-Z][a-z]?)([+-][0-9]+)?(?:H([0-9]+))?$`)
var bondRegex = regexp.MustCompile(`^([0-9]+)([-=#:])([0-9]+)$`)

func bondCode(order float64) int {
	return int(order * 2)
}

func atomLabel(at *Atom) string {
	s := at.Symbol
	if at.Charge > 0 {
		s += "+" + strconv.Itoa(at.Charge)
	} else if at.Charge < 0 {
		s += strconv.Itoa(at.Charge)
	}
	if at.ImplicitH > 0 {
		s += "H" + strconv.Itoa(at.ImplicitH)
	}
	return s
}

//rankByKeys gives each atom the number of atoms whose key is strictly smaller than its own.
func rankByKeys(keys [][]int) []int {
	n := len(keys)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return slices.Compare(keys[order[a]], keys[order[b]]) < 0 })
	ranks := make([]int, n)
	for k := 0; k < n; k++ {
		if k > 0 && slices.Compare(keys[order[k]], keys[order[k-1]]) == 0 {
			ranks[order[k]] = ranks[order[k-1]]
			continue
		}
		ranks[order[k]] = k
	}
	return ranks
}

func countClasses(ranks []int) int {
	seen := make(map[int]bool, len(ranks))
	for _, v := range ranks {
		seen[v] = true
	}
	return len(seen)
}

//initialRanks classifies atoms by invariants that do not depend on their indexes.
func (T *Topology) initialRanks() []int {
	labels := make([]string, T.Len())
	for i, at := range T.Atoms {
		labels[i] = atomLabel(at)
	}
	sorted := slices.Clone(labels)
	sort.Strings(sorted)
	sorted = slices.Compact(sorted)
	keys := make([][]int, T.Len())
	for i, at := range T.Atoms {
		orders := make([]int, 0, len(at.Bonds))
		for _, b := range at.Bonds {
			orders = append(orders, bondCode(b.Order))
		}
		sort.Ints(orders)
		k := []int{sort.SearchStrings(sorted, labels[i]), len(at.Bonds)}
		keys[i] = append(k, orders...)
	}
	return rankByKeys(keys)
}

//refine splits the classes in ranks using the classes of the neighbors until no further
//split happens.
func (T *Topology) refine(ranks []int) []int {
	n := countClasses(ranks)
	for {
		keys := make([][]int, T.Len())
		for i, at := range T.Atoms {
			nb := make([][2]int, 0, len(at.Bonds))
			for _, b := range at.Bonds {
				nb = append(nb, [2]int{ranks[b.Cross(at).Index], bondCode(b.Order)})
			}
			sort.Slice(nb, func(a, b int) bool {
				if nb[a][0] != nb[b][0] {
					return nb[a][0] < nb[b][0]
				}
				return nb[a][1] < nb[b][1]
			})
			k := make([]int, 1, 1+2*len(nb))
			k[0] = ranks[i]
			for _, v := range nb {
				k = append(k, v[0], v[1])
			}
			keys[i] = k
		}
		newranks := rankByKeys(keys)
		m := countClasses(newranks)
		if m == n {
			return newranks
		}
		ranks, n = newranks, m
	}
}

//firstTie returns the atoms of the tied class with the smallest rank, or nil if all ranks are
//different. Terminal atoms bonded to the same atom are interchangeable, so only
//one of them is returned.
func (T *Topology) firstTie(ranks []int) []int {
	best := -1
	count := make(map[int]int, len(ranks))
	for _, v := range ranks {
		count[v]++
	}
	for _, v := range ranks {
		if count[v] > 1 && (best < 0 || v < best) {
			best = v
		}
	}
	if best < 0 {
		return nil
	}
	ret := make([]int, 0, count[best])
	parents := make(map[int]bool)
	for i, v := range ranks {
		if v != best {
			continue
		}
		if nb := T.Neighbors(i); len(nb) == 1 {
			if parents[nb[0]] {
				continue
			}
			parents[nb[0]] = true
		}
		ret = append(ret, i)
	}
	return ret
}

func (T *Topology) serialize(ranks []int) string {
	order := make([]int, T.Len())
	for i, r := range ranks {
		order[r] = i
	}
	atoms := make([]string, T.Len())
	for k, i := range order {
		atoms[k] = atomLabel(T.Atoms[i])
	}
	type cbond struct {
		i, j int
		sym  string
	}
	bonds := make([]cbond, 0, len(T.Bonds))
	for _, b := range T.Bonds {
		i, j := ranks[b.At1.Index], ranks[b.At2.Index]
		if i > j {
			i, j = j, i
		}
		sym, ok := bondSymbols[b.Order]
		if !ok {
			sym = "-"
		}
		bonds = append(bonds, cbond{i, j, sym})
	}
	sort.Slice(bonds, func(a, b int) bool {
		if bonds[a].i != bonds[b].i {
			return bonds[a].i < bonds[b].i
		}
		return bonds[a].j < bonds[b].j
	})
	bs := make([]string, len(bonds))
	for k, b := range bonds {
		bs[k] = fmt.Sprintf("%d%s%d", b.i, b.sym, b.j)
	}
	return strings.Join(atoms, atomSep) + partSep + strings.Join(bs, bondSep)
}

//canonSearch holds the state of the search for the smallest serialization over the
//individualizations of tied atoms. Leaves with equal serializations give automorphisms,
//which are used to skip branches that are images of branches already explored.
type canonSearch struct {
	T         *Topology
	first     string
	firstPath []int
	firstR    []int
	best      string
	bestPath  []int
	bestR     []int
	autos     [][]int //autos[k][i] is the image of atom i
}

//automorphism returns the permutation that takes the atom at each position in r1 to the
//atom at the same position in r2.
func automorphism(r1, r2 []int) []int {
	inv := make([]int, len(r2))
	for i, v := range r2 {
		inv[v] = i
	}
	ret := make([]int, len(r1))
	for i, v := range r1 {
		ret[i] = inv[v]
	}
	return ret
}

func commonPrefix(a, b []int) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

//orbits returns a union-find over the atoms, joined by the known automorphisms that
//fix every atom in path.
func (S *canonSearch) orbits(path []int) unionFind {
	u := newUnionFind(S.T.Len())
	for _, g := range S.autos {
		fixes := true
		for _, v := range path {
			if g[v] != v {
				fixes = false
				break
			}
		}
		if !fixes {
			continue
		}
		for i, v := range g {
			u.union(i, v)
		}
	}
	return u
}

//leaf records a discrete labeling and returns the depth to go back to.
func (S *canonSearch) leaf(ranks, path []int) int {
	s := S.T.serialize(ranks)
	if S.firstR == nil {
		S.first, S.firstPath, S.firstR = s, path, ranks
		S.best, S.bestPath, S.bestR = s, path, ranks
		return len(path)
	}
	if s == S.first {
		S.autos = append(S.autos, automorphism(S.firstR, ranks))
		return commonPrefix(path, S.firstPath)
	}
	if s == S.best {
		S.autos = append(S.autos, automorphism(S.bestR, ranks))
		return commonPrefix(path, S.bestPath)
	}
	if s < S.best {
		S.best, S.bestPath, S.bestR = s, path, ranks
	}
	return len(path)
}

//search refines ranks and explores the individualizations of the first tied class.
//It returns the depth the search has to go back to.
func (S *canonSearch) search(ranks, path []int) int {
	ranks = S.T.refine(ranks)
	tie := S.T.firstTie(ranks)
	if tie == nil {
		return S.leaf(ranks, path)
	}
	depth := len(path)
	done := make([]int, 0, len(tie))
	for _, v := range tie {
		if len(done) > 0 {
			u := S.orbits(path)
			if slices.ContainsFunc(done, func(w int) bool { return u.find(w) == u.find(v) }) {
				continue
			}
		}
		r := slices.Clone(ranks)
		for i := range r {
			if r[i] == ranks[v] && i != v {
				r[i]++
			}
		}
		back := S.search(r, append(slices.Clip(path), v))
		if back < depth {
			return back
		}
		done = append(done, v)
	}
	return depth
}

//canonical returns the smallest serialization over the individualizations of tied atoms,
//and the ranks that produce it.
func (T *Topology) canonical(ranks []int) (string, []int) {
	S := &canonSearch{T: T}
	S.search(ranks, nil)
	return S.best, S.bestR
}

//CanonicalRanks returns, for each atom, its position in the canonical order.
func (T *Topology) CanonicalRanks() []int {
	if T.Len() == 0 {
		return nil
	}
	_, r := T.canonical(T.initialRanks())
	return r
}

//IDCode returns the canonical code of the molecular graph. The code does not depend on
//the order of atoms and bonds, and deriving it twice from an unchanged topology gives
//identical strings.
func (T *Topology) IDCode() string {
	if T.Len() == 0 {
		return ""
	}
	s, _ := T.canonical(T.initialRanks())
	return s
}

//ParseIDCode builds a topology from a canonical code. Atoms are in canonical order, so
//ParseIDCode(T.IDCode()).IDCode()==T.IDCode().
func ParseIDCode(code string) (*Topology, error) {
	parts := strings.Split(strings.TrimSpace(code), partSep)
	if len(parts) != 2 || parts[0] == "" {
		return nil, newError(fmt.Sprintf("Malformed structure code %q", code), "ParseIDCode", true)
	}
	T := NewTopology()
	for _, v := range strings.Split(parts[0], atomSep) {
		m := atomRegex.FindStringSubmatch(v)
		if m == nil {
			return nil, newError(fmt.Sprintf("Malformed atom %q in structure code", v), "ParseIDCode", true)
		}
		at := &Atom{Symbol: m[1]}
		if m[2] != "" {
			at.Charge, _ = strconv.Atoi(m[2]) //the regexp ensures it's a number
		}
		if m[3] != "" {
			at.ImplicitH, _ = strconv.Atoi(m[3])
		}
		T.AddAtom(at)
	}
	if parts[1] == "" {
		return T, nil
	}
	for _, v := range strings.Split(parts[1], bondSep) {
		m := bondRegex.FindStringSubmatch(v)
		if m == nil {
			return nil, newError(fmt.Sprintf("Malformed bond %q in structure code", v), "ParseIDCode", true)
		}
		i, _ := strconv.Atoi(m[1])
		j, _ := strconv.Atoi(m[3])
		if _, err := T.AddBond(i, j, symbolBondOrders[m[2]]); err != nil {
			return nil, errDecorate(err, "ParseIDCode")
		}
	}
	return T, nil
}
