/*
 * lovo.go, part of goconf.
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
	"cmp"
	"fmt"
	"math"
	"slices"
	"sort"
	"sync"

	v3 "github.com/rmera/goconf/v3"
)

//LOVOReturn contains the results of a LOVO calculation over a conformer ensemble.
type LOVOReturn struct {
	N          int
	Natoms     []int     //IDs of the N most rigid atoms
	MSD        []float64 //the MSD for all candidate atoms, not only the N most rigid.
	Iterations int       //The iterations that were needed for convergency.
	Aligned    []*v3.Matrix
}

//String returns a string representation of the LOVOReturn object.
func (L *LOVOReturn) String() string {
	return fmt.Sprintf("N: %d, Natoms: %v, MSD: %v, Iterations needed: %d", L.N, L.Natoms, L.MSD, L.Iterations)
}

//LOVOnMostRigid superimposes the conformers in confs onto ref using only the atoms
//that move the least across the ensemble. The atoms are chosen iteratively: all candidate atoms are
//used for a first superposition, then the N with the smallest MSD are used for the next, until the
//set doesn't change. The conformers superimposed with the final set are returned in the Aligned field.
//If you use this function in your research, please cite the reference for the LOVO alignment method:
//10.1371/journal.pone.0119264.
func LOVOnMostRigid(ref *v3.Matrix, confs []*v3.Matrix, o *Options) (*LOVOReturn, error) {
	if o == nil {
		o = DefaultOptions()
	}
	if len(confs) == 0 {
		return nil, fmt.Errorf("LOVOnMostRigid: no conformers given")
	}
	candidates := o.Atoms()
	if len(candidates) == 0 {
		candidates = make([]int, ref.NVecs())
		for i := range candidates {
			candidates[i] = i
		}
	}
	if len(candidates) < 3 {
		return nil, fmt.Errorf("LOVOnMostRigid: at least 3 atoms are needed, got %d", len(candidates))
	}
	msd, aligned, err := MSDConformers(ref, confs, candidates, o.Cpus())
	if err != nil {
		return nil, err
	}
	current := mostRigid(byRigidity(msd, candidates), o)
	var itercount int
	converged := false
	for itercount < o.MaxIter() {
		itercount++
		msd, aligned, err = MSDConformers(ref, confs, current, o.Cpus())
		if err != nil {
			return nil, err
		}
		next := mostRigid(byRigidity(msd, candidates), o)
		if slices.Equal(next, current) {
			converged = true
			break
		}
		current = next
	}
	if !converged {
		//aligned must correspond to the returned set
		if msd, aligned, err = MSDConformers(ref, confs, current, o.Cpus()); err != nil {
			return nil, err
		}
	}
	return &LOVOReturn{N: len(current), Natoms: current, MSD: msdFilter(msd, candidates), Iterations: itercount, Aligned: aligned}, nil
}

//atomMSD is the MSD of one atom over an ensemble.
type atomMSD struct {
	atom int
	msd  float64
}

//byRigidity returns the candidate atoms sorted by increasing MSD.
func byRigidity(msd []float64, candidates []int) []atomMSD {
	ret := make([]atomMSD, len(candidates))
	for i, v := range candidates {
		ret[i] = atomMSD{atom: v, msd: msd[v]}
	}
	slices.SortStableFunc(ret, func(a, b atomMSD) int { return cmp.Compare(a.msd, b.msd) })
	return ret
}

//mostRigid returns, sorted by index, the atoms to be used for the next superposition.
func mostRigid(sorted []atomMSD, o *Options) []int {
	n := nRigid(sorted, o)
	ret := make([]int, n)
	for i := range ret {
		ret[i] = sorted[i].atom
	}
	slices.Sort(ret)
	return ret
}

//nRigid returns how many of the atoms in sorted, which must be sorted by MSD, are to be used.
func nRigid(sorted []atomMSD, o *Options) int {
	if thr := o.LessThanRMSD(); thr > 0 {
		n := sort.Search(len(sorted), func(i int) bool { return math.Sqrt(sorted[i].msd) >= thr })
		return min(max(n, o.MinimumN()), len(sorted))
	}
	n := o.NMostRigid()
	if n <= 0 {
		n = len(sorted) / 3
	}
	return min(max(n, 3), len(sorted))
}

type msdandcoords struct {
	msd    []float64
	coords *v3.Matrix
	err    error
}

func concproc(c, ref *v3.Matrix, indexes []int) *msdandcoords {
	cr, _, err := Superimpose(ref, c, indexes)
	if err != nil {
		return &msdandcoords{err: err}
	}
	msd := make([]float64, c.NVecs())
	for i := range msd {
		a := cr.RawRowView(i)
		b := ref.RawRowView(i)
		for j := 0; j < 3; j++ {
			msd[i] += (a[j] - b[j]) * (a[j] - b[j])
		}
	}
	return &msdandcoords{msd: msd, coords: cr}
}

//MSDConformers returns the MSD for all atoms in a structure, averaged over the conformers in confs,
//after superimposing each conformer on ref using the atoms in indexes. It also returns the
//superimposed conformers. Up to cpus conformers are processed concurrently.
func MSDConformers(ref *v3.Matrix, confs []*v3.Matrix, indexes []int, cpus int) ([]float64, []*v3.Matrix, error) {
	cpus = max(cpus, 1)
	results := make([]*msdandcoords, len(confs))
	sem := make(chan struct{}, cpus)
	var wg sync.WaitGroup
	for i, c := range confs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, c *v3.Matrix) {
			defer func() { <-sem; wg.Done() }()
			results[i] = concproc(c, ref, indexes)
		}(i, c)
	}
	wg.Wait()
	MSD := make([]float64, ref.NVecs())
	aligned := make([]*v3.Matrix, len(confs))
	for k, r := range results {
		if r.err != nil {
			return nil, nil, fmt.Errorf("MSDConformers: conformer %d: %w", k, r.err)
		}
		for i, v := range r.msd {
			MSD[i] += v
		}
		aligned[k] = r.coords
	}
	for i := range MSD {
		MSD[i] /= float64(len(confs))
	}
	return MSD, aligned, nil
}

//msdFilter returns the MSD values of the atoms in indexes.
func msdFilter(msd []float64, indexes []int) []float64 {
	ret := make([]float64, len(indexes))
	for i, v := range indexes {
		ret[i] = msd[v]
	}
	return ret
}
