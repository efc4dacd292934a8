/*
 * selforg.go, part of goconf.
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

package conformer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	chem "github.com/rmera/goconf"
	"github.com/rmera/goconf/torsion"
	v3 "github.com/rmera/goconf/v3"
)

const (
	embedCycles = 100
	//fraction of the sum of van der Waals radii kept between distant atoms.
	contactFactor = 0.65
	//two self-organized geometries with all torsions within this angle are the same.
	diversityTol = 30 * chem.Deg2Rad
)

//bounds holds the lower and upper limits for the distance between every pair of atoms.
type bounds struct {
	n      int
	lo, hi []float64
	pairs  [][2]int
	tight  [][2]int //pairs constrained by bonds, angles or ring templates
}

func (B *bounds) set(i, j int, lo, hi float64) {
	B.lo[i*B.n+j], B.lo[j*B.n+i] = lo, lo
	B.hi[i*B.n+j], B.hi[j*B.n+i] = hi, hi
}

func bondLength(top *chem.Topology, cov []float64, i, j int) float64 {
	order := 1.0
	if b := top.BondBetween(i, j); b != nil {
		order = b.Order
	}
	return cov[i] + cov[j] - 0.71*math.Log10(order)
}

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

//fourDistances returns the distance between the ends of the chain a-b-c-d with bond
//lengths ab, bc, cd and angles t1 (at b) and t2 (at c), for the dihedrals 0 and 180 degrees.
func fourDistances(ab, bc, cd, t1, t2 float64) (cis, trans float64) {
	A := [3]float64{ab * math.Cos(t1), ab * math.Sin(t1), 0}
	dist := func(phi float64) float64 {
		D := [3]float64{bc - cd*math.Cos(t2), cd * math.Sin(t2) * math.Cos(phi), cd * math.Sin(t2) * math.Sin(phi)}
		return math.Sqrt((A[0]-D[0])*(A[0]-D[0]) + (A[1]-D[1])*(A[1]-D[1]) + (A[2]-D[2])*(A[2]-D[2]))
	}
	return dist(0), dist(math.Pi)
}

//newBounds derives distance bounds from the topology and the ring templates found
//in the cache.
func newBounds(top *chem.Topology, templates []*template) (*bounds, error) {
	n := top.Len()
	B := &bounds{n: n, lo: make([]float64, n*n), hi: make([]float64, n*n)}
	cov := make([]float64, n)
	vdw := make([]float64, n)
	maxcov := 0.0
	for i, at := range top.Atoms {
		var ok1, ok2 bool
		cov[i], ok1 = chem.CovalentRadius(at.Symbol)
		vdw[i], ok2 = chem.VdwRadius(at.Symbol)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("conformer: no radii for %s (atom %d)", at.Symbol, i)
		}
		maxcov = max(maxcov, cov[i])
	}
	dist := top.Distances()
	ringBond := func(i, j int) bool {
		b := top.BondBetween(i, j)
		return b != nil && top.InRing(b)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			B.pairs = append(B.pairs, [2]int{i, j})
			switch d := dist[i][j]; {
			case d < 0:
				B.set(i, j, vdw[i]+vdw[j], math.Inf(1))
			case d == 1:
				l := bondLength(top, cov, i, j)
				B.set(i, j, l-0.01, l+0.01)
				B.tight = append(B.tight, [2]int{i, j})
			case d == 2:
				k := commonNeighbor(top, dist, i, j, 1)
				a, b := bondLength(top, cov, i, k), bondLength(top, cov, k, j)
				l := math.Sqrt(a*a + b*b - 2*a*b*math.Cos(idealAngle(top.Hybridization(k))))
				B.set(i, j, l-0.03, l+0.03)
				B.tight = append(B.tight, [2]int{i, j})
			case d == 3:
				k := commonNeighbor(top, dist, i, j, 2)
				l := commonNeighbor(top, dist, k, j, 1)
				cis, trans := fourDistances(bondLength(top, cov, i, k), bondLength(top, cov, k, l),
					bondLength(top, cov, l, j), idealAngle(top.Hybridization(k)), idealAngle(top.Hybridization(l)))
				central := top.BondBetween(k, l)
				planar := central.Order >= 1.5
				switch {
				case planar && ringBond(i, k) && ringBond(k, l) && ringBond(l, j):
					B.set(i, j, cis-0.05, cis+0.05)
				case planar:
					B.set(i, j, trans-0.05, trans+0.05)
				default:
					B.set(i, j, cis-0.05, trans+0.05)
				}
			default:
				B.set(i, j, contactFactor*(vdw[i]+vdw[j]), float64(d)*2*maxcov)
			}
		}
	}
	for _, t := range templates {
		if t.coords == nil {
			continue
		}
		for a := range t.atoms {
			for b := a + 1; b < len(t.atoms); b++ {
				l := t.coords.Distance(a, b)
				B.set(t.atoms[a], t.atoms[b], l-0.01, l+0.01)
				if dist[t.atoms[a]][t.atoms[b]] > 2 {
					B.tight = append(B.tight, [2]int{t.atoms[a], t.atoms[b]})
				}
			}
		}
	}
	return B, nil
}

//commonNeighbor returns the lowest-index neighbor of i that is at topological distance d from j.
func commonNeighbor(top *chem.Topology, dist [][]int, i, j, d int) int {
	for _, k := range top.Neighbors(i) {
		if dist[k][j] == d {
			return k
		}
	}
	panic(fmt.Sprintf("conformer: no path of length %d from %d to %d", d+1, i, j))
}

//adjust moves atoms p[0] and p[1] of x toward the bounds of their distance, by
//a fraction lambda of the violation.
func (B *bounds) adjust(x []float64, p [2]int, lambda float64, rng *rand.Rand) {
	i, j := 3*p[0], 3*p[1]
	dx := [3]float64{x[i] - x[j], x[i+1] - x[j+1], x[i+2] - x[j+2]}
	d := math.Sqrt(dx[0]*dx[0] + dx[1]*dx[1] + dx[2]*dx[2])
	lo, hi := B.lo[p[0]*B.n+p[1]], B.hi[p[0]*B.n+p[1]]
	var target float64
	switch {
	case d < lo:
		target = lo
	case d > hi:
		target = hi
	default:
		return
	}
	if d < 1e-8 {
		for k := 0; k < 3; k++ {
			x[j+k] += 0.1 * (rng.Float64() - 0.5)
		}
		return
	}
	f := lambda * 0.5 * (target - d) / d
	for k := 0; k < 3; k++ {
		x[i+k] += f * dx[k]
		x[j+k] -= f * dx[k]
	}
}

//strain is the sum of the squared violations of the bounds.
func (B *bounds) strain(x []float64) float64 {
	var s float64
	for _, p := range B.pairs {
		i, j := 3*p[0], 3*p[1]
		d := math.Sqrt((x[i]-x[j])*(x[i]-x[j]) + (x[i+1]-x[j+1])*(x[i+1]-x[j+1]) + (x[i+2]-x[j+2])*(x[i+2]-x[j+2]))
		lo, hi := B.lo[p[0]*B.n+p[1]], B.hi[p[0]*B.n+p[1]]
		if d < lo {
			s += (lo - d) * (lo - d)
		} else if d > hi {
			s += (d - hi) * (d - hi)
		}
	}
	return s
}

//embed builds one geometry by stochastic proximity embedding: starting from random
//positions, randomly chosen pairs are pulled toward their bounds with a learning
//rate that decreases over the cycles. Returns the geometry and its strain.
func (B *bounds) embed(rng *rand.Rand) (*v3.Matrix, float64) {
	box := 1.5*math.Cbrt(float64(B.n)) + 1
	x := make([]float64, 3*B.n)
	for i := range x {
		x[i] = box * (2*rng.Float64() - 1)
	}
	if len(B.pairs) > 0 {
		for c := 0; c < embedCycles; c++ {
			lambda := 1 - 0.99*float64(c)/float64(embedCycles)
			for s := 0; s < len(B.pairs); s++ {
				B.adjust(x, B.pairs[rng.Intn(len(B.pairs))], lambda, rng)
			}
			for _, p := range B.tight {
				B.adjust(x, p, lambda, rng)
			}
		}
	}
	coords, _ := v3.NewMatrix(x)
	return coords, B.strain(x)
}

type strained struct {
	coords *v3.Matrix
	strain float64
}

//embedMany builds count geometries, sorted by increasing strain.
func (B *bounds) embedMany(ctx context.Context, rng *rand.Rand, count int) []strained {
	ret := make([]strained, 0, count)
	for i := 0; i < count; i++ {
		if ctx.Err() != nil {
			break
		}
		c, s := B.embed(rng)
		ret = append(ret, strained{c, s})
	}
	sort.SliceStable(ret, func(i, j int) bool { return ret[i].strain < ret[j].strain })
	return ret
}

//selfOrganized builds count geometries the first time Next is called, and serves those
//that are different from each other, from the least to the most strained.
type selfOrganized struct {
	ctx      context.Context
	top      *chem.Topology
	torsions []torsion.Torsion
	bounds   *bounds
	o        *Options
	rng      *rand.Rand
	built    bool
	geoms    []*v3.Matrix
	next     int
}

func newSelfOrganized(ctx context.Context, mol *chem.Molecule, torsions []torsion.Torsion, o *Options) (*selfOrganized, error) {
	b, err := newBounds(mol.Topology, ringTemplates(ctx, mol.Topology, o.Cache()))
	if err != nil {
		return nil, err
	}
	return &selfOrganized{
		ctx:      ctx,
		top:      mol.Topology,
		torsions: torsions,
		bounds:   b,
		o:        o,
		rng:      rand.New(rand.NewSource(o.Seed())),
	}, nil
}

func (S *selfOrganized) build() {
	S.built = true
	all := S.bounds.embedMany(S.ctx, S.rng, S.o.Count())
	if len(all) == 0 {
		return
	}
	filter := torsion.NewFilter(diversityTol)
	for _, g := range all {
		m := &chem.Molecule{Topology: S.top, Coords: g.coords}
		if filter.IsRedundant(torsion.Compute(m, S.torsions)) {
			continue
		}
		S.geoms = append(S.geoms, g.coords)
	}
}

func (S *selfOrganized) Next(mol *chem.Molecule) *chem.Molecule {
	if mol == nil || mol.Len() != S.bounds.n {
		return nil
	}
	if !S.built {
		S.build()
	}
	if S.next >= len(S.geoms) {
		return nil
	}
	mol.Coords.Copy(S.geoms[S.next].Dense)
	S.next++
	return mol
}

//Embed replaces the coordinates of mol by a 3D geometry built from its topology alone,
//the least strained of a few attempts. Ring systems are taken from the fragment cache
//of o, if any. See StoreRings for adding them to the cache.
func Embed(ctx context.Context, mol *chem.Molecule, o *Options) error {
	if mol == nil || mol.Len() == 0 {
		return errors.New("conformer: empty molecule")
	}
	if o == nil {
		o = DefaultOptions()
	}
	if mol.Len() == 1 {
		mol.SetCoord(0, 0, 0, 0)
		return nil
	}
	templates := ringTemplates(ctx, mol.Topology, o.Cache())
	b, err := newBounds(mol.Topology, templates)
	if err != nil {
		return err
	}
	all := b.embedMany(ctx, rand.New(rand.NewSource(o.Seed())), 3)
	if len(all) == 0 {
		return ctx.Err()
	}
	mol.Coords.Copy(all[0].coords.Dense)
	return nil
}
