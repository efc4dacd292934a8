/*
 * field.go, part of goconf.
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

package forcefield

import (
	"fmt"
	"math"

	chem "github.com/rmera/goconf"
	"gonum.org/v1/gonum/diff/fd"
)

type bondTerm struct {
	i, j  int
	k, r0 float64
}

type angleTerm struct {
	i, j, k int //j is the vertex
	kc      float64
	cos0    float64
	linear  bool
}

type torsionTerm struct {
	i, j, k, l int
	v          float64
	n          float64
	phase      float64
}

type pairTerm struct {
	i, j int
	eps  float64
	r0   float64
	qq   float64
}

//Field is a force field instantiated for one topology. It evaluates the energy (kcal/mol)
//and its gradient on flat coordinate slices, x0 y0 z0 x1 y1 z1..., in A.
//A Field is read-only after New, so it can be used from several goroutines.
type Field struct {
	n        int
	bonds    []bondTerm
	angles   []angleTerm
	torsions []torsionTerm
	pairs    []pairTerm
}

//New builds the force field terms for top with the given table set. It returns an error
//wrapping ErrMissingParameter if some element has no parameters, or ErrUnknownTableSet.
func New(top *chem.Topology, set TableSet) (*Field, error) {
	if err := set.check(); err != nil {
		return nil, err
	}
	F := &Field{n: top.Len()}
	elems := make([]element, top.Len())
	vdw := make([]float64, top.Len())
	for i, at := range top.Atoms {
		e, r, err := params(at)
		if err != nil {
			return nil, err
		}
		elems[i], vdw[i] = e, r
	}
	hyb := make([]int, top.Len())
	for i := range hyb {
		hyb[i] = set.hybridization(top, i)
	}
	for _, b := range top.Bonds {
		i, j := b.At1.Index, b.At2.Index
		F.bonds = append(F.bonds, bondTerm{i: i, j: j, k: bondK * b.Order, r0: bondLength(elems[i].covrad, elems[j].covrad, b.Order)})
	}
	for j := 0; j < top.Len(); j++ {
		nb := top.Neighbors(j)
		theta0 := idealAngle(hyb[j])
		for a := 0; a < len(nb); a++ {
			for c := a + 1; c < len(nb); c++ {
				t := angleTerm{i: nb[a], j: j, k: nb[c]}
				if hyb[j] == 1 {
					t.linear = true
					t.kc = linearK
				} else {
					t.kc = angleK / math.Pow(math.Sin(theta0), 2)
					t.cos0 = math.Cos(theta0)
				}
				F.angles = append(F.angles, t)
			}
		}
	}
	for _, b := range top.Bonds {
		F.torsions = append(F.torsions, torsionTerms(top, b, hyb)...)
	}
	dist := top.Distances()
	for i := 0; i < top.Len(); i++ {
		for j := i + 1; j < top.Len(); j++ {
			d := dist[i][j]
			if d == 1 || d == 2 {
				continue
			}
			p := pairTerm{
				i:   i,
				j:   j,
				eps: math.Sqrt(elems[i].eps * elems[j].eps),
				r0:  vdwScale * (vdw[i] + vdw[j]),
				qq:  float64(top.Atom(i).Charge * top.Atom(j).Charge),
			}
			if d == 3 {
				p.eps *= scale14
				p.qq *= scale14
			}
			F.pairs = append(F.pairs, p)
		}
	}
	return F, nil
}

//torsionTerms returns the torsion terms around the bond b. The barrier is divided among
//all the dihedrals sharing the bond.
func torsionTerms(top *chem.Topology, b *chem.Bond, hyb []int) []torsionTerm {
	j, k := b.At1.Index, b.At2.Index
	if hyb[j] == 1 || hyb[k] == 1 {
		return nil
	}
	var v, n, phase float64
	switch {
	case b.Order == 2:
		v, n, phase = doubleV, 2, math.Pi
	case b.Aromatic():
		v, n, phase = doubleV/2, 2, math.Pi
	case b.Order != 1:
		return nil
	case amide(top, j, k):
		v, n, phase = amideV, 2, math.Pi
	case hyb[j] == 2 && hyb[k] == 2:
		v, n, phase = conjV, 2, math.Pi
	case hyb[j] == 3 && hyb[k] == 3:
		v, n, phase = sp3V, 3, 0
	default:
		return nil
	}
	var ret []torsionTerm
	for _, i := range top.Neighbors(j) {
		if i == k {
			continue
		}
		for _, l := range top.Neighbors(k) {
			if l == j || l == i {
				continue
			}
			ret = append(ret, torsionTerm{i: i, j: j, k: k, l: l, n: n, phase: phase})
		}
	}
	for x := range ret {
		ret[x].v = v / float64(len(ret))
	}
	return ret
}

func amide(top *chem.Topology, i, j int) bool {
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

//Atoms returns the number of atoms the field was built for.
func (F *Field) Atoms() int {
	return F.n
}

//String returns a summary of the number of terms of each kind.
func (F *Field) String() string {
	return fmt.Sprintf("%d atoms, %d bonds, %d angles, %d torsions, %d non-bonded pairs", F.n, len(F.bonds), len(F.angles), len(F.torsions), len(F.pairs))
}

func atom(x []float64, i int) [3]float64 {
	return [3]float64{x[3*i], x[3*i+1], x[3*i+2]}
}

func diff3(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func dot3(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross3(a, b [3]float64) [3]float64 {
	return [3]float64{a[1]*b[2] - a[2]*b[1], a[2]*b[0] - a[0]*b[2], a[0]*b[1] - a[1]*b[0]}
}

func addTo(grad []float64, i int, f float64, v [3]float64) {
	grad[3*i] += f * v[0]
	grad[3*i+1] += f * v[1]
	grad[3*i+2] += f * v[2]
}

//minimum distance used in pair terms, to keep energies finite for coincident atoms.
const minDist = 1e-3

func dihedral(a, b, c, d [3]float64) float64 {
	b1 := diff3(b, a)
	b2 := diff3(c, b)
	b3 := diff3(d, c)
	n1 := cross3(b1, b2)
	n2 := cross3(b2, b3)
	return math.Atan2(math.Sqrt(dot3(b2, b2))*dot3(b1, n2), dot3(n1, n2))
}

func (t torsionTerm) energy(a, b, c, d [3]float64) float64 {
	phi := dihedral(a, b, c, d)
	return 0.5 * t.v * (1 + math.Cos(t.n*phi-t.phase))
}

//cosAngle returns the cosine of the angle at the vertex j, the two bond vectors and their lengths.
func cosAngle(x []float64, t angleTerm) (float64, [3]float64, [3]float64, float64, float64) {
	u := diff3(atom(x, t.i), atom(x, t.j))
	v := diff3(atom(x, t.k), atom(x, t.j))
	nu := math.Sqrt(dot3(u, u))
	nv := math.Sqrt(dot3(v, v))
	if nu < minDist || nv < minDist {
		return 0, u, v, 0, 0
	}
	c := dot3(u, v) / (nu * nv)
	return math.Max(-1, math.Min(1, c)), u, v, nu, nv
}

func (t angleTerm) energy(c float64) float64 {
	if t.linear {
		return t.kc * (1 + c)
	}
	return t.kc * (c - t.cos0) * (c - t.cos0)
}

func (p pairTerm) energy(r float64) (float64, float64) {
	r = math.Max(r, minDist)
	s6 := math.Pow(p.r0/r, 6)
	e := p.eps * (s6*s6 - 2*s6)
	de := 12 * p.eps * (s6 - s6*s6) / r
	if p.qq != 0 {
		e += coulombK * p.qq / (dielectric * r * r)
		de -= 2 * coulombK * p.qq / (dielectric * r * r * r)
	}
	return e, de
}

//Energy returns the energy of the coordinates x, in kcal/mol.
func (F *Field) Energy(x []float64) float64 {
	if len(x) != 3*F.n {
		panic(fmt.Sprintf("forcefield: %d coordinates for %d atoms", len(x), F.n))
	}
	var e float64
	for _, b := range F.bonds {
		d := diff3(atom(x, b.i), atom(x, b.j))
		r := math.Sqrt(dot3(d, d))
		e += b.k * (r - b.r0) * (r - b.r0)
	}
	for _, t := range F.angles {
		c, _, _, _, _ := cosAngle(x, t)
		e += t.energy(c)
	}
	for _, t := range F.torsions {
		e += t.energy(atom(x, t.i), atom(x, t.j), atom(x, t.k), atom(x, t.l))
	}
	for _, p := range F.pairs {
		d := diff3(atom(x, p.i), atom(x, p.j))
		pe, _ := p.energy(math.Sqrt(dot3(d, d)))
		e += pe
	}
	return e
}

//Gradient puts in grad the gradient of the energy at x. Pair, bond and angle terms are
//differentiated analytically, torsions by central finite differences.
func (F *Field) Gradient(grad, x []float64) {
	if len(x) != 3*F.n || len(grad) != len(x) {
		panic(fmt.Sprintf("forcefield: %d coordinates and %d gradient components for %d atoms", len(x), len(grad), F.n))
	}
	for i := range grad {
		grad[i] = 0
	}
	for _, b := range F.bonds {
		d := diff3(atom(x, b.i), atom(x, b.j))
		r := math.Sqrt(dot3(d, d))
		if r < minDist {
			continue
		}
		f := 2 * b.k * (r - b.r0) / r
		addTo(grad, b.i, f, d)
		addTo(grad, b.j, -f, d)
	}
	for _, t := range F.angles {
		c, u, v, nu, nv := cosAngle(x, t)
		if nu == 0 {
			continue
		}
		dEdc := 2 * t.kc * (c - t.cos0)
		if t.linear {
			dEdc = t.kc
		}
		var gi, gk [3]float64
		for m := 0; m < 3; m++ {
			gi[m] = v[m]/(nu*nv) - c*u[m]/(nu*nu)
			gk[m] = u[m]/(nu*nv) - c*v[m]/(nv*nv)
		}
		addTo(grad, t.i, dEdc, gi)
		addTo(grad, t.k, dEdc, gk)
		addTo(grad, t.j, -dEdc, gi)
		addTo(grad, t.j, -dEdc, gk)
	}
	local := make([]float64, 12)
	lgrad := make([]float64, 12)
	settings := &fd.Settings{Formula: fd.Central, Step: 1e-5}
	for _, t := range F.torsions {
		idx := [4]int{t.i, t.j, t.k, t.l}
		for a, i := range idx {
			copy(local[3*a:3*a+3], x[3*i:3*i+3])
		}
		fd.Gradient(lgrad, func(p []float64) float64 {
			return t.energy(atom(p, 0), atom(p, 1), atom(p, 2), atom(p, 3))
		}, local, settings)
		for a, i := range idx {
			addTo(grad, i, 1, atom(lgrad, a))
		}
	}
	for _, p := range F.pairs {
		d := diff3(atom(x, p.i), atom(x, p.j))
		r := math.Sqrt(dot3(d, d))
		if r < minDist {
			continue
		}
		_, de := p.energy(r)
		addTo(grad, p.i, de/r, d)
		addTo(grad, p.j, -de/r, d)
	}
}
