/*
 * systematic.go, part of goconf.
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
	"container/heap"
	"math"
	"slices"

	chem "github.com/rmera/goconf"
	"github.com/rmera/goconf/clash"
)

//combination is a choice of one state per torsion. Only the states from pos on can
//be advanced, so every combination is reached from exactly one parent.
type combination struct {
	idx  []int
	pos  int
	logp float64
}

//combinations is a max-heap on the log-likelihood, with ties broken by the state indexes.
type combinations []*combination

func (c combinations) Len() int { return len(c) }
func (c combinations) Less(i, j int) bool {
	if c[i].logp != c[j].logp {
		return c[i].logp > c[j].logp
	}
	return slices.Compare(c[i].idx, c[j].idx) < 0
}
func (c combinations) Swap(i, j int)       { c[i], c[j] = c[j], c[i] }
func (c *combinations) Push(x interface{}) { *c = append(*c, x.(*combination)) }
func (c *combinations) Pop() interface{} {
	old := *c
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*c = old[:n-1]
	return x
}

//systematic enumerates the combinations of rotamer states by decreasing likelihood
//(the product of the frequencies of the states), trying at most maxTrials of them.
type systematic struct {
	*rotamers
	checker   *clash.Checker
	queue     combinations
	trials    int
	maxTrials int
}

func newSystematic(r *rotamers, checker *clash.Checker, maxTrials int) *systematic {
	S := &systematic{rotamers: r, checker: checker, maxTrials: maxTrials}
	root := &combination{idx: make([]int, len(r.torsions))}
	root.logp = S.logLikelihood(root.idx)
	heap.Push(&S.queue, root)
	return S
}

func (S *systematic) logLikelihood(idx []int) float64 {
	var l float64
	for i, k := range idx {
		l += math.Log(S.states[i][k].Freq)
	}
	return l
}

//expand queues the successors of c. As states are sorted by decreasing frequency,
//successors are never more likely than c.
func (S *systematic) expand(c *combination) {
	for j := c.pos; j < len(c.idx); j++ {
		if c.idx[j]+1 >= len(S.states[j]) {
			continue
		}
		idx := slices.Clone(c.idx)
		idx[j]++
		heap.Push(&S.queue, &combination{idx: idx, pos: j, logp: S.logLikelihood(idx)})
	}
}

func (S *systematic) Next(mol *chem.Molecule) *chem.Molecule {
	if mol == nil {
		return nil
	}
	for S.trials < S.maxTrials && S.queue.Len() > 0 {
		c := heap.Pop(&S.queue).(*combination)
		S.expand(c)
		S.trials++
		if !S.set(mol, c.idx) {
			continue
		}
		if S.checker != nil && S.checker.Clashes(mol.Coords) {
			continue
		}
		return mol
	}
	S.restore(mol)
	return nil
}
