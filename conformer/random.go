/*
 * random.go, part of goconf.
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
	"math/rand"

	chem "github.com/rmera/goconf"
	"github.com/rmera/goconf/clash"
)

//random draws combinations of rotamer states. It never returns the same combination
//twice, and stops after maxTrials draws or when every combination has been drawn.
type random struct {
	*rotamers
	rng       *rand.Rand
	weighted  bool
	checker   *clash.Checker
	trials    int
	maxTrials int
	seen      map[string]bool
	space     float64
	idx       []int
}

func newRandom(r *rotamers, weighted bool, checker *clash.Checker, o *Options) *random {
	space := 1.0
	for _, s := range r.states {
		space *= float64(len(s))
	}
	return &random{
		rotamers:  r,
		rng:       rand.New(rand.NewSource(o.Seed())),
		weighted:  weighted,
		checker:   checker,
		maxTrials: o.MaxTrials(),
		seen:      make(map[string]bool),
		space:     space,
		idx:       make([]int, len(r.torsions)),
	}
}

func (R *random) draw() {
	for i, states := range R.states {
		if !R.weighted {
			R.idx[i] = R.rng.Intn(len(states))
			continue
		}
		u := R.rng.Float64()
		R.idx[i] = len(states) - 1
		for k, s := range states {
			u -= s.Freq
			if u < 0 {
				R.idx[i] = k
				break
			}
		}
	}
}

func (R *random) Next(mol *chem.Molecule) *chem.Molecule {
	if mol == nil {
		return nil
	}
	for R.trials < R.maxTrials && float64(len(R.seen)) < R.space {
		R.trials++
		R.draw()
		k := combinationKey(R.idx)
		if R.seen[k] {
			continue
		}
		R.seen[k] = true
		if !R.set(mol, R.idx) {
			continue
		}
		if R.checker != nil && !R.relieve(mol, R.checker) {
			continue
		}
		return mol
	}
	R.restore(mol)
	return nil
}
