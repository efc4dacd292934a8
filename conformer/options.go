/*
 * options.go, part of goconf.
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
	"fmt"
	"strings"

	"github.com/rmera/goconf/fragcache"
	"github.com/rmera/goconf/torsion"
)

//Kind selects a sampling strategy.
type Kind int

const (
	PureRandom      Kind = iota //uniform draw of rotamer states
	LowEnergyRandom             //draw weighted by the frequency of each state
	AdaptiveRandom              //weighted draw, clashing combinations are relieved or rejected
	Systematic                  //enumeration of combinations, most likely first
	SelfOrganized               //distance-geometry relaxation, no rotamer model
)

var kindNames = map[Kind]string{
	PureRandom:      "random",
	LowEnergyRandom: "lowenergy",
	AdaptiveRandom:  "adaptive",
	Systematic:      "systematic",
	SelfOrganized:   "selforganized",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

//ParseKind returns the Kind with the given name. Matching is case-insensitive.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for k, v := range kindNames {
		if v == n {
			return k, nil
		}
	}
	return 0, fmt.Errorf("conformer: unknown strategy %q", name)
}

//Options contains the settings of a sampling strategy. The zero value is not
//usable, use DefaultOptions.
type Options struct {
	kind        Kind
	maxTrials   int
	count       int
	seed        int64
	source      torsion.Source
	cache       *fragcache.Cache
	clashFactor float64
}

//DefaultOptions returns the options for a low-energy random strategy with up to
//1000 trials.
func DefaultOptions() *Options {
	return &Options{
		kind:        LowEnergyRandom,
		maxTrials:   1000,
		count:       16,
		seed:        1,
		source:      torsion.Library{},
		clashFactor: 0.65,
	}
}

//Kind sets the strategy, if a value is given, and returns the current one.
func (O *Options) Kind(k ...Kind) Kind {
	if len(k) > 0 {
		O.kind = k[0]
	}
	return O.kind
}

//MaxTrials sets the maximum number of internal trials (rotamer combinations drawn or
//enumerated) if a positive value is given, and returns the current one.
func (O *Options) MaxTrials(n ...int) int {
	if len(n) > 0 && n[0] > 0 {
		O.maxTrials = n[0]
	}
	return O.maxTrials
}

//Count sets the number of geometries the self-organized strategy builds, if a positive
//value is given, and returns the current one.
func (O *Options) Count(n ...int) int {
	if len(n) > 0 && n[0] > 0 {
		O.count = n[0]
	}
	return O.count
}

//Seed sets the seed of the random number generator, if given, and returns the current one.
func (O *Options) Seed(s ...int64) int64 {
	if len(s) > 0 {
		O.seed = s[0]
	}
	return O.seed
}

//Source sets the source of rotamer states if a non-nil one is given, and returns the
//current one.
func (O *Options) Source(s ...torsion.Source) torsion.Source {
	if len(s) > 0 && s[0] != nil {
		O.source = s[0]
	}
	return O.source
}

//Cache sets the cache of ring system geometries, if given, and returns the current one.
//A nil cache disables the caching.
func (O *Options) Cache(c ...*fragcache.Cache) *fragcache.Cache {
	if len(c) > 0 {
		O.cache = c[0]
	}
	return O.cache
}

//ClashFactor sets, if a positive value is given, the fraction of the sum of the van der
//Waals radii of two atoms below which they clash. Returns the current value.
func (O *Options) ClashFactor(f ...float64) float64 {
	if len(f) > 0 && f[0] > 0 {
		O.clashFactor = f[0]
	}
	return O.clashFactor
}
