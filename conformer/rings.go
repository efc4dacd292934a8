/*
 * rings.go, part of goconf.
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

	chem "github.com/rmera/goconf"
	"github.com/rmera/goconf/fragcache"
	v3 "github.com/rmera/goconf/v3"
)

//template is the geometry of a ring system. atoms holds the indexes, in the molecule,
//of the ring atoms in the canonical order of the ring system, which is the order of
//the rows of coords. coords is nil if the geometry was not in the cache.
type template struct {
	key    string
	atoms  []int
	coords *v3.Matrix
}

//ringTemplates looks up the ring systems of top in cache.
func ringTemplates(ctx context.Context, top *chem.Topology, cache *fragcache.Cache) []*template {
	if cache == nil {
		return nil
	}
	var ret []*template
	for _, sys := range top.RingSystems() {
		codec, err := chem.NewCodec(top.SubTopology(sys))
		if err != nil {
			continue
		}
		t := &template{key: codec.Structure(), atoms: make([]int, len(sys))}
		for k, r := range codec.Ranks() {
			t.atoms[r] = sys[k]
		}
		t.coords, _ = cache.Get(ctx, t.key, len(sys))
		ret = append(ret, t)
	}
	return ret
}

//StoreRings saves in cache the geometries, taken from mol, of the ring systems of mol
//that are not there yet. mol should be minimized, as later molecules reuse these
//geometries almost rigidly. A failure in the second tier of the cache is returned,
//but the geometries are still kept in memory.
func StoreRings(ctx context.Context, mol *chem.Molecule, cache *fragcache.Cache) error {
	if cache == nil || mol == nil {
		return nil
	}
	var ret error
	for _, t := range ringTemplates(ctx, mol.Topology, cache) {
		if t.coords != nil {
			continue
		}
		c := v3.Zeros(len(t.atoms))
		c.SomeVecs(mol.Coords, t.atoms)
		if err := cache.Put(ctx, t.key, c); err != nil && ret == nil {
			ret = err
		}
	}
	return ret
}
