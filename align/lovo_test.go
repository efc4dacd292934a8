/*
 * lovo_test.go
 *
 * Copyright 2021 Raul Mera Adasme <rauldotmeraatusachdotcl>
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
 */

package align

import (
	"math"
	"math/rand"
	"testing"

	v3 "github.com/rmera/goconf/v3"
)

func TestLovo(Te *testing.T) {
	rng := rand.New(rand.NewSource(21))
	ref := randomPoints(rng, 12)
	confs := make([]*v3.Matrix, 6)
	for k := range confs {
		c := moved(Te, rng, ref)
		//the last 4 atoms are flexible: each is displaced 2 A in a random direction.
		for i := 8; i < 12; i++ {
			d := [3]float64{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
			n := math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
			for j := 0; j < 3; j++ {
				c.Set(i, j, c.At(i, j)+2*d[j]/n)
			}
		}
		confs[k] = c
	}
	o := DefaultOptions()
	o.Cpus(2)
	ret, err := LOVOnMostRigid(ref, confs, o)
	if err != nil {
		Te.Fatal(err)
	}
	if ret.N != 8 {
		Te.Fatalf("Expected the 8 rigid atoms, got %s", ret.String())
	}
	for i, v := range ret.Natoms {
		if v != i {
			Te.Errorf("Atom %d is not rigid: %v", v, ret.Natoms)
		}
	}
	for k, c := range ret.Aligned {
		for i := 0; i < 8; i++ {
			for j := 0; j < 3; j++ {
				if math.Abs(c.At(i, j)-ref.At(i, j)) > 1e-6 {
					Te.Errorf("Conformer %d atom %d not superimposed", k, i)
				}
			}
		}
	}
	if _, err := LOVOnMostRigid(ref, nil, o); err == nil {
		Te.Error("LOVO with no conformers should fail")
	}
}
