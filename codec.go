/*
 * codec.go, part of goconf.
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
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"

	v3 "github.com/rmera/goconf/v3"
)

//Coordinates are stored as multiples of coordPrecision angstroms.
const coordPrecision = 1e-5

//Codec encodes the coordinates of molecules sharing one topology as compact ASCII strings.
//The coordinates are written in the canonical atom order of the topology, so a structure
//code and a coordinate code are enough to rebuild the molecule.
type Codec struct {
	structure string
	ranks     []int
	natoms    int
}

//NewCodec canonicalizes top and returns a Codec for it.
func NewCodec(top *Topology) (*Codec, error) {
	if top == nil || top.Len() == 0 {
		return nil, newError("Can't encode an empty topology", "NewCodec", true)
	}
	s, ranks := top.canonical(top.initialRanks())
	return &Codec{structure: s, ranks: ranks, natoms: top.Len()}, nil
}

//Structure returns the canonical structure code of the topology.
func (C *Codec) Structure() string {
	return C.structure
}

//Ranks returns the canonical position of each atom. The slice must not be modified.
func (C *Codec) Ranks() []int {
	return C.ranks
}

//EncodeCoords returns the coordinate code for coords, which must be in the atom order of the
//topology given to NewCodec. Each coordinate is quantized and stored as the zig-zag varint
//of its difference with the same coordinate of the previous atom, in URL-safe base64.
func (C *Codec) EncodeCoords(coords *v3.Matrix) (string, error) {
	if coords.NVecs() != C.natoms {
		return "", newError(fmt.Sprintf("Expected %d atoms, got %d", C.natoms, coords.NVecs()), "EncodeCoords", true)
	}
	ordered := make([]int, C.natoms)
	for i, r := range C.ranks {
		ordered[r] = i
	}
	code, err := encodeOrdered(coords, ordered)
	return code, errDecorate(err, "EncodeCoords")
}

//encodeOrdered encodes the rows of coords in the given order.
func encodeOrdered(coords *v3.Matrix, order []int) (string, error) {
	buf := make([]byte, 0, len(order)*3*3)
	var prev [3]int64
	for _, i := range order {
		row := coords.RawRowView(i)
		for j := 0; j < 3; j++ {
			if math.IsNaN(row[j]) || math.IsInf(row[j], 0) {
				return "", newError(fmt.Sprintf("Atom %d has invalid coordinates", i), "encodeOrdered", true)
			}
			q := int64(math.Round(row[j] / coordPrecision))
			buf = binary.AppendVarint(buf, q-prev[j])
			prev[j] = q
		}
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

//EncodeRawCoords encodes coords as a coordinate code keeping the order of the rows.
func EncodeRawCoords(coords *v3.Matrix) (string, error) {
	order := make([]int, coords.NVecs())
	for i := range order {
		order[i] = i
	}
	code, err := encodeOrdered(coords, order)
	return code, errDecorate(err, "EncodeRawCoords")
}

//DecodeRawCoords decodes a coordinate code with natoms atoms, without reordering the atoms.
func DecodeRawCoords(code string, natoms int) (*v3.Matrix, error) {
	c, err := decodeCanonical(code, natoms)
	return c, errDecorate(err, "DecodeRawCoords")
}

//decodeCanonical reads a coordinate code into a matrix in canonical atom order.
func decodeCanonical(code string, natoms int) (*v3.Matrix, error) {
	buf, err := base64.RawURLEncoding.DecodeString(code)
	if err != nil {
		return nil, newError(fmt.Sprintf("Malformed coordinate code: %s", err.Error()), "decodeCanonical", true)
	}
	ret := v3.Zeros(natoms)
	var prev [3]int64
	for i := 0; i < natoms; i++ {
		row := ret.RawRowView(i)
		for j := 0; j < 3; j++ {
			d, n := binary.Varint(buf)
			if n <= 0 {
				return nil, newError(fmt.Sprintf("Coordinate code too short for %d atoms", natoms), "decodeCanonical", true)
			}
			buf = buf[n:]
			prev[j] += d
			row[j] = float64(prev[j]) * coordPrecision
		}
	}
	if len(buf) != 0 {
		return nil, newError(fmt.Sprintf("Coordinate code too long for %d atoms", natoms), "decodeCanonical", true)
	}
	return ret, nil
}

//DecodeCoords reads a coordinate code and returns the coordinates in the atom order of the
//topology given to NewCodec.
func (C *Codec) DecodeCoords(code string) (*v3.Matrix, error) {
	can, err := decodeCanonical(code, C.natoms)
	if err != nil {
		return nil, errDecorate(err, "DecodeCoords")
	}
	ret := v3.Zeros(C.natoms)
	for i, r := range C.ranks {
		copy(ret.RawRowView(i), can.RawRowView(r))
	}
	return ret, nil
}

//EncodeMolecule returns the structure and coordinate codes of M.
func EncodeMolecule(M *Molecule) (string, string, error) {
	c, err := NewCodec(M.Topology)
	if err != nil {
		return "", "", errDecorate(err, "EncodeMolecule")
	}
	coords, err := c.EncodeCoords(M.Coords)
	if err != nil {
		return "", "", errDecorate(err, "EncodeMolecule")
	}
	return c.Structure(), coords, nil
}

//DecodeMolecule builds a molecule from a structure code and, optionally, a coordinate code.
//The atoms of the returned molecule are in canonical order. If coords is empty, all the
//coordinates are zero.
func DecodeMolecule(structure, coords string) (*Molecule, error) {
	top, err := ParseIDCode(structure)
	if err != nil {
		return nil, errDecorate(err, "DecodeMolecule")
	}
	var c *v3.Matrix
	if coords != "" {
		c, err = decodeCanonical(coords, top.Len())
		if err != nil {
			return nil, errDecorate(err, "DecodeMolecule")
		}
	}
	M, err := NewMolecule(top, c)
	return M, errDecorate(err, "DecodeMolecule")
}
