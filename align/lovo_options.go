/*
 * lovo_options.go, part of goconf.
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

import "runtime"

//Options controls LOVOnMostRigid. The zero value is not useful, use DefaultOptions.
type Options struct {
	cpus       int
	atoms      []int //candidates. All atoms if empty.
	nMostRigid int
	maxRMSD    float64 //if > 0, overrides nMostRigid
	minimumN   int
	maxIter    int
}

//DefaultOptions returns options suited for conformer ensembles: all the logical CPUs,
//and every candidate atom with an RMSD under 0.5 A, but never fewer than 3 atoms.
func DefaultOptions() *Options {
	return &Options{
		cpus:     runtime.NumCPU(),
		maxRMSD:  0.5,
		minimumN: 3,
		maxIter:  20,
	}
}

//Cpus returns the number of conformers superimposed concurrently. A positive n replaces it.
func (O *Options) Cpus(n ...int) int {
	if len(n) > 0 && n[0] > 0 {
		O.cpus = n[0]
	}
	return O.cpus
}

//NMostRigid returns how many atoms are used for the superposition, setting it if n is given.
//It is ignored while LessThanRMSD is positive. If it is 0 or less, a third of the
//candidates are used.
func (O *Options) NMostRigid(n ...int) int {
	if len(n) > 0 {
		O.nMostRigid = n[0]
	}
	return O.nMostRigid
}

//LessThanRMSD returns the largest RMSD, in A, for an atom to take part in the superposition,
//setting it if given. A value of 0 or less switches to NMostRigid.
func (O *Options) LessThanRMSD(rmsd ...float64) float64 {
	if len(rmsd) > 0 {
		O.maxRMSD = rmsd[0]
	}
	return O.maxRMSD
}

//MinimumN returns the smallest set of atoms accepted when LessThanRMSD is in use.
//Values under 3 are not accepted, as they don't define a rotation.
func (O *Options) MinimumN(n ...int) int {
	if len(n) > 0 && n[0] >= 3 {
		O.minimumN = n[0]
	}
	return O.minimumN
}

//Atoms returns the candidate atoms, replacing them if a slice is given.
func (O *Options) Atoms(atoms ...[]int) []int {
	if len(atoms) > 0 {
		O.atoms = atoms[0]
	}
	return O.atoms
}

//MaxIter returns the iteration limit, setting it if a positive n is given.
func (O *Options) MaxIter(n ...int) int {
	if len(n) > 0 && n[0] > 0 {
		O.maxIter = n[0]
	}
	return O.maxIter
}
