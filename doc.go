/*
 * doc.go, part of goconf.
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

/*Package chem is the main package of the goconf library. It provides atom, bond and molecule
structures, canonical identifiers, a compact text codec and the geometric helpers needed to
generate, minimize and compare conformers.



	**goconf Capabilities**


    Builds molecular graphs from canonical structure codes (idcodes) and produces
	idempotent canonical codes from any molecular graph.

    Finds rings, disconnected fragments and rotatable bonds.

    Detects implicit hydrogens and turns them into explicit atoms with
	reasonable starting positions.

    Encodes and decodes conformer coordinates as compact ASCII strings.

    Measures and sets dihedral angles, rotating the atoms on one side of a bond.

    Writes conformers as XYZ files.

    The sub-packages provide Kabsch superposition (align), torsion signatures and
	redundancy filtering (torsion), a force field with a bounded minimizer (forcefield),
	five conformer sampling strategies (conformer), a rigid fragment cache (fragcache)
	and a parallel row processor (batch) that task composes into a conformer pipeline.

*/
package chem
