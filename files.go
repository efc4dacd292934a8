/*
 * files.go, part of goconf.
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
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	v3 "github.com/rmera/goconf/v3"
)

//XYZWriteTo writes the coordinates coords of the topology T in XYZ format to out. The comment
//line contains the given comment.
func XYZWriteTo(out io.Writer, T Atomer, coords *v3.Matrix, comment string) error {
	if T.Len() != coords.NVecs() {
		return newError(string(ErrCoordMismatch), "XYZWriteTo", true)
	}
	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "%-4d\n%s\n", T.Len(), strings.ReplaceAll(comment, "\n", " "))
	for i := 0; i < T.Len(); i++ {
		c := coords.RawRowView(i)
		if _, err := fmt.Fprintf(w, "%-2s  %12.6f%12.6f%12.6f\n", T.Atom(i).Symbol, c[0], c[1], c[2]); err != nil {
			return newError(err.Error(), "XYZWriteTo", true)
		}
	}
	if err := w.Flush(); err != nil {
		return newError(err.Error(), "XYZWriteTo", true)
	}
	return nil
}

//XYZWrite writes the conformers confs of the topology T as a multi-frame XYZ file with name
//xyzname, which will be created for that. If the file exists it will be overwritten.
func XYZWrite(T Atomer, confs []*Conformer, xyzname string) error {
	out, err := os.Create(xyzname)
	if err != nil {
		return newError(err.Error(), "XYZWrite", true)
	}
	defer out.Close()
	for i, c := range confs {
		comment := fmt.Sprintf("conformer %d", i)
		if !math.IsNaN(c.Energy) {
			comment = fmt.Sprintf("conformer %d energy %.4f", i, c.Energy)
		}
		if err := XYZWriteTo(out, T, c.Coords, comment); err != nil {
			return errDecorate(err, "XYZWrite")
		}
	}
	return nil
}
