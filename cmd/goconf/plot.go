/*
 * plot.go, part of goconf.
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

package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	chem "github.com/rmera/goconf"
	"github.com/rmera/goconf/chemplot"
	"github.com/rmera/goconf/logging"
	"github.com/rmera/goconf/table"
	"github.com/rmera/goconf/task"
	"github.com/rmera/goconf/torsion"
	"github.com/spf13/cobra"
)

func newPlotCommand(a *app) *cobra.Command {
	var in, out string
	var row int
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Plot the conformers in a table written by run",
		Long: "plot draws the relative energies of the conformers of every molecule in the\n" +
			"table or, with --row, a map of the first two torsions of the conformers of\n" +
			"one molecule, highlighting the lowest energy one.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			T, err := table.ReadFile(in)
			if err != nil {
				return err
			}
			if row < 0 {
				return plotEnergies(T, out)
			}
			return plotTorsions(T, row, out, a.log)
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "table written by run")
	cmd.Flags().StringVarP(&out, "out", "o", "conformers.png", "plot file")
	cmd.Flags().IntVarP(&row, "row", "r", -1, "row to plot the torsions of")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func column(T *table.Table, name string) (int, error) {
	c := T.ColumnIndex(name)
	if c < 0 {
		return -1, fmt.Errorf("the table has no %q column", name)
	}
	return c, nil
}

//energies parses an energies cell. Empty values are NaN.
func energies(cell string) ([]float64, error) {
	if cell == "" {
		return nil, nil
	}
	fields := strings.Split(cell, ";")
	ret := make([]float64, len(fields))
	for i, v := range fields {
		if v == "" {
			ret[i] = math.NaN()
			continue
		}
		e, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, err
		}
		ret[i] = e
	}
	return ret, nil
}

func plotEnergies(T *table.Table, out string) error {
	col, err := column(T, task.ColEnergies)
	if err != nil {
		return err
	}
	sets := make([][]float64, 0, T.Rows())
	for i := 0; i < T.Rows(); i++ {
		e, err := energies(T.Cell(i, col))
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		sets = append(sets, e)
	}
	return chemplot.ConformerEnergies(sets, "Conformer energies", out)
}

func plotTorsions(T *table.Table, row int, out string, log logging.Logger) error {
	if row >= T.Rows() {
		return fmt.Errorf("row %d requested, the table has %d", row, T.Rows())
	}
	scol, err := column(T, task.ColStructure)
	if err != nil {
		return err
	}
	structure := T.Cell(row, scol)
	codes := strings.Fields(T.Cell(row, scol+1))
	if structure == "" || len(codes) == 0 {
		return fmt.Errorf("row %d has no conformers", row)
	}
	top, err := chem.ParseIDCode(structure)
	if err != nil {
		return fmt.Errorf("row %d: %w", row, err)
	}
	codec, err := chem.NewCodec(top)
	if err != nil {
		return err
	}
	confs := make([]*chem.Conformer, 0, len(codes))
	for _, c := range codes {
		coords, err := codec.DecodeCoords(c)
		if err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}
		confs = append(confs, &chem.Conformer{Coords: coords, Energy: math.NaN()})
	}
	torsions := torsion.Find(top)
	if len(torsions) < 2 {
		return fmt.Errorf("row %d: the molecule has %d rotatable bonds, 2 needed", row, len(torsions))
	}
	data, err := chemplot.TorsionPairs(top, confs, torsions[0], torsions[1])
	if err != nil {
		return err
	}
	var tag []int
	if e, err := energies(T.Cell(row, scol+2)); err == nil && len(e) == len(confs) {
		low := -1
		for i, v := range e {
			if !math.IsNaN(v) && (low < 0 || v < e[low]) {
				low = i
			}
		}
		if low >= 0 {
			tag = []int{low}
		}
	}
	log.Debug("plotting torsions", logging.Int("row", row), logging.Int("conformers", len(confs)))
	return chemplot.TorsionMap(data, tag, fmt.Sprintf("Row %d", row), out)
}
