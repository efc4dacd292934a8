/*
 * idcode.go, part of goconf.
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
	"bufio"
	"fmt"
	"io"
	"strings"

	chem "github.com/rmera/goconf"
	"github.com/spf13/cobra"
)

func newIDCodeCommand(a *app) *cobra.Command {
	var hydrogens, check bool
	cmd := &cobra.Command{
		Use:   "idcode [code...]",
		Short: "Print the canonical form of structure codes",
		Long: "idcode reads structure codes from the arguments, or one per line from the\n" +
			"standard input, and prints their canonical form, one per line.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = strings.NewReader(strings.Join(args, "\n"))
			if len(args) == 0 {
				in = cmd.InOrStdin()
			}
			return canonicalize(in, cmd.OutOrStdout(), hydrogens, check)
		},
	}
	cmd.Flags().BoolVar(&hydrogens, "explicit-h", false, "make implicit hydrogens explicit")
	cmd.Flags().BoolVar(&check, "check", false, "fail on atoms with too many bonds")
	return cmd
}

func canonicalize(in io.Reader, out io.Writer, hydrogens, check bool) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	w := bufio.NewWriter(out)
	defer w.Flush()
	for n := 1; sc.Scan(); n++ {
		code := strings.TrimSpace(sc.Text())
		if code == "" {
			fmt.Fprintln(w)
			continue
		}
		top, err := chem.ParseIDCode(code)
		if err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		if check {
			if err := top.CheckValences(); err != nil {
				return fmt.Errorf("line %d: %w", n, err)
			}
		}
		if hydrogens && top.HasImplicitHydrogens() {
			mol, err := chem.NewMolecule(top, nil)
			if err != nil {
				return fmt.Errorf("line %d: %w", n, err)
			}
			chem.AddHydrogens(mol)
			top = mol.Topology
		}
		fmt.Fprintln(w, top.IDCode())
	}
	return sc.Err()
}
