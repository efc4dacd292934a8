/*
 * source.go, part of goconf.
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

package torsion

import (
	"fmt"
	"strings"

	chem "github.com/rmera/goconf"
	"gonum.org/v1/gonum/floats"
)

//State is one rotamer of a torsion: its angle, in radians, and its relative frequency.
type State struct {
	Angle float64
	Freq  float64
}

//Source provides the rotamer states of torsions. The frequencies of the states returned for
//a torsion add up to 1, and states are sorted by decreasing frequency.
type Source interface {
	Name() string
	States(t Torsion) []State
}

func states(degfreq ...float64) []State {
	ret := make([]State, 0, len(degfreq)/2)
	for i := 0; i+1 < len(degfreq); i += 2 {
		ret = append(ret, State{Angle: chem.WrapAngle(degfreq[i] * chem.Deg2Rad), Freq: degfreq[i+1]})
	}
	return normalized(ret)
}

func normalized(s []State) []State {
	f := make([]float64, len(s))
	for i, v := range s {
		f[i] = v.Freq
	}
	sum := floats.Sum(f)
	for i := range s {
		s[i].Freq /= sum
	}
	return s
}

//library rotamers per bond class: angle in degrees followed by frequency.
var library = map[Class][]State{
	SP3SP3: states(180, 0.5, 60, 0.25, -60, 0.25),
	SP2SP3: states(0, 0.2, 120, 0.2, -120, 0.2, 180, 0.2, 60, 0.1, -60, 0.1),
	SP2SP2: states(180, 0.6, 0, 0.4),
	Amide:  states(180, 0.9, 0, 0.1),
}

//Library is the built-in source of rotamer states, with frequencies for each bond class.
type Library struct{}

func (L Library) Name() string { return "library" }

//States returns a copy of the library states for the class of t.
func (L Library) States(t Torsion) []State {
	return append([]State(nil), library[t.Class]...)
}

//Grid is a source of equally likely states at fixed angular steps.
type Grid struct {
	Step float64 //in degrees, 60 if zero.
}

func (G Grid) Name() string { return "grid" }

func (G Grid) States(t Torsion) []State {
	step := G.Step
	if step <= 0 || step > 360 {
		step = 60
	}
	n := int(360 / step)
	s := make([]State, 0, n)
	for i := 0; i < n; i++ {
		s = append(s, State{Angle: chem.WrapAngle(float64(i) * step * chem.Deg2Rad), Freq: 1})
	}
	return normalized(s)
}

//SourceByName returns the source called name ("library" or "grid").
func SourceByName(name string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "library":
		return Library{}, nil
	case "grid":
		return Grid{}, nil
	default:
		return nil, fmt.Errorf("torsion: unknown torsion source %q", name)
	}
}
