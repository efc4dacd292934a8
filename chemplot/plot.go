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

//Package chemplot produces plots of the results of conformer searches: the distribution
//of energies in a set of molecules, the relative energies of the conformers of each
//molecule, and maps of pairs of torsions over the conformers of one molecule.
//The format of the files is chosen from their extension (png, svg, pdf, ...).
package chemplot

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

//ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("chemplot: no data to plot")

//Size of the saved plots.
const (
	width  = 5 * vg.Inch
	height = 4 * vg.Inch
)

func basicPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	return p
}

func save(p *plot.Plot, filename string) error {
	if err := p.Save(width, height, filename); err != nil {
		return fmt.Errorf("chemplot: %w", err)
	}
	return nil
}

//takes hue (0-360), v and s (0-1), returns r,g,b (0-255)
func iHVS2RGB(h, v, s float64) (uint8, uint8, uint8) {
	maxcolor := 255.0
	conversion := maxcolor * v
	if s == 0.0 {
		return uint8(conversion), uint8(conversion), uint8(conversion)
	}
	h = h / 60
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	var r, g, b float64
	switch int(i) {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default: //case 5
		r, g, b = v, p, q
	}
	return uint8(r * conversion), uint8(g * conversion), uint8(b * conversion)
}

//colors returns the color for the key-th of steps series, going around the hue circle
//and skipping the yellows, which are hard to see on white.
func colors(key, steps int) color.RGBA {
	norm := 260.0 / float64(max(steps, 1))
	hp := float64(key)*norm + 20.0
	h := hp + 20.0
	if hp < 55 {
		h = hp - 20.0
	}
	r, g, b := iHVS2RGB(h, 1, 1)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

//getShape returns the glyph used for the tagged-th highlighted point. Only 4 points
//can be highlighted, for the others a ring and an error are returned.
func getShape(tagged int) (draw.GlyphDrawer, error) {
	switch tagged {
	case 0:
		return draw.PyramidGlyph{}, nil
	case 1:
		return draw.CircleGlyph{}, nil
	case 2:
		return draw.SquareGlyph{}, nil
	case 3:
		return draw.CrossGlyph{}, nil
	default:
		return draw.RingGlyph{}, fmt.Errorf("chemplot: at most 4 points can be highlighted")
	}
}

func isInInt(container []int, test int) bool {
	for _, i := range container {
		if test == i {
			return true
		}
	}
	return false
}
