/*
 * minimize.go, part of goconf.
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

package forcefield

import (
	"fmt"
	"math"

	chem "github.com/rmera/goconf"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

//Options contains the convergence settings for Minimize.
type Options struct {
	maxIter   int
	gradTol   float64
	energyTol float64
}

//DefaultOptions returns 500 iterations, a gradient threshold of 1e-3 kcal/mol/A and
//an energy change threshold of 1e-6 kcal/mol.
func DefaultOptions() *Options {
	return &Options{maxIter: 500, gradTol: 1e-3, energyTol: 1e-6}
}

//Returns the maximum number of iterations, and sets it to a new value, if given.
func (O *Options) MaxIter(n ...int) int {
	if len(n) > 0 && n[0] > 0 {
		O.maxIter = n[0]
	}
	return O.maxIter
}

//Returns the gradient threshold, in kcal/mol/A, and sets it to a new value, if given.
//The largest gradient component must fall below it for convergence.
func (O *Options) GradTol(t ...float64) float64 {
	if len(t) > 0 && t[0] > 0 {
		O.gradTol = t[0]
	}
	return O.gradTol
}

//Returns the energy change threshold, in kcal/mol, and sets it to a new value, if given.
func (O *Options) EnergyTol(t ...float64) float64 {
	if len(t) > 0 && t[0] > 0 {
		O.energyTol = t[0]
	}
	return O.energyTol
}

//Result is the outcome of a minimization. A failed minimization has a non-empty Err
//and a NaN Energy.
type Result struct {
	Energy           float64 //kcal/mol, of the largest fragment.
	Err              string
	Iterations       int
	Converged        bool //false if a line search failure near the minimum was accepted.
	FragmentEnergies []float64 //one per fragment, in the order of Topology.Fragments.
}

//Failed returns true if the minimization did not produce a usable energy.
func (R Result) Failed() bool {
	return R.Err != "" || math.IsNaN(R.Energy)
}

func failure(format string, a ...interface{}) Result {
	return Result{Energy: math.NaN(), Err: fmt.Sprintf(format, a...)}
}

//Minimize optimizes the coordinates of mol in place with the given table set. Each
//fragment of mol is minimized on its own, and the energy reported is that of the largest
//fragment (the energies of all fragments are in FragmentEnergies). Every failure,
//including missing parameters, lack of convergence and panics during the evaluation,
//is reported in the Err field of the Result, with a NaN energy. If the minimization
//fails, the coordinates of mol are left unchanged.
func Minimize(mol *chem.Molecule, set TableSet, o *Options) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failure("forcefield: minimization panicked: %v", r)
		}
	}()
	if o == nil {
		o = DefaultOptions()
	}
	if mol == nil || mol.Len() == 0 {
		return failure("forcefield: nothing to minimize")
	}
	frags := mol.Fragments()
	final := mol.Coords.Clone()
	res.FragmentEnergies = make([]float64, len(frags))
	res.Converged = true
	for k, frag := range frags {
		sub := mol.SubMolecule(frag)
		field, err := New(sub.Topology, set)
		if err != nil {
			return failure("fragment %d: %s", k, err.Error())
		}
		x := sub.Coords.Floats(nil)
		e, iters, conv, err := minimizeField(field, x, o)
		if err != nil {
			return failure("fragment %d: %s", k, err.Error())
		}
		res.Converged = res.Converged && conv
		res.FragmentEnergies[k] = e
		res.Iterations += iters
		for a, i := range frag {
			copy(final.RawRowView(i), x[3*a:3*a+3])
		}
	}
	mol.Coords.Copy(final.Dense)
	res.Energy = res.FragmentEnergies[mol.LargestFragment()]
	return res
}

//converged returns true if status means that a convergence criterion was met.
func converged(status optimize.Status) bool {
	switch status {
	case optimize.GradientThreshold, optimize.FunctionConvergence, optimize.Success, optimize.MethodConverge:
		return true
	}
	return false
}

//minimizeField minimizes F starting from x, which is overwritten with the final coordinates.
//It returns the final energy, the number of iterations and whether a convergence
//criterion was met.
func minimizeField(F *Field, x []float64, o *Options) (float64, int, bool, error) {
	if len(F.bonds)+len(F.pairs) == 0 {
		//a single atom
		return F.Energy(x), 0, true, nil
	}
	if e := F.Energy(x); math.IsNaN(e) || math.IsInf(e, 0) {
		return 0, 0, false, fmt.Errorf("forcefield: invalid starting energy %g", e)
	}
	p := optimize.Problem{
		Func: F.Energy,
		Grad: F.Gradient,
	}
	settings := &optimize.Settings{
		MajorIterations:   o.MaxIter(),
		GradientThreshold: o.GradTol(),
		Converger: &optimize.FunctionConverge{
			Absolute:   o.EnergyTol(),
			Iterations: 20,
		},
	}
	result, err := optimize.Minimize(p, x, settings, &optimize.LBFGS{})
	if result == nil {
		return 0, 0, false, fmt.Errorf("forcefield: %w", err)
	}
	if math.IsNaN(result.F) || math.IsInf(result.F, 0) {
		return 0, result.MajorIterations, false, fmt.Errorf("forcefield: minimization reached an invalid energy")
	}
	grad := make([]float64, len(x))
	F.Gradient(grad, result.X)
	gnorm := floats.Norm(grad, math.Inf(1))
	conv := converged(result.Status)
	if !conv {
		//a line search failure near the minimum still gives a usable geometry.
		if gnorm > 10*o.GradTol() {
			msg := result.Status.String()
			if err != nil {
				msg = err.Error()
			}
			return 0, result.MajorIterations, false, fmt.Errorf("forcefield: not converged after %d iterations (%s, largest gradient component %.4g)", result.MajorIterations, msg, gnorm)
		}
	}
	copy(x, result.X)
	return result.F, result.MajorIterations, conv, nil
}
