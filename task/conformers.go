/*
 * conformers.go, part of goconf.
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

//Package task contains the conformer task: for each row of a table, it decodes a
//molecule, builds 3D geometries for it, minimizes them, drops the redundant ones and
//writes the results back to the row.
package task

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	chem "github.com/rmera/goconf"
	"github.com/rmera/goconf/align"
	"github.com/rmera/goconf/batch"
	"github.com/rmera/goconf/config"
	"github.com/rmera/goconf/conformer"
	"github.com/rmera/goconf/forcefield"
	"github.com/rmera/goconf/fragcache"
	"github.com/rmera/goconf/logging"
	"github.com/rmera/goconf/table"
	"github.com/rmera/goconf/torsion"
	v3 "github.com/rmera/goconf/v3"
)

//Names of the columns added by the task, in order.
const (
	ColStructure  = "Structure 3D"
	ColConformers = "Conformers"
	ColEnergies   = "Energies"
	ColErrors     = "Errors"
)

var (
	//ErrMissingColumn is returned when an input column of the job is not in the table.
	ErrMissingColumn = errors.New("task: input column not found")
	//ErrNoConformers is the row error when no conformer could be accepted.
	ErrNoConformers = errors.New("task: no conformer could be built")
)

//Result is what the task obtains for one molecule.
type Result struct {
	Molecule   *chem.Molecule //the processed molecule, the conformers refer to its atoms.
	Conformers []*chem.Conformer
	Failures   []string //minimizations and other steps that failed, without failing the molecule.
	Trials     int      //geometries taken from the strategy.
	Redundant  int
	ringsSaved bool
}

//Lowest returns the lowest energy among the conformers of R, or NaN.
func (R *Result) Lowest() float64 {
	low := math.NaN()
	for _, c := range R.Conformers {
		if !math.IsNaN(c.Energy) && (math.IsNaN(low) || c.Energy < low) {
			low = c.Energy
		}
	}
	return low
}

//Conformers runs a conformer job over the rows of a table.
type Conformers struct {
	job   *config.Job
	proc  *batch.Processor
	cache *fragcache.Cache
	log   logging.Logger
}

//New returns a task for job. proc, cache and log can be nil.
func New(job *config.Job, proc *batch.Processor, cache *fragcache.Cache, log logging.Logger) (*Conformers, error) {
	if job == nil {
		return nil, errors.New("task: nil job")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	if proc == nil {
		proc = batch.NewProcessor(nil, log, nil)
	}
	return &Conformers{job: job, proc: proc, cache: cache, log: log.Named("conformers")}, nil
}

//options returns the strategy options for one row. Each row gets its own seed, so
//the results don't depend on which worker processes the row.
func (C *Conformers) options(row int) *conformer.Options {
	o := conformer.DefaultOptions()
	o.Kind(C.job.Strategy)
	o.MaxTrials(C.job.MaxTrials)
	o.Count(C.job.Conformers)
	o.Seed(C.job.Seed + int64(row))
	o.Source(C.job.Source)
	o.Cache(C.cache)
	o.ClashFactor(C.job.ClashFactor)
	return o
}

func (C *Conformers) minimizeOptions() *forcefield.Options {
	o := forcefield.DefaultOptions()
	o.MaxIter(C.job.MaxIterations)
	o.GradTol(C.job.GradientTol)
	o.EnergyTol(C.job.EnergyTol)
	return o
}

//Generate builds the conformers of the molecule with the given structure code and,
//optionally, coordinate code. The returned error means that the molecule could not be
//processed at all.
func (C *Conformers) Generate(ctx context.Context, structure, coords string) (*Result, error) {
	return C.generate(ctx, structure, coords, 0, nil)
}

func (C *Conformers) generate(ctx context.Context, structure, coords string, row int, cancelled func() bool) (*Result, error) {
	stop := func() bool {
		return ctx.Err() != nil || (cancelled != nil && cancelled())
	}
	mol, err := chem.DecodeMolecule(structure, coords)
	if err != nil {
		return nil, fmt.Errorf("task: %w", err)
	}
	if C.job.LargestFragment {
		mol = chem.StripSmallFragments(mol)
	}
	//hydrogens are placed from the heavy atom geometry, so this has to be checked first.
	has3D := coords != "" && mol.Has3D()
	if C.job.AddHydrogens && mol.HasImplicitHydrogens() {
		chem.AddHydrogens(mol)
	}
	o := C.options(row)
	if !has3D {
		if err := conformer.Embed(ctx, mol, o); err != nil {
			return nil, fmt.Errorf("task: embedding: %w", err)
		}
	}
	res := &Result{Molecule: mol}
	if C.job.Mode == config.Single {
		C.accept(ctx, res, mol.Copy(), nil, nil)
		if len(res.Conformers) == 0 {
			return res, ErrNoConformers
		}
		return res, nil
	}
	strat, err := conformer.NewContext(ctx, mol, o)
	if err != nil {
		return nil, fmt.Errorf("task: %w", err)
	}
	filter := torsion.NewFilter(C.job.Tolerance)
	torsions := torsion.Find(mol.Topology)
	work := mol.Copy()
	for len(res.Conformers) < C.job.Conformers && !stop() {
		if strat.Next(work) == nil {
			break
		}
		res.Trials++
		C.accept(ctx, res, work.Copy(), filter, torsions)
	}
	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("task: after %d trials: %w", res.Trials, err)
	}
	if len(res.Conformers) == 0 {
		if len(res.Failures) > 0 {
			return res, fmt.Errorf("%w: %s", ErrNoConformers, res.Failures[0])
		}
		return res, ErrNoConformers
	}
	if C.job.AlignRigid && len(res.Conformers) > 1 {
		C.alignRigid(res)
	}
	return res, nil
}

//alignRigid superimposes the conformers of res on the first one, using the heavy atoms
//that move the least across the set.
func (C *Conformers) alignRigid(res *Result) {
	coords := make([]*v3.Matrix, 0, len(res.Conformers)-1)
	for _, c := range res.Conformers[1:] {
		coords = append(coords, c.Coords)
	}
	o := align.DefaultOptions()
	o.Cpus(1) //rows are already processed concurrently.
	o.Atoms(align.HeavyAtoms(res.Molecule))
	ret, err := align.LOVOnMostRigid(res.Conformers[0].Coords, coords, o)
	if err != nil {
		res.Failures = append(res.Failures, err.Error())
		return
	}
	for i, c := range ret.Aligned {
		res.Conformers[i+1].Coords = c
	}
}

//accept minimizes cand and adds it to the conformers of res unless the minimization
//fails, or filter says it is redundant. Conformers are superimposed on the first one.
//The ring systems of the first minimized candidate go to the fragment cache.
func (C *Conformers) accept(ctx context.Context, res *Result, cand *chem.Molecule, filter *torsion.Filter, torsions []torsion.Torsion) {
	energy := math.NaN()
	if C.job.Minimize {
		r := forcefield.Minimize(cand, C.job.TableSet, C.minimizeOptions())
		if r.Failed() {
			res.Failures = append(res.Failures, r.Err)
			return
		}
		energy = r.Energy
		if C.cache != nil && !res.ringsSaved {
			res.ringsSaved = true
			//a failure in the second tier still leaves the geometries in memory.
			_ = conformer.StoreRings(ctx, cand, C.cache)
		}
	}
	if filter != nil && filter.IsRedundant(torsion.Compute(cand, torsions)) {
		res.Redundant++
		return
	}
	if C.job.Align && len(res.Conformers) > 0 {
		aligned, _, err := align.Superimpose(res.Conformers[0].Coords, cand.Coords, align.HeavyAtoms(cand))
		if err != nil {
			res.Failures = append(res.Failures, err.Error())
		} else {
			cand.Coords = aligned
		}
	}
	res.Conformers = append(res.Conformers, cand.Snapshot(energy))
}

//columns holds the indexes of the columns used by one run.
type columns struct {
	structure int
	coords    int //-1 if the job has no coordinate column.
	first     int //first output column.
}

//Report describes a finished run.
type Report struct {
	batch.Summary
	Energies []float64 //lowest energy of each row with minimized conformers.
	Stats    EnergyStats
}

//Run processes every row of store, adding the output columns to it. Missing input
//columns, and output columns that can't be added, are reported as errors before any
//row is processed. Row failures are counted in the Report instead.
//sink can be nil.
func (C *Conformers) Run(ctx context.Context, store table.Store, sink batch.Sink) (*Report, error) {
	cols := columns{structure: store.ColumnIndex(C.job.StructureColumn), coords: -1}
	if cols.structure < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, C.job.StructureColumn)
	}
	if C.job.CoordsColumn != "" {
		if cols.coords = store.ColumnIndex(C.job.CoordsColumn); cols.coords < 0 {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, C.job.CoordsColumn)
		}
	}
	if C.job.XYZDir != "" {
		if err := os.MkdirAll(C.job.XYZDir, 0o755); err != nil {
			return nil, fmt.Errorf("task: %w", err)
		}
	}
	var err error
	if cols.first, err = store.AddColumns(ColStructure, ColConformers, ColEnergies, ColErrors); err != nil {
		return nil, fmt.Errorf("task: %w", err)
	}
	rows := store.Rows()
	lowest := make([]float64, rows) //each row writes only its own element.
	for i := range lowest {
		lowest[i] = math.NaN()
	}
	var cancelled func() bool
	if sink != nil {
		cancelled = sink.IsCancelled
	}
	perRow := func(ctx context.Context, row int) error {
		low, err := C.row(ctx, store, cols, row, cancelled)
		lowest[row] = low
		return err
	}
	report := &Report{}
	finalize := func(s batch.Summary) {
		report.Energies = finite(lowest)
		report.Stats = Stats(report.Energies)
		if s.Cancelled {
			C.log.Warn("run cancelled, output columns left unfinished",
				logging.String("batch_id", s.ID), logging.Int("processed", s.Processed))
			return
		}
		store.FinalizeColumns(cols.first)
		C.log.Info("conformer run finished",
			logging.String("batch_id", s.ID),
			logging.Int("molecules", len(report.Energies)),
			logging.Float64("mean_energy", report.Stats.Mean),
			logging.Float64("min_energy", report.Stats.Min))
	}
	summary, err := C.proc.Run(ctx, rows, perRow, finalize, sink)
	if err != nil {
		return nil, fmt.Errorf("task: %w", err)
	}
	report.Summary = summary
	return report, nil
}

//row processes one row, and returns the lowest energy of its conformers.
func (C *Conformers) row(ctx context.Context, store table.Store, cols columns, row int, cancelled func() bool) (float64, error) {
	structure := string(store.CellBytes(row, cols.structure))
	if structure == "" {
		return math.NaN(), nil
	}
	var coords string
	if cols.coords >= 0 {
		coords = string(store.CellBytes(row, cols.coords))
	}
	res, err := C.generate(ctx, structure, coords, row, cancelled)
	if err != nil {
		store.SetCellValue(row, cols.first+3, err.Error())
		return math.NaN(), err
	}
	if err := C.write(store, cols, row, res); err != nil {
		store.SetCellValue(row, cols.first+3, err.Error())
		return math.NaN(), err
	}
	if C.job.XYZDir != "" && len(res.Conformers) > 0 {
		name := filepath.Join(C.job.XYZDir, fmt.Sprintf("row%06d.xyz", row))
		if err := chem.XYZWrite(res.Molecule, res.Conformers, name); err != nil {
			C.log.Warn("writing xyz file", logging.Int("row", row), logging.Err(err))
		}
	}
	C.log.Debug("row processed",
		logging.Int("row", row),
		logging.Int("trials", res.Trials),
		logging.Int("conformers", len(res.Conformers)),
		logging.Int("redundant", res.Redundant),
		logging.Int("failures", len(res.Failures)))
	return res.Lowest(), nil
}

//write sets the output cells of row from res.
func (C *Conformers) write(store table.Store, cols columns, row int, res *Result) error {
	codec, err := chem.NewCodec(res.Molecule.Topology)
	if err != nil {
		return fmt.Errorf("task: %w", err)
	}
	codes := make([]string, 0, len(res.Conformers))
	energies := make([]string, 0, len(res.Conformers))
	for _, c := range res.Conformers {
		code, err := codec.EncodeCoords(c.Coords)
		if err != nil {
			return fmt.Errorf("task: %w", err)
		}
		codes = append(codes, code)
		if math.IsNaN(c.Energy) {
			energies = append(energies, "")
		} else {
			energies = append(energies, strconv.FormatFloat(c.Energy, 'f', 4, 64))
		}
	}
	store.SetCellValue(row, cols.first, codec.Structure())
	store.SetCellValue(row, cols.first+1, strings.Join(codes, " "))
	if C.job.Minimize {
		store.SetCellValue(row, cols.first+2, strings.Join(energies, ";"))
	}
	if len(res.Failures) > 0 {
		store.SetCellValue(row, cols.first+3, strings.Join(res.Failures, "; "))
	}
	return nil
}

func finite(x []float64) []float64 {
	ret := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			ret = append(ret, v)
		}
	}
	return ret
}
