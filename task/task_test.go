package task

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	chem "github.com/rmera/goconf"
	"github.com/rmera/goconf/batch"
	"github.com/rmera/goconf/config"
	"github.com/rmera/goconf/fragcache"
	"github.com/rmera/goconf/table"
	"github.com/rmera/goconf/torsion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	butane  = "CH3.CH2.CH2.CH3|0-1.1-2.2-3"
	ethanol = "CH3.CH2.OH1.OH2|0-1.1-2" //with a water molecule
	iron    = "CH3.Fe|0-1"              //no force field parameters for Fe
)

func newTask(t *testing.T, edit func(*config.RawJob)) *Conformers {
	t.Helper()
	raw := config.DefaultRawJob()
	raw.Conformers = 4
	raw.MaxTrials = 50
	if edit != nil {
		edit(&raw)
	}
	job, err := raw.ToJob()
	require.NoError(t, err)
	proc := batch.NewProcessor(batch.DefaultOptions(), nil, nil)
	C, err := New(job, proc, fragcache.New(nil, 0), nil)
	require.NoError(t, err)
	return C
}

func TestGenerate(t *testing.T) {
	C := newTask(t, func(r *config.RawJob) { r.Strategy = "systematic" })
	res, err := C.Generate(context.Background(), butane, "")
	require.NoError(t, err)
	assert.Equal(t, 14, res.Molecule.Len(), "hydrogens must be added")
	require.NotEmpty(t, res.Conformers)
	assert.LessOrEqual(t, len(res.Conformers), 4)
	assert.LessOrEqual(t, res.Trials, 50)
	assert.False(t, math.IsNaN(res.Lowest()))

	torsions := torsion.Find(res.Molecule.Topology)
	filter := torsion.NewFilter(C.job.Tolerance)
	for i, c := range res.Conformers {
		assert.False(t, math.IsNaN(c.Energy), "conformer %d", i)
		m := &chem.Molecule{Topology: res.Molecule.Topology, Coords: c.Coords}
		assert.False(t, filter.IsRedundant(torsion.Compute(m, torsions)), "conformer %d is redundant", i)
	}
	for i := 1; i < len(res.Conformers); i++ {
		assert.NotSame(t, res.Conformers[0].Coords, res.Conformers[i].Coords)
	}
}

func TestAlignRigid(t *testing.T) {
	C := newTask(t, func(r *config.RawJob) {
		r.Strategy = "systematic"
		r.AlignRigid = true
		r.Minimize = false
	})
	res, err := C.Generate(context.Background(), "CH3.CH2.CH2.CH2.CH2.CH3|0-1.1-2.2-3.3-4.4-5", "")
	require.NoError(t, err)
	require.Greater(t, len(res.Conformers), 1)
	assert.Empty(t, res.Failures)
	for _, c := range res.Conformers {
		assert.Equal(t, res.Molecule.Len(), c.Coords.NVecs())
	}
}

func TestRingCache(t *testing.T) {
	const ethylcyclohexane = "CH2.CH2.CH2.CH2.CH2.CH1.CH2.CH3|0-1.1-2.2-3.3-4.4-5.0-5.5-6.6-7"
	C := newTask(t, func(r *config.RawJob) { r.Minimize = false })
	_, err := C.Generate(context.Background(), ethylcyclohexane, "")
	require.NoError(t, err)
	assert.Zero(t, C.cache.Len(), "only minimized rings are stored")

	C = newTask(t, nil)
	_, err = C.Generate(context.Background(), ethylcyclohexane, "")
	require.NoError(t, err)
	assert.Equal(t, 1, C.cache.Len())
	_, err = C.Generate(context.Background(), ethylcyclohexane, "")
	require.NoError(t, err)
	assert.Equal(t, 1, C.cache.Len())
	assert.NotZero(t, C.cache.Stats().Hits)
}

func TestGenerateSingle(t *testing.T) {
	C := newTask(t, func(r *config.RawJob) { r.Mode = "single" })
	res, err := C.Generate(context.Background(), butane, "")
	require.NoError(t, err)
	require.Len(t, res.Conformers, 1)
	assert.True(t, res.Molecule.Has3D())
}

func TestGenerateFailures(t *testing.T) {
	C := newTask(t, nil)
	_, err := C.Generate(context.Background(), "not a structure", "")
	assert.Error(t, err)
	res, err := C.Generate(context.Background(), iron, "")
	assert.ErrorIs(t, err, ErrNoConformers)
	require.NotNil(t, res)
	assert.NotEmpty(t, res.Failures)

	C = newTask(t, func(r *config.RawJob) { r.Minimize = false })
	res, err = C.Generate(context.Background(), iron, "")
	require.NoError(t, err)
	require.Len(t, res.Conformers, 1)
	assert.True(t, math.IsNaN(res.Conformers[0].Energy))
}

func TestLargestFragment(t *testing.T) {
	C := newTask(t, nil)
	res, err := C.Generate(context.Background(), ethanol, "")
	require.NoError(t, err)
	assert.Equal(t, 9, res.Molecule.Len(), "the water molecule must be removed")
	assert.Len(t, res.Molecule.Fragments(), 1)
}

func rows(t *testing.T, structures ...string) *table.Table {
	T, err := table.New("Name", "Structure")
	require.NoError(t, err)
	for i, s := range structures {
		T.AddRow("mol"+string(rune('a'+i)), s)
	}
	return T
}

func TestRun(t *testing.T) {
	xyz := filepath.Join(t.TempDir(), "xyz")
	C := newTask(t, func(r *config.RawJob) { r.XYZDir = xyz })
	T := rows(t, butane, "", "garbage", iron, ethanol)
	progress := batch.NewProgress(nil)
	report, err := C.Run(context.Background(), T, progress)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Rows)
	assert.Equal(t, 5, report.Processed)
	assert.Equal(t, 2, report.Errors)
	assert.NoError(t, report.Err())
	assert.False(t, report.Cancelled)
	assert.Equal(t, int64(5), progress.Done())

	first := T.ColumnIndex(ColStructure)
	assert.Equal(t, 2, first)
	assert.Equal(t, []string{"Name", "Structure", ColStructure, ColConformers, ColEnergies, ColErrors}, T.Columns())
	assert.Equal(t, 1, T.Finalized(first))

	//the conformers can be rebuilt from the output cells
	structure := T.Cell(0, first)
	codes := strings.Fields(T.Cell(0, first+1))
	energies := strings.Split(T.Cell(0, first+2), ";")
	require.NotEmpty(t, codes)
	assert.Len(t, energies, len(codes))
	for _, code := range codes {
		mol, err := chem.DecodeMolecule(structure, code)
		require.NoError(t, err)
		assert.Equal(t, 14, mol.Len())
		assert.True(t, mol.Has3D())
	}
	assert.Empty(t, T.Cell(0, first+3))

	for col := first; col < first+4; col++ {
		assert.Empty(t, T.Cell(1, col), "empty input gives empty output")
	}
	assert.NotEmpty(t, T.Cell(2, first+3))
	assert.NotEmpty(t, T.Cell(3, first+3))
	assert.Empty(t, T.Cell(3, first+1))
	assert.NotEmpty(t, T.Cell(4, first+1))

	assert.Equal(t, 2, report.Stats.N)
	assert.Len(t, report.Energies, 2)
	_, err = os.Stat(filepath.Join(xyz, "row000000.xyz"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(xyz, "row000001.xyz"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunInputCoordinates(t *testing.T) {
	C := newTask(t, func(r *config.RawJob) { r.Mode = "single"; r.Minimize = false })
	res, err := C.Generate(context.Background(), butane, "")
	require.NoError(t, err)
	structure, coords, err := chem.EncodeMolecule(&chem.Molecule{Topology: res.Molecule.Topology, Coords: res.Conformers[0].Coords})
	require.NoError(t, err)

	C = newTask(t, func(r *config.RawJob) {
		r.Mode = "single"
		r.Minimize = false
		r.CoordsColumn = "Coordinates"
	})
	T, err := table.New("Structure", "Coordinates")
	require.NoError(t, err)
	T.AddRow(structure, coords)
	report, err := C.Run(context.Background(), T, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Errors)
	first := T.ColumnIndex(ColStructure)
	out, err := chem.DecodeMolecule(T.Cell(0, first), T.Cell(0, first+1))
	require.NoError(t, err)
	in, err := chem.DecodeMolecule(structure, coords)
	require.NoError(t, err)
	//the input geometry is kept, symmetric atoms may be numbered differently
	assert.True(t, sameRows(in, out), "the input geometry was changed")
}

//sameRows returns true if every atom of a has an atom of the same element in b at the
//same position.
func sameRows(a, b *chem.Molecule) bool {
	if a.Len() != b.Len() {
		return false
	}
	used := make([]bool, b.Len())
	for i := 0; i < a.Len(); i++ {
		found := false
		for j := 0; j < b.Len(); j++ {
			if !used[j] && a.Atom(i).Symbol == b.Atom(j).Symbol && near(a.Coords.RawRowView(i), b.Coords.RawRowView(j)) {
				used[j], found = true, true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func near(x, y []float64) bool {
	return math.Abs(x[0]-y[0]) < 1e-4 && math.Abs(x[1]-y[1]) < 1e-4 && math.Abs(x[2]-y[2]) < 1e-4
}

func TestRunRowTimeout(t *testing.T) {
	C := newTask(t, func(r *config.RawJob) { r.Mode = "single"; r.Minimize = false })
	res, err := C.Generate(context.Background(), butane, "")
	require.NoError(t, err)
	structure, coords, err := chem.EncodeMolecule(&chem.Molecule{Topology: res.Molecule.Topology, Coords: res.Conformers[0].Coords})
	require.NoError(t, err)

	C = newTask(t, func(r *config.RawJob) { r.CoordsColumn = "Coordinates" })
	o := batch.DefaultOptions()
	o.RowTimeout(time.Nanosecond)
	C.proc = batch.NewProcessor(o, nil, nil)
	T, err := table.New("Structure", "Coordinates")
	require.NoError(t, err)
	T.AddRow(structure, coords)
	report, err := C.Run(context.Background(), T, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Errors, "a row out of time is a failure")
	first := T.ColumnIndex(ColStructure)
	assert.Empty(t, T.Cell(0, first+1))
	assert.Contains(t, T.Cell(0, first+3), context.DeadlineExceeded.Error())
}

func TestGenerateExpiredContext(t *testing.T) {
	C := newTask(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := C.Generate(ctx, butane, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunAllFailed(t *testing.T) {
	C := newTask(t, nil)
	T := rows(t, "garbage", iron)
	report, err := C.Run(context.Background(), T, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, report.Err(), batch.ErrAllRowsFailed)
	assert.Equal(t, 1, T.Finalized(T.ColumnIndex(ColStructure)))
}

func TestRunSystemicErrors(t *testing.T) {
	C := newTask(t, func(r *config.RawJob) { r.StructureColumn = "Smiles" })
	T := rows(t, butane)
	_, err := C.Run(context.Background(), T, nil)
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Len(t, T.Columns(), 2, "no column is added when the input is missing")

	C = newTask(t, func(r *config.RawJob) { r.CoordsColumn = "Coordinates" })
	_, err = C.Run(context.Background(), T, nil)
	assert.ErrorIs(t, err, ErrMissingColumn)

	C = newTask(t, nil)
	_, err = T.AddColumns(ColConformers)
	require.NoError(t, err)
	_, err = C.Run(context.Background(), T, nil)
	assert.ErrorIs(t, err, table.ErrColumnExists)
}

func TestRunCancelled(t *testing.T) {
	C := newTask(t, nil)
	T := rows(t, butane, butane, butane)
	progress := batch.NewProgress(nil)
	progress.Cancel()
	report, err := C.Run(context.Background(), T, progress)
	require.NoError(t, err)
	assert.True(t, report.Cancelled)
	assert.Equal(t, 0, report.Claimed)
	assert.Equal(t, 0, T.Finalized(T.ColumnIndex(ColStructure)))
}

func TestStats(t *testing.T) {
	s := Stats(nil)
	assert.Equal(t, 0, s.N)
	assert.True(t, math.IsNaN(s.Mean))

	s = Stats([]float64{3, 1, 2})
	assert.Equal(t, 3, s.N)
	assert.InDelta(t, 2, s.Mean, 1e-12)
	assert.InDelta(t, 1, s.StdDev, 1e-12)
	assert.Equal(t, 2.0, s.Median)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 3.0, s.Max)

	s = Stats([]float64{-4})
	assert.Equal(t, -4.0, s.Mean)
	assert.Equal(t, 0.0, s.StdDev)
}
