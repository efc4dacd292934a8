package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rmera/goconf/table"
	"github.com/rmera/goconf/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "goconf dev")
}

func TestIDCode(t *testing.T) {
	out, err := execute(t, "CH3.CH2.OH1|0-1.1-2\n\nCH3.CH3|0-1\n", "idcode")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Empty(t, lines[1])
	again, err := execute(t, "", "idcode", lines[0], lines[2])
	require.NoError(t, err)
	assert.Equal(t, lines[0]+"\n"+lines[2]+"\n", again, "canonical codes must not change")

	out, err = execute(t, "", "idcode", "--explicit-h", "CH3.CH3|0-1")
	require.NoError(t, err)
	assert.NotContains(t, out, "CH3")

	_, err = execute(t, "", "idcode", "nonsense")
	assert.Error(t, err)
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	job := filepath.Join(dir, "job.toml")
	require.NoError(t, os.WriteFile(job, []byte("strategy = \"systematic\"\nconformers = 3\nmax_trials = 20\n"), 0o644))
	in := filepath.Join(dir, "in.tsv.zst")
	T, err := table.New("Name", "Structure")
	require.NoError(t, err)
	T.AddRow("pentane", "CH3.CH2.CH2.CH2.CH3|0-1.1-2.2-3.3-4")
	T.AddRow("bad", "garbage")
	require.NoError(t, table.WriteFile(in, T))
	out := filepath.Join(dir, "out.tsv.gz")
	hist := filepath.Join(dir, "hist.png")

	stdout, err := execute(t, "", "run", "--job", job, "--in", in, "--out", out, "--plot", hist, "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 rows, 1 failed")

	R, err := table.ReadFile(out)
	require.NoError(t, err)
	col := R.ColumnIndex(task.ColConformers)
	require.Positive(t, col)
	assert.NotEmpty(t, R.Cell(0, col))
	assert.NotEmpty(t, R.Cell(1, R.ColumnIndex(task.ColErrors)))
	_, err = os.Stat(hist)
	assert.NoError(t, err)

	torsions := filepath.Join(dir, "torsions.png")
	_, err = execute(t, "", "plot", "--in", out, "--row", "0", "--out", torsions)
	require.NoError(t, err)
	_, err = os.Stat(torsions)
	assert.NoError(t, err)
	_, err = execute(t, "", "plot", "--in", out, "--out", filepath.Join(dir, "energies.png"))
	assert.NoError(t, err)

	_, err = execute(t, "", "run", "--job", filepath.Join(dir, "missing.toml"), "--in", in, "--out", out)
	assert.Error(t, err)
}
