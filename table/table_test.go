package table

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) *Table {
	T, err := New("Structure", "Name")
	require.NoError(t, err)
	T.AddRow("C.C|0-1", "ethane")
	T.AddRow("", "empty\tname")
	T.AddRow(`O\H2|`, "line\nbreak")
	T.AddRow("", "")
	return T
}

func TestColumns(t *testing.T) {
	T := sample(t)
	assert.Equal(t, 4, T.Rows())
	assert.Equal(t, 1, T.ColumnIndex("Name"))
	assert.Equal(t, -1, T.ColumnIndex("Energy"))
	first, err := T.AddColumns("Energy", "Conformers")
	require.NoError(t, err)
	assert.Equal(t, 2, first)
	assert.Equal(t, []string{"Structure", "Name", "Energy", "Conformers"}, T.Columns())
	assert.Nil(t, T.CellBytes(0, 2))
	T.SetCellValue(0, 2, "-3.5")
	assert.Equal(t, []byte("-3.5"), T.CellBytes(0, 2))
	assert.Nil(t, T.CellBytes(1, 0))
	assert.Nil(t, T.CellBytes(10, 0))

	_, err = T.AddColumns("Name")
	assert.ErrorIs(t, err, ErrColumnExists)
	_, err = T.AddColumns("A", "A")
	assert.ErrorIs(t, err, ErrColumnExists)
	_, err = T.AddColumns("bad\tname")
	assert.ErrorIs(t, err, ErrBadColumnName)
	assert.Len(t, T.Columns(), 4, "failed additions must not add columns")
	assert.Panics(t, func() { T.SetCellValue(0, 9, "x") })
}

func TestFinalize(t *testing.T) {
	T := sample(t)
	assert.Equal(t, 0, T.Finalized(2))
	T.FinalizeColumns(2)
	assert.Equal(t, 1, T.Finalized(2))
}

func TestConcurrentWrites(t *testing.T) {
	T, err := New("In", "Out")
	require.NoError(t, err)
	for i := 0; i < 200; i++ {
		T.AddRow(fmt.Sprint(i))
	}
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < 200; i += 8 {
				T.SetCellValue(i, 1, string(T.CellBytes(i, 0))+"!")
			}
		}(w)
	}
	wg.Wait()
	for i := 0; i < 200; i++ {
		assert.Equal(t, fmt.Sprint(i)+"!", T.Cell(i, 1))
	}
}

func TestReadWrite(t *testing.T) {
	T := sample(t)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, T))
	R, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, T.Columns(), R.Columns())
	require.Equal(t, T.Rows(), R.Rows())
	for i := 0; i < T.Rows(); i++ {
		for j := range T.Columns() {
			assert.Equal(t, T.Cell(i, j), R.Cell(i, j), "cell %d %d", i, j)
		}
	}
	_, err = Read(bytes.NewBufferString(""))
	assert.Error(t, err)
}

func TestFiles(t *testing.T) {
	T := sample(t)
	dir := t.TempDir()
	for _, name := range []string{"rows.tsv", "rows.tsv.gz", "rows.tsv.zst", "ROWS.TSV.ZST"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteFile(path, T), name)
		R, err := ReadFile(path)
		require.NoError(t, err, name)
		require.Equal(t, T.Rows(), R.Rows(), name)
		assert.Equal(t, T.Cell(2, 1), R.Cell(2, 1), name)
		assert.Equal(t, T.Cell(2, 0), R.Cell(2, 0), name)
	}
	_, err := ReadFile(filepath.Join(dir, "missing.tsv"))
	assert.Error(t, err)
}
