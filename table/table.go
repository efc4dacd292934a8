/*
 * table.go, part of goconf.
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

//Package table provides the row store consumed by the conformer tasks, an in-memory
//implementation, and reading and writing of tab-separated files, optionally
//compressed.
package table

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	//ErrColumnExists is returned when adding a column with the name of an existing one.
	ErrColumnExists = errors.New("table: column already exists")
	//ErrBadColumnName is returned for empty column names or names with tabs or newlines.
	ErrBadColumnName = errors.New("table: invalid column name")
)

//Store is a table of text cells addressed by row and column index.
//Implementations must allow concurrent SetCellValue calls on different rows.
type Store interface {
	Rows() int
	Columns() []string
	//ColumnIndex returns the index of the column called name, or -1.
	ColumnIndex(name string) int
	//CellBytes returns the content of a cell, or nil if it is empty.
	CellBytes(row, col int) []byte
	SetCellValue(row, col int, value string)
	//AddColumns appends empty columns and returns the index of the first one.
	AddColumns(names ...string) (int, error)
	//FinalizeColumns signals that the columns from first on will not be written anymore.
	//It is called once per batch, after all the rows have been written.
	FinalizeColumns(first int)
}

//Table is an in-memory Store. The zero value is an empty table.
type Table struct {
	mu        sync.RWMutex
	columns   []string
	rows      [][]string
	finalized map[int]int
}

//New returns a table with the given columns and no rows.
func New(columns ...string) (*Table, error) {
	T := new(Table)
	if _, err := T.AddColumns(columns...); err != nil {
		return nil, err
	}
	return T, nil
}

//AddRow appends a row with the given values, and returns its index. Missing values are
//empty, extra values are ignored.
func (T *Table) AddRow(values ...string) int {
	T.mu.Lock()
	defer T.mu.Unlock()
	row := make([]string, len(T.columns))
	copy(row, values)
	T.rows = append(T.rows, row)
	return len(T.rows) - 1
}

func (T *Table) Rows() int {
	T.mu.RLock()
	defer T.mu.RUnlock()
	return len(T.rows)
}

//Columns returns a copy of the column names.
func (T *Table) Columns() []string {
	T.mu.RLock()
	defer T.mu.RUnlock()
	return append([]string(nil), T.columns...)
}

func (T *Table) ColumnIndex(name string) int {
	T.mu.RLock()
	defer T.mu.RUnlock()
	for i, v := range T.columns {
		if v == name {
			return i
		}
	}
	return -1
}

//Cell returns the content of a cell. Out of range cells are empty.
func (T *Table) Cell(row, col int) string {
	T.mu.RLock()
	defer T.mu.RUnlock()
	if row < 0 || row >= len(T.rows) || col < 0 || col >= len(T.rows[row]) {
		return ""
	}
	return T.rows[row][col]
}

func (T *Table) CellBytes(row, col int) []byte {
	c := T.Cell(row, col)
	if c == "" {
		return nil
	}
	return []byte(c)
}

//SetCellValue sets the content of a cell. It panics if the cell is out of range.
func (T *Table) SetCellValue(row, col int, value string) {
	T.mu.Lock()
	defer T.mu.Unlock()
	if row < 0 || row >= len(T.rows) || col < 0 || col >= len(T.columns) {
		panic(fmt.Sprintf("table: cell (%d, %d) out of range", row, col))
	}
	T.rows[row][col] = value
}

func (T *Table) AddColumns(names ...string) (int, error) {
	T.mu.Lock()
	defer T.mu.Unlock()
	first := len(T.columns)
	seen := make(map[string]bool, len(T.columns)+len(names))
	for _, v := range T.columns {
		seen[v] = true
	}
	for _, v := range names {
		if v == "" || strings.ContainsAny(v, "\t\r\n") {
			return -1, fmt.Errorf("%w: %q", ErrBadColumnName, v)
		}
		if seen[v] {
			return -1, fmt.Errorf("%w: %q", ErrColumnExists, v)
		}
		seen[v] = true
	}
	T.columns = append(T.columns, names...)
	for i, r := range T.rows {
		T.rows[i] = append(r, make([]string, len(names))...)
	}
	return first, nil
}

func (T *Table) FinalizeColumns(first int) {
	T.mu.Lock()
	defer T.mu.Unlock()
	if T.finalized == nil {
		T.finalized = make(map[int]int)
	}
	T.finalized[first]++
}

//Finalized returns how many times FinalizeColumns was called with first.
func (T *Table) Finalized(first int) int {
	T.mu.RLock()
	defer T.mu.RUnlock()
	return T.finalized[first]
}
