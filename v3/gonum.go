/*
 * gonum.go, part of goconf.
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

//gonum.go contains the Matrix type and the wrappers around gonum's mat.Dense.

//All the *Vec functions operate on row vectors, which are the cartesian coordinates
//of one point in 3D space.

package v3

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

//Matrix is a set of vectors in 3D space, stored as the rows of a Nx3 gonum Dense.
//Within the package it is understood that a "vector" is a row vector, i.e. the
//cartesian coordinates of a point in 3D space.
type Matrix struct {
	*mat.Dense
}

//Dense2Matrix wraps A, which must have 3 columns, in a Matrix.
func Dense2Matrix(A *mat.Dense) *Matrix {
	_, c := A.Dims()
	if c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return &Matrix{A}
}

//NewMatrix generates and returns a Matrix with 3 columns from data.
func NewMatrix(data []float64) (*Matrix, error) {
	const cols int = 3
	l := len(data)
	if l == 0 || l%cols != 0 {
		return nil, Error{fmt.Sprintf("Input slice length %d not divisible by %d", l, cols), []string{"NewMatrix"}, true}
	}
	return &Matrix{mat.NewDense(l/cols, cols, data)}, nil
}

//Zeros returns a zero-filled Matrix with vecs vectors.
func Zeros(vecs int) *Matrix {
	const cols int = 3
	return &Matrix{mat.NewDense(vecs, cols, make([]float64, cols*vecs))}
}

//VecView returns a view of the ith vector of the matrix.
//Changes in the view are reflected in F and vice-versa.
func (F *Matrix) VecView(i int) *Matrix {
	return &Matrix{F.Dense.Slice(i, i+1, 0, 3).(*mat.Dense)}
}

//View returns a view of r vectors of F, starting from the ith one.
func (F *Matrix) View(i, r int) *Matrix {
	return &Matrix{F.Dense.Slice(i, i+r, 0, 3).(*mat.Dense)}
}

//Mul wraps mat.Dense.Mul to take care of the case when one of the
//arguments is a Matrix, possibly the receiver itself.
func (F *Matrix) Mul(A, B mat.Matrix) {
	if a, ok := A.(*Matrix); ok {
		A = a.Dense
	}
	if b, ok := B.(*Matrix); ok {
		B = b.Dense
	}
	F.Dense.Mul(A, B)
}

//Norm returns the norm n of the matrix. For a vector, Norm(2) is its length.
func (F *Matrix) Norm(n float64) float64 {
	return F.Dense.Norm(n)
}

//Dot returns the dot product between the first vectors of F and A.
func (F *Matrix) Dot(A *Matrix) float64 {
	var r float64
	for i := 0; i < 3; i++ {
		r += F.At(0, i) * A.At(0, i)
	}
	return r
}

//Clone returns a deep copy of F.
func (F *Matrix) Clone() *Matrix {
	r := Zeros(F.NVecs())
	r.Copy(F.Dense)
	return r
}

//Floats returns a copy of the data of F as a flat slice, row after row.
func (F *Matrix) Floats(s []float64) []float64 {
	n := F.NVecs() * 3
	if cap(s) < n {
		s = make([]float64, n)
	}
	s = s[:n]
	for i := 0; i < F.NVecs(); i++ {
		copy(s[i*3:i*3+3], F.RawRowView(i))
	}
	return s
}

//SetFloats copies the flat slice s, row after row, into F.
func (F *Matrix) SetFloats(s []float64) {
	if len(s) != F.NVecs()*3 {
		panic(ErrShape)
	}
	for i := 0; i < F.NVecs(); i++ {
		copy(F.RawRowView(i), s[i*3:i*3+3])
	}
}

//Det returns the determinant of a 3x3 matrix. Panics if the matrix is not 3x3.
func Det(A mat.Matrix) float64 {
	r, c := A.Dims()
	if r != 3 || c != 3 {
		panic(ErrDeterminant)
	}
	return (A.At(0, 0)*(A.At(1, 1)*A.At(2, 2)-A.At(2, 1)*A.At(1, 2)) - A.At(1, 0)*(A.At(0, 1)*A.At(2, 2)-A.At(2, 1)*A.At(0, 2)) + A.At(2, 0)*(A.At(0, 1)*A.At(1, 2)-A.At(1, 1)*A.At(0, 2)))
}

//Errors

//Error is the error type of the package. It follows the goChem error interface.
type Error struct {
	message  string
	deco     []string
	critical bool
}

//Error returns a string with an error message.
func (err Error) Error() string {
	return err.message
}

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

//Critical return whether the error is critical or it can be ignored
func (err Error) Critical() bool { return err.critical }

//PanicMsg is a message used for panics, even though it does satisfy the error interface.
//for errors use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNotXx3Matrix      = PanicMsg("goconf/v3: A v3.Matrix should have 3 columns")
	ErrNoCrossProduct    = PanicMsg("goconf/v3: Invalid matrix for cross product")
	ErrNotEnoughElements = PanicMsg("goconf/v3: not enough elements in Matrix")
	ErrDeterminant       = PanicMsg("goconf/v3: Determinants are only available for 3x3 matrices")
	ErrShape             = PanicMsg("goconf/v3: Dimension mismatch")
	ErrIndexOutOfRange   = PanicMsg("goconf/v3: index out of range")
)
