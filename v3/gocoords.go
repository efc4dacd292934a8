/*
 * gocoords.go, part of goconf.
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

package v3

import (
	"fmt"
	"math"
	"strings"
)

//NVecs returns the number of vectors in F.
func (F *Matrix) NVecs() int {
	r, c := F.Dims()
	if c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return r
}

//Len is the same as NVecs.
func (F *Matrix) Len() int {
	return F.NVecs()
}

//AddVec adds the row vector vec to each vector of A, putting the result on the receiver.
//Panics if matrices are mismatched.
func (F *Matrix) AddVec(A, vec *Matrix) {
	ar, _ := A.Dims()
	rr, _ := vec.Dims()
	fr, _ := F.Dims()
	if rr != 1 || ar != fr {
		panic(ErrShape)
	}
	v := vec.RawRowView(0)
	t := [3]float64{v[0], v[1], v[2]} //vec could be a view of A or F
	for i := 0; i < ar; i++ {
		a := A.RawRowView(i)
		f := F.RawRowView(i)
		for k := 0; k < 3; k++ {
			f[k] = a[k] + t[k]
		}
	}
}

//SubVec subtracts the vector vec from each vector of the matrix A, putting
//the result on the receiver. Panics if matrices are mismatched.
func (F *Matrix) SubVec(A, vec *Matrix) {
	ar, _ := A.Dims()
	rr, _ := vec.Dims()
	fr, _ := F.Dims()
	if rr != 1 || ar != fr {
		panic(ErrShape)
	}
	v := vec.RawRowView(0)
	t := [3]float64{v[0], v[1], v[2]}
	for i := 0; i < ar; i++ {
		a := A.RawRowView(i)
		f := F.RawRowView(i)
		for k := 0; k < 3; k++ {
			f[k] = a[k] - t[k]
		}
	}
}

//DelVec puts in F the matrix A without its ith vector.
func (F *Matrix) DelVec(A *Matrix, i int) {
	ar := A.NVecs()
	if i >= ar || F.NVecs() != ar-1 {
		panic(ErrShape)
	}
	k := 0
	for j := 0; j < ar; j++ {
		if j == i {
			continue
		}
		copy(F.RawRowView(k), A.RawRowView(j))
		k++
	}
}

//SetVecs sets the vectors with index n = each value on clist, in the receiver, to the
//corresponding vector of A.
func (F *Matrix) SetVecs(A *Matrix, clist []int) {
	if A.NVecs() < len(clist) || F.NVecs() < len(clist) {
		panic(ErrShape)
	}
	for key, val := range clist {
		copy(F.RawRowView(val), A.RawRowView(key))
	}
}

//SomeVecs puts in the receiver the vectors of A whose indexes are in clist.
//The vectors are in the same order as in clist.
func (F *Matrix) SomeVecs(A *Matrix, clist []int) {
	if F.NVecs() != len(clist) || A.NVecs() < len(clist) {
		panic(ErrShape)
	}
	for key, val := range clist {
		copy(F.RawRowView(key), A.RawRowView(val))
	}
}

//SomeVecsSafe is like SomeVecs but returns an error instead of panicking.
func (F *Matrix) SomeVecsSafe(A *Matrix, clist []int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch e := r.(type) {
			case PanicMsg:
				err = Error{string(e), []string{"SomeVecsSafe"}, true}
			case error:
				err = Error{fmt.Sprintf("goconf/v3: Error in a gonum function: %s", e), []string{"SomeVecsSafe"}, true}
			default:
				panic(r)
			}
		}
	}()
	F.SomeVecs(A, clist)
	return err
}

//String returns a neat string representation of a Matrix
func (F *Matrix) String() string {
	r, _ := F.Dims()
	v := make([]string, r+2)
	v[0] = "\n["
	v[len(v)-1] = " ]"
	for i := 0; i < r; i++ {
		row := F.RawRowView(i)
		v[i+1] = fmt.Sprintf(" %6.2f %6.2f %6.2f\n", row[0], row[1], row[2])
	}
	v[len(v)-2] = strings.Replace(v[len(v)-2], "\n", "", 1)
	return strings.Join(v, "")
}

//Cross puts the cross product of the first vecs of a and b in the first vec of F. Panics if error.
func (F *Matrix) Cross(a, b *Matrix) {
	if a.NVecs() < 1 || b.NVecs() < 1 || F.NVecs() < 1 {
		panic(ErrNoCrossProduct)
	}
	x := a.At(0, 1)*b.At(0, 2) - a.At(0, 2)*b.At(0, 1)
	y := a.At(0, 2)*b.At(0, 0) - a.At(0, 0)*b.At(0, 2)
	z := a.At(0, 0)*b.At(0, 1) - a.At(0, 1)*b.At(0, 0)
	F.Set(0, 0, x)
	F.Set(0, 1, y)
	F.Set(0, 2, z)
}

//Distance returns the distance between the vectors i and j of F.
func (F *Matrix) Distance(i, j int) float64 {
	a := F.RawRowView(i)
	b := F.RawRowView(j)
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

