package v3

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

//Returns an identity matrix spanning span cols and rows
func gnEye(span int) *mat.Dense {
	A := mat.NewDense(span, span, nil)
	for i := 0; i < span; i++ {
		A.Set(i, i, 1.0)
	}
	return A
}

func TestGeo(Te *testing.T) {
	a := []float64{1.0, 2.0, 3, 4, 5, 6, 7, 8, 9}
	A, err := NewMatrix(a)
	if err != nil {
		Te.Fatal(err)
	}
	ar := A.NVecs()
	T := Zeros(ar)
	T.Mul(A, gnEye(3))
	if !mat.Equal(T, A) {
		Te.Errorf("Multiplication by identity changed the matrix: %v", T)
	}
	View := A.VecView(1)
	View.Set(0, 0, 100)
	if A.At(1, 0) != 100 {
		Te.Errorf("Changes in a view not reflected in the original matrix %v", A)
	}
	if _, err := NewMatrix([]float64{1, 2}); err == nil {
		Te.Error("NewMatrix accepted a slice not divisible by 3")
	}
}

func TestSomeVecs(Te *testing.T) {
	a := []float64{1.0, 2.0, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18}
	A, err := NewMatrix(a)
	if err != nil {
		Te.Fatal(err)
	}
	B := Zeros(3)
	cind := []int{1, 3, 5}
	err = B.SomeVecsSafe(A, cind)
	if err != nil {
		Te.Fatal(err)
	}
	if B.At(2, 2) != 18 || B.At(0, 0) != 4 {
		Te.Errorf("Wrong vectors copied %v", B)
	}
	B.Set(1, 1, 55)
	A.SetVecs(B, cind)
	if A.At(3, 1) != 55 {
		Te.Errorf("SetVecs did not copy back %v", A)
	}
	C := Zeros(2)
	if err = C.SomeVecsSafe(A, cind); err == nil {
		Te.Error("SomeVecsSafe should have failed on a wrong shape")
	}
}

func TestScale(Te *testing.T) {
	a := []float64{1.0, 2.0, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18}
	A, err := NewMatrix(a)
	if err != nil {
		Te.Fatal(err)
	}
	Row, err := NewMatrix([]float64{10, 20, 30})
	if err != nil {
		Te.Fatal(err)
	}
	A.AddVec(A, Row)
	if A.At(5, 2) != 48 {
		Te.Errorf("AddVec failed: %v", A)
	}
	A.SubVec(A, Row)
	if A.At(5, 2) != 18 {
		Te.Errorf("SubVec failed: %v", A)
	}
	//Subtracting a view of the same matrix.
	A.SubVec(A, A.VecView(0))
	if A.At(0, 0) != 0 || A.At(1, 0) != 3 {
		Te.Errorf("SubVec with a view of the receiver failed: %v", A)
	}
}

func TestRowMod(Te *testing.T) {
	a := []float64{1.0, 2.0, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18}
	A, err := NewMatrix(a)
	if err != nil {
		Te.Fatal(err)
	}
	B := Zeros(5)
	B.DelVec(A, 3)
	if B.At(3, 0) != 13 {
		Te.Errorf("DelVec failed: %v", B)
	}
	x, _ := NewMatrix([]float64{1, 0, 0})
	y, _ := NewMatrix([]float64{0, 1, 0})
	z := Zeros(1)
	z.Cross(x, y)
	if z.At(0, 2) != 1 {
		Te.Errorf("Cross product failed: %v", z)
	}
	if d := A.Distance(0, 1); math.Abs(d-math.Sqrt(27)) > 1e-12 {
		Te.Errorf("Wrong distance %f", d)
	}
}

func TestFloats(Te *testing.T) {
	A, _ := NewMatrix([]float64{1, 2, 3, 4, 5, 6})
	f := A.Floats(nil)
	f[4] = 50
	B := Zeros(2)
	B.SetFloats(f)
	if B.At(1, 1) != 50 || A.At(1, 1) != 5 {
		Te.Errorf("Floats should return a copy: %v %v", A, B)
	}
	if Det(gnEye(3)) != 1 {
		Te.Error("Determinant of identity is not 1")
	}
}
