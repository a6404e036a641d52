// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interior

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Dense linear-algebra facade over gonum/mat. Vectors are plain slices;
// the helpers wrap them in VecDense views sharing the backing storage.

// mulVec computes dst = A·x for an m×n matrix.
func mulVec(a *mat.Dense, x, dst []float64) {
	m, n := a.Dims()
	v := mat.NewVecDense(m, dst)
	v.MulVec(a, mat.NewVecDense(n, x))
}

// mulVecTrans computes dst = Aᵀ·x for an m×n matrix.
func mulVecTrans(a *mat.Dense, x, dst []float64) {
	m, n := a.Dims()
	v := mat.NewVecDense(n, dst)
	v.MulVec(a.T(), mat.NewVecDense(m, x))
}

// schurReduce assembles the reduced Hessian dst = B + W - JᵀSJ with S a
// diagonal matrix given by its entries. sj and jtsj are m×n and n×n
// scratch. The JᵀSJ product is symmetric up to roundoff; the assembly
// averages the off-diagonal pair to keep dst exactly symmetric.
func schurReduce(dst *mat.SymDense, b, w *mat.SymDense, j *mat.Dense, s []float64, sj, jtsj *mat.Dense) {
	m, n := j.Dims()
	for i := 0; i < m; i++ {
		for k := 0; k < n; k++ {
			sj.Set(i, k, s[i]*j.At(i, k))
		}
	}
	jtsj.Mul(j.T(), sj)
	for i := 0; i < n; i++ {
		for k := i; k < n; k++ {
			dst.SetSym(i, k, b.At(i, k)+w.At(i, k)-0.5*(jtsj.At(i, k)+jtsj.At(k, i)))
		}
	}
}

// solveSym factorizes the symmetric system h and solves h·dst = rhs.
// An indefinite h surfaces as ErrNumerical; an ill-conditioned but
// solvable factorization is accepted.
func solveSym(chol *mat.Cholesky, h *mat.SymDense, rhs, dst []float64) error {
	if ok := chol.Factorize(h); !ok {
		return fmt.Errorf("interior: reduced system factorization is not positive definite: %w", ErrNumerical)
	}
	n := len(rhs)
	if err := chol.SolveVecTo(mat.NewVecDense(n, dst), mat.NewVecDense(n, rhs)); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return fmt.Errorf("interior: reduced system solve: %v: %w", err, ErrNumerical)
		}
	}
	return nil
}

// setIdentity resets a symmetric matrix to I.
func setIdentity(a *mat.SymDense) {
	n := a.SymmetricDim()
	for i := 0; i < n; i++ {
		for k := i; k < n; k++ {
			if i == k {
				a.SetSym(i, k, 1)
			} else {
				a.SetSym(i, k, 0)
			}
		}
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func allFinite(v []float64) bool {
	for _, v := range v {
		if !isFinite(v) {
			return false
		}
	}
	return true
}

func allNonPositive(v []float64) bool {
	for _, v := range v {
		if v > 0 {
			return false
		}
	}
	return true
}
