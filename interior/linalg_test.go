// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interior

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMulVec(t *testing.T) {
	a := mat.NewDense(2, 3, []float64{
		1, 2, 3,
		4, 5, 6,
	})
	dst := make([]float64, 2)
	mulVec(a, []float64{1, 0, -1}, dst)
	assert.Equal(t, []float64{-2, -2}, dst)

	dstT := make([]float64, 3)
	mulVecTrans(a, []float64{1, -1}, dstT)
	assert.Equal(t, []float64{-3, -3, -3}, dstT)
}

func TestSchurReduce(t *testing.T) {

	// B = diag(2, 3), W = diag(1, 1), J = [1 1; 1 -1], S = diag(-1, -2).
	// JᵀSJ = [-3 1; 1 -3], so H = B + W - JᵀSJ = [6 -1; -1 7].
	b := mat.NewSymDense(2, []float64{2, 0, 0, 3})
	w := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	j := mat.NewDense(2, 2, []float64{1, 1, 1, -1})
	s := []float64{-1, -2}

	dst := mat.NewSymDense(2, nil)
	sj := mat.NewDense(2, 2, nil)
	jtsj := mat.NewDense(2, 2, nil)
	schurReduce(dst, b, w, j, s, sj, jtsj)

	assert.InDelta(t, 6, dst.At(0, 0), 1e-12)
	assert.InDelta(t, -1, dst.At(0, 1), 1e-12)
	assert.InDelta(t, -1, dst.At(1, 0), 1e-12)
	assert.InDelta(t, 7, dst.At(1, 1), 1e-12)
}

func TestSolveSym(t *testing.T) {

	var chol mat.Cholesky
	h := mat.NewSymDense(2, []float64{4, 1, 1, 3})
	dst := make([]float64, 2)

	// [4 1; 1 3]·(1, -1) = (3, -2)
	require.NoError(t, solveSym(&chol, h, []float64{3, -2}, dst))
	assert.InDelta(t, 1, dst[0], 1e-12)
	assert.InDelta(t, -1, dst[1], 1e-12)
}

func TestSolveSymIndefinite(t *testing.T) {
	var chol mat.Cholesky
	h := mat.NewSymDense(2, []float64{1, 2, 2, 1})
	err := solveSym(&chol, h, []float64{1, 1}, make([]float64, 2))
	assert.ErrorIs(t, err, ErrNumerical)
}

func TestSetIdentity(t *testing.T) {
	a := mat.NewSymDense(3, []float64{
		4, 1, 0,
		1, 3, 1,
		0, 1, 2,
	})
	setIdentity(a)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			assert.Equal(t, want, a.At(i, j))
		}
	}
}

func TestFiniteChecks(t *testing.T) {
	assert.True(t, isFinite(0))
	assert.False(t, isFinite(math.NaN()))
	assert.False(t, isFinite(math.Inf(1)))

	assert.True(t, allFinite([]float64{1, -2, 0}))
	assert.False(t, allFinite([]float64{1, math.NaN()}))
	assert.False(t, allFinite([]float64{math.Inf(-1)}))

	assert.True(t, allNonPositive([]float64{-1, 0, -3}))
	assert.False(t, allNonPositive([]float64{-1, 1e-12}))
}
