// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interior

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// bfgsUpdate applies the rank-two Broyden-Fletcher-Goldfarb-Shanno update
// to the Hessian approximation in place:
//
//	𝐁⁺ = 𝐁 - (𝐁𝐬)(𝐁𝐬)ᵀ/(𝐬ᵀ𝐁𝐬) + 𝐲𝐲ᵀ/(𝐲ᵀ𝐬)
//
// with 𝐬 = α𝐩ₓ and 𝐲 the gradient difference. The curvature condition
// 𝐲ᵀ𝐬 > 0 must hold for 𝐁⁺ to stay positive definite. bs is scratch of
// length n receiving 𝐁𝐬.
func bfgsUpdate(b *mat.SymDense, s, y, bs []float64) error {

	ys := floats.Dot(y, s)
	if ys <= 0 {
		return fmt.Errorf("interior: bfgs update condition yᵀs > 0 not satisfied: %w", ErrNumerical)
	}

	n := len(s)
	bsVec := mat.NewVecDense(n, bs)
	bsVec.MulVec(b, mat.NewVecDense(n, s))
	sbs := floats.Dot(bs, s)

	b.SymRankOne(b, -1/sbs, bsVec)
	b.SymRankOne(b, 1/ys, mat.NewVecDense(n, y))
	return nil
}
