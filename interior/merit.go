// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interior

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// meritValue evaluates the logarithmic-barrier merit function
//
//	ψ(𝐱,𝐳;μ) = 𝒇(𝐱) - 𝒄(𝐱)ᵀ𝐳 - μ·∑ᵢ log(𝒄ᵢ²𝐳ᵢ + ε)
//
// The squared 𝒄ᵢ makes the barrier term insensitive to the sign of 𝒄ᵢ
// (the linear term -𝒄ᵀ𝐳 is not); the interior feasibility filter of the
// line search is what enforces 𝒄 < 0.
func meritValue(f float64, c, z []float64, mu, eps float64) float64 {
	psi := f - floats.Dot(c, z)
	for i, c := range c {
		psi -= mu * math.Log(c*c*z[i]+eps)
	}
	return psi
}

// meritSlope evaluates the directional derivative of ψ along (𝐩ₓ,𝐩_z):
//
//	Dψ = 𝐩ₓᵀ[∇𝒇 - 𝐉ᵀ𝐳 - 2μ𝐉ᵀ(1/(𝒄-ε))] - 𝐩_zᵀ[𝒄 + μ/(𝐳+ε)]
//
// tmpM and tmpN are scratch of length m and n.
func meritSlope(px, pz, g, c, z []float64, jac *mat.Dense, mu, eps float64, tmpM, tmpN []float64) float64 {
	for i, z := range z {
		tmpM[i] = z + 2*mu/(c[i]-eps)
	}
	mulVecTrans(jac, tmpM, tmpN)

	slope := 0.0
	for i, px := range px {
		slope += px * (g[i] - tmpN[i])
	}
	for i, pz := range pz {
		slope -= pz * (c[i] + mu/(z[i]+eps))
	}
	return slope
}
