// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interior

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// centering computes the unperturbed KKT residuals and the parameters
// driving this iteration:
//
//	𝐫ₓ = ∇𝒇 + 𝐉ᵀ𝐳
//	𝐫𝒸 = 𝒄 ∘ 𝐳
//	η  = min(η𝚖𝚊𝚡, ‖𝐫₀‖/ν)        ν = n + m
//	σ  = min(σ𝚖𝚊𝚡, √(‖𝐫₀‖/ν))
//	μ  = max(μ𝚖𝚒𝚗, σ·(-𝒄ᵀ𝐳)/m)
func (d *iterDriver) centering() {
	o, w := d.optimizer, d.workspace
	p := &o.params
	nv := float64(o.n + o.m)

	mulVecTrans(w.jac, w.z, w.rx)
	floats.Add(w.rx, w.g)
	floats.MulTo(w.rc, w.c, w.z)

	w.normRx = floats.Norm(w.rx, 2)
	w.normRc = floats.Norm(w.rc, 2)
	w.normR0 = math.Hypot(w.normRx, w.normRc)

	w.eta = math.Min(p.EtaMax, w.normR0/nv)
	w.sigma = math.Min(p.SigmaMax, math.Sqrt(w.normR0/nv))
	w.gap = -floats.Dot(w.c, w.z)
	w.mu = math.Max(p.MuMin, w.sigma*w.gap/float64(o.m))
}

// computeStep solves the perturbed KKT system for the search direction.
// Eliminating 𝐩_z with 𝐒 = diag(𝐳/(𝒄-ε)) leaves the reduced system
//
//	(𝐁 + 𝐖 - 𝐉ᵀ𝐒𝐉) 𝐩ₓ = -𝐠_b,  𝐠_b = ∇𝒇 - μ𝐉ᵀ(1/(𝒄-ε))
//
// which is positive definite on the interior, and the dual direction
// follows by substitution:
//
//	𝐩_z = -(𝐳 + μ/(𝒄-ε) + 𝐒𝐉𝐩ₓ)
func (d *iterDriver) computeStep() error {
	o, w := d.optimizer, d.workspace
	eps := o.params.Epsilon

	for i, c := range w.c {
		w.cEps[i] = c - eps
		w.rcpC[i] = 1 / w.cEps[i]
		w.sDiag[i] = w.z[i] / w.cEps[i]
	}

	// rhs = -𝐠_b = μ𝐉ᵀ(1/(𝒄-ε)) - ∇𝒇
	mulVecTrans(w.jac, w.rcpC, w.rhs)
	for i, g := range w.g {
		w.rhs[i] = w.mu*w.rhs[i] - g
	}

	schurReduce(w.hr, w.b, w.lag, w.jac, w.sDiag, w.sj, w.jtsj)
	if err := solveSym(&w.chol, w.hr, w.rhs, w.px); err != nil {
		return err
	}
	if !allFinite(w.px) {
		return fmt.Errorf("interior: reduced system solve produced a non-finite direction: %w", ErrNumerical)
	}

	mulVec(w.jac, w.px, w.jpx)
	for i, z := range w.z {
		w.pz[i] = -(z + w.mu*w.rcpC[i] + w.sDiag[i]*w.jpx[i])
	}
	return nil
}
