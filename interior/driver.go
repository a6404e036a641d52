// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interior

import (
	"fmt"
	"math"
)

// iterDriver runs the primal-dual interior-point iteration.
//
// The method maintains a strictly interior primal-dual pair (𝐱,𝐳) with
// 𝒄(𝐱) < 0 and 𝐳 > 0, and drives the perturbed Karush-Kuhn-Tucker system
//
//	∇𝒇(𝐱) + 𝐉ᵀ𝐳 = 0
//	𝒄(𝐱) ∘ 𝐳 + μ𝟙 = 0
//
// to its unperturbed limit by shrinking the barrier parameter μ along a
// centering schedule. Each iteration:
//
//  1. evaluates the problem callbacks at (𝐱,𝐳)
//  2. forms the KKT residuals 𝐫ₓ = ∇𝒇 + 𝐉ᵀ𝐳 and 𝐫𝒸 = 𝒄 ∘ 𝐳 and the
//     schedule η = min(η𝚖𝚊𝚡, ‖𝐫₀‖/ν), σ = min(σ𝚖𝚊𝚡, √(‖𝐫₀‖/ν)),
//     μ = max(μ𝚖𝚒𝚗, σ·(-𝒄ᵀ𝐳)/m) with ν = n + m
//  3. refreshes 𝐁: exact Hessian (Newton), rank-two update (BFGS),
//     or identity (steepest descent)
//  4. eliminates 𝐩_z from the 2×2 block system via the Schur complement,
//     leaving the symmetric reduced system (𝐁 + 𝐖 - 𝐉ᵀ𝐒𝐉)𝐩ₓ = -𝐠_b
//  5. globalizes with a fraction-to-boundary cap on α followed by
//     backtracking on the logarithmic-barrier merit function ψ
//
// The iteration stops once ‖𝐫₀‖/ν falls below the tolerance, the cap on
// iterations is reached, or a fatal failure surfaces from a phase.
type iterDriver struct {
	optimizer *Optimizer
	workspace *Workspace
}

// mainLoop executes INIT → (EVAL → TEST → STEP → LINE_SEARCH)* until
// convergence, iteration exhaustion or a fatal error.
func (d *iterDriver) mainLoop() (Status, error) {

	o, w := d.optimizer, d.workspace
	p := &o.params
	nv := float64(o.n + o.m)

	d.printHeader()

	for w.iter = 0; w.iter < p.MaxIterations; w.iter++ {

		if err := d.evalIterate(); err != nil {
			return EvalFailure, err
		}

		d.centering()
		d.printIter()

		if w.normR0/nv < p.Tolerance {
			return Converged, nil
		}

		// Refresh the quasi-Newton approximation once a previous
		// gradient exists. 𝐬 = α𝐩ₓ, 𝐲 = 𝐠 - 𝐠_old.
		if o.descent == BFGS && w.iter > 0 {
			for i, px := range w.px {
				w.step[i] = w.alpha * px
			}
			for i, g := range w.g {
				w.grad[i] = g - w.gOld[i]
			}
			if err := bfgsUpdate(w.b, w.step, w.grad, w.bs); err != nil {
				return StepFailure, err
			}
		}

		if err := d.computeStep(); err != nil {
			return StepFailure, err
		}

		if err := d.lineSearch(); err != nil {
			return SearchFailure, err
		}
	}

	return MaxIterReached, fmt.Errorf("interior: residual %g above tolerance after %d iterations: %w",
		w.normR0/nv, p.MaxIterations, ErrNotConverged)
}

// evalIterate computes 𝒇, 𝒄, ∇𝒇, 𝐉 and 𝐖 at the current iterate, plus
// ∇²𝒇 in Newton mode. A non-finite response here is fatal.
func (d *iterDriver) evalIterate() error {
	o, w := d.optimizer, d.workspace

	w.f = o.prob.Objective(w.x)
	o.prob.Constraints(w.x, w.c)
	o.prob.Gradient(w.x, w.g)
	o.prob.Jacobian(w.x, w.z, w.jac)
	o.prob.LagrangianHessian(w.x, w.z, w.lag)
	if o.descent == Newton {
		o.hess(w.x, w.b)
	}

	if !isFinite(w.f) || !allFinite(w.c) || !allFinite(w.g) {
		return fmt.Errorf("interior: non-finite evaluation at the current iterate: %w", ErrEvaluation)
	}
	return nil
}

// printHeader emits the telemetry header once per solve.
func (d *iterDriver) printHeader() {
	o := d.optimizer
	if o.params.Verbose {
		o.logger.printf("i, f(x), lg(mu), sigma, ||r_x||, ||r_c||, alpha, #ls\n")
	}
}

// printIter emits one telemetry row. The step length and backtracking
// count belong to the previous iteration, both zero before the first
// line search.
func (d *iterDriver) printIter() {
	o, w := d.optimizer, d.workspace
	if o.params.Verbose {
		o.logger.printf("%d, %g, %g, %g, %g, %g, %g, %d\n",
			w.iter+1, w.f, math.Log10(w.mu), w.sigma, w.normRx, w.normRc, w.alpha, w.ls)
	}
}
