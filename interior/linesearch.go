// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interior

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// lineSearch globalizes the step. The step length starts from the
// fraction-to-boundary cap keeping 𝐳 + α𝐩_z strictly positive:
//
//	α = α𝚖𝚊𝚡 · min(1, minᵢ{𝐳ᵢ/(-𝐩_zᵢ) : 𝐳ᵢ + 𝐩_zᵢ < 0})
//
// then backtracks by β until the candidate is feasible and decreases the
// merit function sufficiently:
//
//	𝒄(𝐱+α𝐩ₓ) ≤ 0  and  ψ⁺ < ψ + τ·η·α·Dψ
//
// A candidate with a non-finite evaluation also contracts the step.
// On acceptance the iterate is committed and the gradient saved for the
// next quasi-Newton update.
func (d *iterDriver) lineSearch() error {
	o, w := d.optimizer, d.workspace
	p := &o.params

	alpha := p.AlphaMax
	ratio := 1.0
	capped := false
	for i, pz := range w.pz {
		if w.z[i]+pz < 0 {
			capped = true
			if r := w.z[i] / -pz; r < ratio {
				ratio = r
			}
		}
	}
	if capped {
		alpha = p.AlphaMax * ratio
	}

	psi := meritValue(w.f, w.c, w.z, w.mu, p.Epsilon)
	slope := meritSlope(w.px, w.pz, w.g, w.c, w.z, w.jac, w.mu, p.Epsilon, w.tmpM, w.rhs)

	ls := 0
	for {
		ls++
		floats.AddScaledTo(w.xNew, w.x, alpha, w.px)
		floats.AddScaledTo(w.zNew, w.z, alpha, w.pz)

		fNew := o.prob.Objective(w.xNew)
		o.prob.Constraints(w.xNew, w.cNew)

		if isFinite(fNew) && allFinite(w.cNew) && allNonPositive(w.cNew) {
			psiNew := meritValue(fNew, w.cNew, w.zNew, w.mu, p.Epsilon)
			if psiNew < psi+p.Tau*w.eta*alpha*slope {
				copy(w.gOld, w.g)
				copy(w.x, w.xNew)
				copy(w.z, w.zNew)
				w.f = fNew
				w.alpha, w.ls = alpha, ls
				return nil
			}
		}

		alpha *= p.Beta
		if alpha < p.AlphaMin {
			return fmt.Errorf("interior: line search step size too small: %w", ErrLineSearch)
		}
	}
}
