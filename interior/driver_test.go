// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interior

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const telemetryHeader = "i, f(x), lg(mu), sigma, ||r_x||, ||r_c||, alpha, #ls"

func TestTelemetry(t *testing.T) {

	var sink bytes.Buffer
	params := DefaultParams()
	params.Verbose = true

	spec := Spec{
		N: 4, M: 3,
		Descent: Newton,
		Funcs:   qprogFuncs(),
		Params:  &params,
		Log:     &Logger{Out: &sink},
	}
	o, err := spec.New()
	require.NoError(t, err)
	r, err := o.Fit(make([]float64, 4), o.Init())
	require.NoError(t, err)
	require.True(t, r.OK)

	lines := strings.Split(strings.TrimRight(sink.String(), "\n"), "\n")
	require.Equal(t, telemetryHeader, lines[0])
	// One row per executed iteration, including the final convergence check.
	require.Len(t, lines, r.NumIter+2)
	assert.True(t, strings.HasPrefix(lines[1], "1, "))
	// Step length and backtracking count are zero before the first search.
	assert.True(t, strings.HasSuffix(lines[1], ", 0, 0"))
}

func TestTelemetrySilentByDefault(t *testing.T) {
	var sink bytes.Buffer
	spec := Spec{
		N: 4, M: 3,
		Descent: Newton,
		Funcs:   qprogFuncs(),
		Log:     &Logger{Out: &sink},
	}
	o, err := spec.New()
	require.NoError(t, err)
	_, err = o.Fit(make([]float64, 4), o.Init())
	require.NoError(t, err)
	assert.Zero(t, sink.Len())
}

func TestImmediateConvergence(t *testing.T) {
	var sink bytes.Buffer
	params := DefaultParams()
	params.Tolerance = 1e3
	params.Verbose = true

	spec := Spec{
		N: 4, M: 3,
		Funcs:  qprogFuncs(),
		Params: &params,
		Log:    &Logger{Out: &sink},
	}
	o, err := spec.New()
	require.NoError(t, err)
	r, err := o.Fit(make([]float64, 4), o.Init())
	require.NoError(t, err)
	require.True(t, r.OK)
	assert.Equal(t, 0, r.NumIter)
	// Header plus the single convergence-check row.
	lines := strings.Split(strings.TrimRight(sink.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
}

func TestMaxIterations(t *testing.T) {
	params := DefaultParams()
	params.MaxIterations = 1

	r, err := solveQProg(t, Newton, &params)
	assert.ErrorIs(t, err, ErrNotConverged)
	require.NotNil(t, r)
	assert.False(t, r.OK)
	assert.Equal(t, MaxIterReached, r.Status)
	assert.Equal(t, 1, r.NumIter)
	assert.GreaterOrEqual(t, r.Residual, params.Tolerance)
}

// Every evaluation after the first accepted step must see a strictly
// interior iterate: 𝒄(𝐱) < 0 and 𝐳 > 0. The Jacobian callback only runs
// at accepted iterates, which makes it the natural probe.
func TestIterateStaysInterior(t *testing.T) {

	funcs := qprogFuncs()
	constraints, jacobian := funcs.Constraints, funcs.Jacobian
	funcs.Jacobian = func(x, z []float64, jac *mat.Dense) {
		c := make([]float64, 3)
		constraints(x, c)
		for _, c := range c {
			assert.Less(t, c, 0.0)
		}
		for _, z := range z {
			assert.Greater(t, z, 0.0)
		}
		jacobian(x, z, jac)
	}

	spec := Spec{N: 4, M: 3, Descent: Newton, Funcs: funcs}
	o, err := spec.New()
	require.NoError(t, err)
	r, err := o.Fit(make([]float64, 4), o.Init())
	require.NoError(t, err)
	require.True(t, r.OK)
}

// Monotone objective with a constraint open toward -∞: the program is
// unbounded below on the feasible side, so the solve must fail loudly
// rather than return a bogus minimizer.
func TestUnboundedProgram(t *testing.T) {

	funcs := &Callbacks{
		Objective:   func(x []float64) float64 { return x[0] },
		Gradient:    func(x, g []float64) { g[0] = 1 },
		Constraints: func(x, c []float64) { c[0] = x[0] },
		Jacobian: func(x, z []float64, jac *mat.Dense) {
			jac.Set(0, 0, 1)
		},
		LagrangianHessian: func(x, z []float64, w *mat.SymDense) {
			w.SetSym(0, 0, 0)
		},
	}

	spec := Spec{N: 1, M: 1, Descent: Steepest, Funcs: funcs}
	o, err := spec.New()
	require.NoError(t, err)

	var r *Result
	var ferr error
	require.NotPanics(t, func() {
		r, ferr = o.Fit([]float64{-1}, o.Init())
	})
	require.Error(t, ferr)
	require.NotNil(t, r)
	assert.False(t, r.OK)
	assert.True(t, errors.Is(ferr, ErrLineSearch) || errors.Is(ferr, ErrNotConverged), "got %v", ferr)
}

// An infeasible guess violates the interior invariant the solver relies
// on. It must report a failure instead of crashing or claiming success.
func TestInfeasibleGuess(t *testing.T) {

	funcs := &Callbacks{
		Objective: func(x []float64) float64 {
			d := x[0] - 2
			return 0.5 * d * d
		},
		Gradient:    func(x, g []float64) { g[0] = x[0] - 2 },
		Constraints: func(x, c []float64) { c[0] = x[0] },
		Jacobian: func(x, z []float64, jac *mat.Dense) {
			jac.Set(0, 0, 1)
		},
		LagrangianHessian: func(x, z []float64, w *mat.SymDense) {
			w.SetSym(0, 0, 0)
		},
	}

	spec := Spec{N: 1, M: 1, Funcs: funcs}
	o, err := spec.New()
	require.NoError(t, err)

	var r *Result
	var ferr error
	require.NotPanics(t, func() {
		r, ferr = o.Fit([]float64{1}, o.Init())
	})
	require.Error(t, ferr)
	require.NotNil(t, r)
	assert.False(t, r.OK)
}

// A callback turning non-finite at the accepted iterate is fatal.
func TestNonFiniteEvaluation(t *testing.T) {

	funcs := identityFuncs()
	funcs.Objective = func(x []float64) float64 {
		return math.NaN()
	}

	spec := Spec{N: 2, M: 1, Funcs: funcs}
	o, err := spec.New()
	require.NoError(t, err)
	r, ferr := o.Fit([]float64{3, -2}, o.Init())
	assert.ErrorIs(t, ferr, ErrEvaluation)
	assert.Equal(t, EvalFailure, r.Status)
}
