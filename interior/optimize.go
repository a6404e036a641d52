// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package interior implements a primal-dual interior-point method for
// convex programs with inequality constraints:
//
//	minimize 𝒇(𝐱) subject to 𝒄(𝐱) ≤ 0
//
// where 𝒇 : ℝⁿ → ℝ and 𝒄 : ℝⁿ → ℝᵐ are convex and twice differentiable.
// Equality constraints are not supported.
package interior

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/go-playground/validator/v10"
	"gonum.org/v1/gonum/mat"
)

// Descent selects the source of second-order information 𝐁 ≈ ∇²𝒇
// used when forming the reduced KKT system.
type Descent int

const (
	// BFGS maintains 𝐁 with rank-two quasi-Newton updates built from
	// successive gradient differences. This is the default mode.
	BFGS Descent = iota
	// Newton reassigns 𝐁 = ∇²𝒇(𝐱) each iteration. The problem must
	// provide a Hessian.
	Newton
	// Steepest keeps 𝐁 = 𝐈 for the whole solve.
	Steepest
)

// Problem is the capability set consumed by the solver.
// All output arguments are preallocated by the solver and must be filled
// completely on every call:
//   - 𝒇(𝐱) : ℝⁿ → ℝ
//   - ∇𝒇(𝐱) : ℝⁿ → ℝⁿ
//   - 𝒄(𝐱) : ℝⁿ → ℝᵐ
//   - 𝐉(𝐱,𝐳) = ∂𝒄/∂𝐱 : ℝᵐˣⁿ
//   - 𝐖(𝐱,𝐳) = ∑ᵢ 𝐳ᵢ∇²𝒄ᵢ(𝐱) : ℝⁿˣⁿ
//
// A callback that cannot produce a finite result at x may return NaN or ±Inf
// entries: during a line-search trial the candidate is rejected and the step
// contracted; at the accepted iterate the solve fails.
type Problem interface {
	Objective(x []float64) float64
	Gradient(x, g []float64)
	Constraints(x, c []float64)
	Jacobian(x, z []float64, jac *mat.Dense)
	LagrangianHessian(x, z []float64, w *mat.SymDense)
}

// HessianProblem extends Problem with the exact objective Hessian
// ∇²𝒇(𝐱), required by the Newton descent mode.
type HessianProblem interface {
	Problem
	Hessian(x []float64, h *mat.SymDense)
}

// Callbacks bundles the problem functions directly, as an alternative to
// implementing Problem. Hessian may be nil in any mode except Newton.
type Callbacks struct {
	Objective         func(x []float64) float64
	Gradient          func(x, g []float64)
	Hessian           func(x []float64, h *mat.SymDense)
	Constraints       func(x, c []float64)
	Jacobian          func(x, z []float64, jac *mat.Dense)
	LagrangianHessian func(x, z []float64, w *mat.SymDense)
}

// funcProblem adapts a Callbacks bundle to the Problem interface.
type funcProblem struct{ cb Callbacks }

func (p funcProblem) Objective(x []float64) float64                  { return p.cb.Objective(x) }
func (p funcProblem) Gradient(x, g []float64)                        { p.cb.Gradient(x, g) }
func (p funcProblem) Constraints(x, c []float64)                     { p.cb.Constraints(x, c) }
func (p funcProblem) Jacobian(x, z []float64, jac *mat.Dense)        { p.cb.Jacobian(x, z, jac) }
func (p funcProblem) LagrangianHessian(x, z []float64, w *mat.SymDense) {
	p.cb.LagrangianHessian(x, z, w)
}

// Params holds the convergence controls and algorithm constants.
// Every numeric field must be positive.
type Params struct {
	// The iteration stops when ‖(𝐫ₓ,𝐫𝒸)‖/(n+m) drops below Tolerance.
	Tolerance float64 `validate:"gt=0"`
	// The solve reports failure once MaxIterations iterations have run
	// without meeting the tolerance.
	MaxIterations int `validate:"gt=0"`
	// Verbose enables the per-iteration telemetry table.
	Verbose bool

	// Epsilon is the numerical floor protecting logarithms and
	// reciprocals of near-zero quantities.
	Epsilon float64 `validate:"gt=0"`
	// SigmaMax caps the centering parameter σ.
	SigmaMax float64 `validate:"gt=0"`
	// EtaMax caps the forcing sequence η.
	EtaMax float64 `validate:"gt=0"`
	// MuMin floors the barrier parameter μ.
	MuMin float64 `validate:"gt=0"`
	// AlphaMax is the initial (largest) line-search step.
	AlphaMax float64 `validate:"gt=0"`
	// AlphaMin aborts the backtracking once the step shrinks below it.
	AlphaMin float64 `validate:"gt=0"`
	// Beta is the backtracking shrink factor, 0 < β < 1.
	Beta float64 `validate:"gt=0"`
	// Tau is the sufficient-decrease coefficient of the Armijo test.
	Tau float64 `validate:"gt=0"`
}

// DefaultParams returns the stock parameter set.
func DefaultParams() Params {
	return Params{
		Tolerance:     1e-6,
		MaxIterations: 100,
		Epsilon:       1e-8,
		SigmaMax:      0.5,
		EtaMax:        0.25,
		MuMin:         1e-9,
		AlphaMax:      0.995,
		AlphaMin:      1e-6,
		Beta:          0.75,
		Tau:           0.01,
	}
}

var validate = validator.New()

// Logger emits the iteration telemetry to an injected sink.
// The zero sink writes to standard output.
type Logger struct {
	Out io.Writer
}

func (l *Logger) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(l.Out, format, a...)
}

// Spec describes a solve: problem dimensions, the problem itself in one of
// its two forms, the descent mode and the parameters.
type Spec struct {
	N int // number of primal variables
	M int // number of inequality constraints

	Descent Descent

	// Exactly one of Problem and Funcs must be set.
	Problem Problem
	Funcs   *Callbacks

	Params *Params // nil selects DefaultParams
	Log    *Logger // nil selects a stdout sink
}

// New validates the spec and creates an immutable Optimizer.
// All validation failures wrap ErrConfig.
func (s *Spec) New() (optimizer *Optimizer, err error) {

	params := DefaultParams()
	if s.Params != nil {
		params = *s.Params
	}
	if verr := validate.Struct(&params); verr != nil {
		var fields validator.ValidationErrors
		if errors.As(verr, &fields) && len(fields) > 0 {
			return nil, fmt.Errorf("interior: param %s must be positive: %w", fields[0].Field(), ErrConfig)
		}
		return nil, fmt.Errorf("interior: params: %v: %w", verr, ErrConfig)
	}

	var prob Problem
	var hess func(x []float64, h *mat.SymDense)
	switch {
	case s.Problem != nil && s.Funcs != nil:
		err = errors.New("problem and callback bundle are mutually exclusive")
	case s.Problem != nil:
		prob = s.Problem
		if hp, ok := s.Problem.(HessianProblem); ok {
			hess = hp.Hessian
		}
	case s.Funcs != nil:
		cb := *s.Funcs
		switch {
		case cb.Objective == nil:
			err = errors.New("objective function must not be null")
		case cb.Gradient == nil:
			err = errors.New("gradient of the objective function must not be null")
		case cb.Constraints == nil:
			err = errors.New("constraints function must not be null")
		case cb.Jacobian == nil:
			err = errors.New("jacobian of the constraints function must not be null")
		case cb.LagrangianHessian == nil:
			err = errors.New("lagrangian hessian function must not be null")
		}
		prob = funcProblem{cb}
		hess = cb.Hessian
	default:
		err = errors.New("a problem or a callback bundle is required")
	}

	if err == nil {
		switch {
		case s.N <= 0:
			err = errors.New("problem dimension must greater than 0")
		case s.M <= 0:
			err = errors.New("constraints number must greater than 0")
		case s.Descent != BFGS && s.Descent != Newton && s.Descent != Steepest:
			err = errors.New("unknown descent mode")
		case s.Descent == Newton && hess == nil:
			err = errors.New("hessian of the objective function must not be null")
		}
	}

	if err != nil {
		return nil, fmt.Errorf("interior: %v: %w", err, ErrConfig)
	}

	logger := s.Log
	if logger == nil {
		logger = &Logger{}
	}
	if logger.Out == nil {
		logger = &Logger{Out: os.Stdout}
	}

	optimizer = &Optimizer{
		iterSpec{
			n: s.N, m: s.M,
			descent: s.Descent,
			prob:    prob,
			hess:    hess,
			params:  params,
			logger:  logger,
		},
	}
	return
}

// iterSpec is the immutable per-optimizer state shared by all solves.
type iterSpec struct {
	n, m    int
	descent Descent
	prob    Problem
	hess    func(x []float64, h *mat.SymDense)
	params  Params
	logger  *Logger
}

// Optimizer implements the primal-dual interior-point method.
type Optimizer struct {
	iterSpec
}

// Status reports how a solve terminated.
type Status int

const (
	// Converged means ‖(𝐫ₓ,𝐫𝒸)‖/(n+m) dropped below the tolerance.
	Converged Status = iota + 1
	// MaxIterReached means the iteration cap was hit first.
	MaxIterReached
	// EvalFailure means a callback produced a non-finite value at the
	// accepted iterate.
	EvalFailure
	// StepFailure means the reduced system could not be solved or a
	// BFGS update precondition was violated.
	StepFailure
	// SearchFailure means the backtracking step shrank below AlphaMin.
	SearchFailure
)

func (s Status) String() string {
	switch s {
	case Converged:
		return "converged"
	case MaxIterReached:
		return "maximum iterations reached"
	case EvalFailure:
		return "evaluation failure"
	case StepFailure:
		return "step computation failure"
	case SearchFailure:
		return "line search failure"
	}
	return "unknown"
}

// Workspace contains the state and scratch storage of one solve.
// To avoid race conditions, separate workspaces need to be created for each
// goroutine. But multiple workspaces could share one optimizer.
type Workspace struct {
	n, m int
	iterCtx
}

// iterCtx holds the iterate, the search direction and every intermediate
// vector/matrix of a single solve.
type iterCtx struct {
	x, z []float64 // current iterate, 𝐳 > 0
	f    float64
	c    []float64 // 𝒄(𝐱)
	g    []float64 // ∇𝒇(𝐱)
	gOld []float64 // gradient at the previous accepted iterate

	jac *mat.Dense    // 𝐉 (m×n)
	lag *mat.SymDense // 𝐖 (n×n)
	b   *mat.SymDense // 𝐁 (n×n)
	hr  *mat.SymDense // reduced Hessian 𝐁 + 𝐖 - 𝐉ᵀ𝐒𝐉

	rx, rc []float64 // KKT residuals
	cEps   []float64 // 𝒄 - ε
	rcpC   []float64 // 1/(𝒄 - ε)
	sDiag  []float64 // 𝐒 = diag(𝐳/(𝒄 - ε))
	rhs    []float64 // -𝐠_b
	px, pz []float64 // search direction
	jpx    []float64 // 𝐉𝐩ₓ

	sj   *mat.Dense // 𝐒𝐉 scratch
	jtsj *mat.Dense // 𝐉ᵀ𝐒𝐉 scratch
	chol mat.Cholesky

	step, grad, bs []float64 // BFGS scratch: α𝐩ₓ, 𝐠 - 𝐠_old, 𝐁𝐬
	tmpM           []float64 // merit slope scratch

	xNew, zNew, cNew []float64 // line-search candidate

	iter   int
	alpha  float64
	ls     int
	normRx float64
	normRc float64
	normR0 float64
	eta    float64
	sigma  float64
	gap    float64
	mu     float64
}

// Init allocates the workspace for one concurrent solve.
func (o *Optimizer) Init() *Workspace {
	n, m := o.n, o.m
	w := new(Workspace)
	w.n, w.m = n, m
	w.iterCtx = iterCtx{
		x: make([]float64, n), z: make([]float64, m),
		c: make([]float64, m), g: make([]float64, n),
		gOld: make([]float64, n),

		jac: mat.NewDense(m, n, nil),
		lag: mat.NewSymDense(n, nil),
		b:   mat.NewSymDense(n, nil),
		hr:  mat.NewSymDense(n, nil),

		rx: make([]float64, n), rc: make([]float64, m),
		cEps: make([]float64, m), rcpC: make([]float64, m),
		sDiag: make([]float64, m),
		rhs:   make([]float64, n),
		px:    make([]float64, n), pz: make([]float64, m),
		jpx: make([]float64, m),

		sj:   mat.NewDense(m, n, nil),
		jtsj: mat.NewDense(n, n, nil),

		step: make([]float64, n), grad: make([]float64, n),
		bs:   make([]float64, n),
		tmpM: make([]float64, m),

		xNew: make([]float64, n), zNew: make([]float64, m),
		cNew: make([]float64, m),
	}
	return w
}

// Result contains the final result of a solve.
type Result struct {
	OK      bool      // Whether the solve converged.
	F       float64   // Objective at X.
	X       []float64 // Last accepted primal iterate.
	Z       []float64 // Last accepted dual iterate.
	Summary           // Solve summary.
}

// Summary contains a summary of the solve.
type Summary struct {
	Status   Status  // Termination status.
	NumIter  int     // Number of accepted iterations.
	Residual float64 // ‖(𝐫ₓ,𝐫𝒸)‖/(n+m) at exit.
}

// Fit runs the solve from the initial guess x using workspace w.
// The guess must be strictly feasible: 𝒄(x) < 0 componentwise.
// On a hard failure the returned error wraps one of ErrEvaluation,
// ErrNumerical or ErrLineSearch; hitting the iteration cap wraps
// ErrNotConverged. The Result always carries the last accepted iterate.
func (o *Optimizer) Fit(x []float64, w *Workspace) (*Result, error) {

	if len(x) != o.n {
		panic("initial x dimension not match spec")
	}

	if w.n != o.n || w.m != o.m {
		panic("workspace dimension not match spec")
	}

	copy(w.x, x)
	for i := range w.z {
		w.z[i] = 1
	}
	setIdentity(w.b)
	w.iter, w.alpha, w.ls = 0, 0, 0

	driver := iterDriver{
		optimizer: o,
		workspace: w,
	}

	status, err := driver.mainLoop()
	nv := float64(o.n + o.m)
	return &Result{
		OK: status == Converged,
		F:  w.f,
		X:  slices.Clone(w.x),
		Z:  slices.Clone(w.z),
		Summary: Summary{
			Status:   status,
			NumIter:  w.iter,
			Residual: w.normR0 / nv,
		},
	}, err
}
