package numdiff

import (
	"errors"
	"math"
)

var sqrtEps = math.Sqrt(math.Nextafter(1, 2) - 1)
var cubeEps = math.Pow(math.Nextafter(1, 2)-1, float64(1)/3)

type Method int

const (
	// Forward use the first order accuracy forward difference.
	Forward Method = iota
	// Central use the second order accuracy central difference.
	Central
)

// Spec describes a finite-difference approximation of the derivative of a
// vector function y = 𝒇(𝐱), 𝒇 : ℝⁿ → ℝᵐ. It is meant for verifying
// analytic derivatives supplied to an optimizer, not for driving one.
//
// # Reference:
//
//   - https://en.wikipedia.org/wiki/Finite_difference
type Spec struct {
	N, M int
	// Function of which to estimate the derivatives.
	// The argument x passed to this function is an n-vector.
	// The result is store in an m-vector y.
	Object func(x, y []float64)
	// Finite difference method to use.
	Method Method
	// Absolute step size. When zero a per-component step
	// h = sign(x₀)·eps·max(1,|x₀|) is selected automatically with
	// eps matched to the method order.
	Step float64

	f0, f1, f2 []float64
}

// Check the parameters and allocate the evaluation buffers.
func (s *Spec) Check(x0, diff []float64) (err error) {
	switch {
	case s.N <= 0 || s.M <= 0:
		err = errors.New("negative dimensions")
	case s.Method != Forward && s.Method != Central:
		err = errors.New("unknown method")
	case s.Object == nil:
		err = errors.New("object function is required")
	case s.N != len(x0):
		err = errors.New("invalid x0 dimensions")
	case s.N*s.M != len(diff):
		err = errors.New("invalid diff dimensions")
	}
	if err != nil {
		return
	}
	if len(s.f0) != s.M {
		s.f0 = make([]float64, s.M)
		s.f1 = make([]float64, s.M)
		s.f2 = make([]float64, s.M)
	}
	return
}

// Diff estimates the m×n Jacobian of Object at x0 and stores it in diff
// in row-major order: diff[i*n+j] = ∂yᵢ/∂xⱼ.
func (s *Spec) Diff(x0, diff []float64) error {
	if err := s.Check(x0, diff); err != nil {
		return err
	}
	if s.Method == Central {
		s.approxCentral(x0, diff)
	} else {
		s.approxForward(x0, diff)
	}
	return nil
}

func (s *Spec) stepAt(x float64) float64 {
	if s.Step != 0 {
		return s.Step
	}
	eps := sqrtEps
	if s.Method == Central {
		eps = cubeEps
	}
	return math.Copysign(eps, x) * math.Max(1, math.Abs(x))
}

func (s *Spec) approxForward(x0, diff []float64) {
	n := s.N
	s.Object(x0, s.f0)
	for j := range x0 {
		h := s.stepAt(x0[j])
		t := x0[j]
		x0[j] = t + h
		s.Object(x0, s.f1)
		x0[j] = t
		d := 1 / h
		for i := range s.f0 {
			diff[i*n+j] = (s.f1[i] - s.f0[i]) * d
		}
	}
}

func (s *Spec) approxCentral(x0, diff []float64) {
	n := s.N
	for j := range x0 {
		h := math.Abs(s.stepAt(x0[j]))
		t := x0[j]
		x0[j] = t - h
		s.Object(x0, s.f1)
		x0[j] = t + h
		s.Object(x0, s.f2)
		x0[j] = t
		d := 1 / (2 * h)
		for i := range s.f1 {
			diff[i*n+j] = (s.f2[i] - s.f1[i]) * d
		}
	}
}

// Gradient estimates the gradient of a scalar function by central
// differences. g must have the same length as x.
func Gradient(f func(x []float64) float64, x, g []float64) error {
	s := Spec{
		N: len(x), M: 1,
		Method: Central,
		Object: func(x, y []float64) { y[0] = f(x) },
	}
	return s.Diff(x, g)
}

// Jacobian estimates the m×n Jacobian of a vector function by central
// differences, stored row-major in jac.
func Jacobian(f func(x, y []float64), x []float64, m int, jac []float64) error {
	s := Spec{
		N: len(x), M: m,
		Method: Central,
		Object: f,
	}
	return s.Diff(x, jac)
}
