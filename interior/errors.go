// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interior

import "errors"

// Failure taxonomy of a solve. Errors returned by Spec.New and
// Optimizer.Fit wrap exactly one of these sentinels; match with errors.Is.
var (
	// ErrConfig reports an invalid spec or parameter value.
	// It is raised before any iteration runs.
	ErrConfig = errors.New("invalid configuration")
	// ErrEvaluation reports a non-finite callback result at the
	// accepted iterate.
	ErrEvaluation = errors.New("evaluation failed")
	// ErrNumerical reports an indefinite or non-finite reduced system,
	// or a violated BFGS update precondition.
	ErrNumerical = errors.New("numerical failure")
	// ErrLineSearch reports backtracking exhaustion below AlphaMin.
	ErrLineSearch = errors.New("line search failed")
	// ErrNotConverged reports an iteration-cap exit. The result still
	// carries the last accepted iterate.
	ErrNotConverged = errors.New("not converged")
)
