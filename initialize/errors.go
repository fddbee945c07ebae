package initialize

import (
	"errors"
	"fmt"

	"github.com/notargets/DAEInit/solver"
)

var (
	ErrConfiguration = errors.New("initialize: configuration error")
	ErrValidation    = errors.New("initialize: validation error")
	ErrPrecondition  = errors.New("initialize: precondition failed")
	ErrSolveFailed   = errors.New("initialize: solve failed")
)

// Stage names the part of the procedure a failure occurred in
type Stage uint8

const (
	StageConsistentIC Stage = iota
	StageElement
)

func (s Stage) String() string {
	switch s {
	case StageConsistentIC:
		return "consistent initial condition"
	case StageElement:
		return "element"
	}
	return "unknown stage"
}

// ConfigurationError reports arguments that do not fit together, such as
// mismatched indices when fixing state variables
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string        { return "configuration error: " + e.Msg }
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// ValidationError reports a time domain the procedure cannot work with
type ValidationError struct {
	Domain string
	Msg    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: time domain %s: %s", e.Domain, e.Msg)
}
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// PreconditionError reports a non-square subproblem ahead of a solve
type PreconditionError struct {
	DOF     int
	Stage   Stage
	Element int // 1-indexed, 0 outside the element loop
	Total   int
}

func (e *PreconditionError) Error() string {
	where := "before initialization"
	if e.Stage == StageElement {
		where = fmt.Sprintf("at element %d of %d", e.Element, e.Total)
	}
	return fmt.Sprintf("precondition failed %s: degrees of freedom = %d, expected 0", where, e.DOF)
}
func (e *PreconditionError) Is(target error) bool { return target == ErrPrecondition }

// SolveError reports a solve that did not terminate optimally. Err carries
// a transport error from the solver, if any.
type SolveError struct {
	Stage       Stage
	Element     int
	Total       int
	Termination solver.TerminationCondition
	Err         error
}

func (e *SolveError) Error() string {
	where := e.Stage.String()
	if e.Stage == StageElement {
		where = fmt.Sprintf("element %d of %d", e.Element, e.Total)
	}
	msg := fmt.Sprintf("solve failed for %s: termination %s", where, e.Termination)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}
func (e *SolveError) Is(target error) bool { return target == ErrSolveFailed }
func (e *SolveError) Unwrap() error        { return e.Err }
