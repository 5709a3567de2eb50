package engine

import (
	"errors"
	"fmt"
)

// ErrNoRedex is the sentinel returned by Step when the term is already in
// normal form. Normal form is defined structurally (no subterm matches any
// rule's left-hand side); it is a success condition, never conflated with
// ErrCodeNoApplicableRule.
var ErrNoRedex = errors.New("no redex found: term is in normal form")

// ReduceError represents an error detected during reduction.
//
// Reduction errors include:
//   - Timeout: the step bound was exceeded (recoverable - retry with a
//     larger bound)
//   - Arithmetic: division by zero (surfaced, not recovered)
//   - No applicable rule: a redex-shaped subterm matched no rule, e.g. an
//     unknown binary operator (distinct from normal form)
//   - Capture: substitution would leak a bound name (fatal internal
//     invariant violation, never expected in correct code)
type ReduceError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// RunToken identifies the affected reduction run.
	RunToken string

	// Steps is the number of rule applications performed before failing.
	Steps int

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes reduction errors.
type ErrorCode string

const (
	// ErrCodeTimeout indicates the step bound was exceeded.
	ErrCodeTimeout ErrorCode = "TIMEOUT"

	// ErrCodeArithmetic indicates division by zero.
	ErrCodeArithmetic ErrorCode = "ARITHMETIC"

	// ErrCodeNoApplicableRule indicates a subterm matched no rule despite
	// not being in normal form (e.g. unknown operator).
	ErrCodeNoApplicableRule ErrorCode = "NO_APPLICABLE_RULE"

	// ErrCodeCapture indicates a substitution invariant violation.
	ErrCodeCapture ErrorCode = "CAPTURE"
)

// Error implements the error interface.
func (e *ReduceError) Error() string {
	if e.RunToken != "" {
		return fmt.Sprintf("%s: %s (run=%s, steps=%d)", e.Code, e.Message, e.RunToken, e.Steps)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsTimeoutError returns true if the error is a step-bound timeout.
// Uses errors.As to handle wrapped errors.
func IsTimeoutError(err error) bool {
	return hasCode(err, ErrCodeTimeout)
}

// IsArithmeticError returns true if the error is a division-by-zero error.
func IsArithmeticError(err error) bool {
	return hasCode(err, ErrCodeArithmetic)
}

// IsNoApplicableRuleError returns true if the error reports a redex that
// matched no rule.
func IsNoApplicableRuleError(err error) bool {
	return hasCode(err, ErrCodeNoApplicableRule)
}

// IsCaptureError returns true if the error is a substitution capture.
func IsCaptureError(err error) bool {
	return hasCode(err, ErrCodeCapture)
}

func hasCode(err error, code ErrorCode) bool {
	var re *ReduceError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// NewTimeoutError creates a ReduceError for an exceeded step bound.
func NewTimeoutError(runToken string, steps, bound int) *ReduceError {
	return &ReduceError{
		Code:     ErrCodeTimeout,
		Message:  fmt.Sprintf("reduction exceeded step bound (%d >= %d)", steps, bound),
		RunToken: runToken,
		Steps:    steps,
		Details: map[string]string{
			"step_bound": fmt.Sprintf("%d", bound),
		},
	}
}

// NewArithmeticError creates a ReduceError for division by zero.
func NewArithmeticError(op string, left, right int64) *ReduceError {
	return &ReduceError{
		Code:    ErrCodeArithmetic,
		Message: fmt.Sprintf("division by zero: (%d %s %d)", left, op, right),
		Details: map[string]string{"op": op},
	}
}

// NewNoApplicableRuleError creates a ReduceError for a redex-shaped
// subterm that matched no rule in the table.
func NewNoApplicableRuleError(detail string) *ReduceError {
	return &ReduceError{
		Code:    ErrCodeNoApplicableRule,
		Message: detail,
	}
}

// NewCaptureError wraps a term-level capture violation as a fatal
// reduction error.
func NewCaptureError(cause error) *ReduceError {
	return &ReduceError{
		Code:    ErrCodeCapture,
		Message: cause.Error(),
	}
}
