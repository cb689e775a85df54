package domain

import (
	"errors"
	"fmt"
)

// ErrorCode is the attempt-fatal failure taxonomy. Values follow the Anchor
// custom error range so they line up with on-chain program logs.
type ErrorCode uint32

const (
	CodeInvalidInput ErrorCode = 6000 + iota
	CodeInvalidState
	CodeSlippageExceeded
	CodeExternalCallFailed
	CodeNoProfit
	CodeArithmeticOverflow
)

func (c ErrorCode) String() string {
	switch c {
	case CodeInvalidInput:
		return "InvalidInput"
	case CodeInvalidState:
		return "InvalidState"
	case CodeSlippageExceeded:
		return "SlippageExceeded"
	case CodeExternalCallFailed:
		return "ExternalCallFailed"
	case CodeNoProfit:
		return "NoProfit"
	case CodeArithmeticOverflow:
		return "ArithmeticOverflow"
	default:
		return fmt.Sprintf("ErrorCode(%d)", uint32(c))
	}
}

// ArbError carries a taxonomy code plus an optional message and cause.
type ArbError struct {
	Code  ErrorCode
	Msg   string
	Cause error
}

func (e *ArbError) Error() string {
	switch {
	case e.Msg != "" && e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Cause)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Msg)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Cause)
	default:
		return e.Code.String()
	}
}

func (e *ArbError) Unwrap() error {
	return e.Cause
}

// Is matches any ArbError with the same code, so the sentinels below work
// with errors.Is regardless of message or cause.
func (e *ArbError) Is(target error) bool {
	t, ok := target.(*ArbError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// ErrNotFound is the cause of the InvalidInput returned for unknown addresses.
var ErrNotFound = errors.New("not found")

var (
	ErrInvalidInput       = &ArbError{Code: CodeInvalidInput}
	ErrInvalidState       = &ArbError{Code: CodeInvalidState}
	ErrSlippageExceeded   = &ArbError{Code: CodeSlippageExceeded}
	ErrExternalCallFailed = &ArbError{Code: CodeExternalCallFailed}
	ErrNoProfit           = &ArbError{Code: CodeNoProfit}
	ErrArithmeticOverflow = &ArbError{Code: CodeArithmeticOverflow}
)

func InvalidInput(format string, args ...any) error {
	return &ArbError{Code: CodeInvalidInput, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports an unknown address as InvalidInput wrapping ErrNotFound.
func NotFound(kind string, address fmt.Stringer) error {
	return &ArbError{Code: CodeInvalidInput, Msg: fmt.Sprintf("%s %s", kind, address), Cause: ErrNotFound}
}

func InvalidState(format string, args ...any) error {
	return &ArbError{Code: CodeInvalidState, Msg: fmt.Sprintf(format, args...)}
}

func SlippageExceeded(cause error, format string, args ...any) error {
	return &ArbError{Code: CodeSlippageExceeded, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

func ExternalCallFailed(cause error, format string, args ...any) error {
	return &ArbError{Code: CodeExternalCallFailed, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

func NoProfit(format string, args ...any) error {
	return &ArbError{Code: CodeNoProfit, Msg: fmt.Sprintf(format, args...)}
}

func ArithmeticOverflow(format string, args ...any) error {
	return &ArbError{Code: CodeArithmeticOverflow, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf returns the taxonomy code of err, if it carries one.
func CodeOf(err error) (ErrorCode, bool) {
	var arbErr *ArbError
	if errors.As(err, &arbErr) {
		return arbErr.Code, true
	}
	return 0, false
}

// ReasonOf labels err by its taxonomy code for logs and metrics.
func ReasonOf(err error) string {
	if code, ok := CodeOf(err); ok {
		return code.String()
	}
	return "Unknown"
}
