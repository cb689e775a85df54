// Package common provides shared utilities used across all features
package common

import (
	"fmt"
	"net/http"

	"github.com/hxuan190/arb-engine/internal/domain"
)

// HttpError represents an HTTP error with status code and message
type HttpError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s %s", e.StatusCode, e.Code, e.Message)
}

func messageOrDefault(msg string, defaultMsg string) string {
	if msg != "" {
		return msg
	}
	return defaultMsg
}

// HTTP Error constructors

func HTTPErrorInternalError(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    messageOrDefault(msg, "Internal server error"),
	}
}

func HTTPErrorInvalidInput(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusBadRequest,
		Code:       "INVALID_INPUT",
		Message:    messageOrDefault(msg, "Invalid input"),
	}
}

func HTTPErrorInvalidState(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusConflict,
		Code:       "INVALID_STATE",
		Message:    messageOrDefault(msg, "Invalid state"),
	}
}

func HTTPErrorUnprocessable(code, msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusUnprocessableEntity,
		Code:       code,
		Message:    messageOrDefault(msg, "Unprocessable entity"),
	}
}

func HTTPErrorBadGateway(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusBadGateway,
		Code:       "EXTERNAL_CALL_FAILED",
		Message:    messageOrDefault(msg, "External call failed"),
	}
}

// HTTPErrorFromDomain maps the arbitrage error taxonomy to HTTP statuses.
func HTTPErrorFromDomain(err error) *HttpError {
	code, ok := domain.CodeOf(err)
	if !ok {
		return HTTPErrorInternalError(err.Error())
	}
	switch code {
	case domain.CodeInvalidInput:
		return HTTPErrorInvalidInput(err.Error())
	case domain.CodeInvalidState:
		return HTTPErrorInvalidState(err.Error())
	case domain.CodeSlippageExceeded:
		return HTTPErrorUnprocessable("SLIPPAGE_EXCEEDED", err.Error())
	case domain.CodeNoProfit:
		return HTTPErrorUnprocessable("NO_PROFIT", err.Error())
	case domain.CodeExternalCallFailed:
		return HTTPErrorBadGateway(err.Error())
	case domain.CodeArithmeticOverflow:
		return &HttpError{StatusCode: http.StatusInternalServerError, Code: "ARITHMETIC_OVERFLOW", Message: err.Error()}
	default:
		return HTTPErrorInternalError(err.Error())
	}
}
