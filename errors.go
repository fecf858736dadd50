package main

import (
	"fmt"

	"github.com/pkg/errors"
)

// SemanticErrorCode classifies why a program was rejected. The numeric
// values double as process exit codes.
type SemanticErrorCode int

const (
	Success SemanticErrorCode = iota
	UndeclaredVariable
	IllegalCast
	VariableAlreadyDeclared
	UnexpectedError
)

func (c SemanticErrorCode) String() string {
	switch c {
	case Success:
		return "Success"
	case UndeclaredVariable:
		return "UndeclaredVariable"
	case IllegalCast:
		return "IllegalCast"
	case VariableAlreadyDeclared:
		return "VariableAlreadyDeclared"
	default:
		return "UnexpectedError"
	}
}

// SemanticError is the first violation found by the checker.
type SemanticError struct {
	Code    SemanticErrorCode
	Line    int
	Message string
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("error: line %d: %s: %s", e.Line, e.Code, e.Message)
}

func semanticErrorf(code SemanticErrorCode, line int, format string, args ...any) *SemanticError {
	return &SemanticError{Code: code, Line: line, Message: fmt.Sprintf(format, args...)}
}

// ErrorCode maps an error returned anywhere in the pipeline to a
// SemanticErrorCode. Errors that did not come from the checker map to
// UnexpectedError.
func ErrorCode(err error) SemanticErrorCode {
	if err == nil {
		return Success
	}
	var semErr *SemanticError
	if errors.As(err, &semErr) {
		return semErr.Code
	}
	return UnexpectedError
}
