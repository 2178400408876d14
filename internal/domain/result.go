package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ErrorKind classifies every way an invocation can fail. The set is closed:
// the dispatcher produces exactly one of these per failed call.
type ErrorKind int

const (
	ErrNotFound ErrorKind = iota
	ErrNotCallable
	ErrParameter
	ErrExecution
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNotFound:
		return "NOT_FOUND"
	case ErrNotCallable:
		return "NOT_CALLABLE"
	case ErrParameter:
		return "PARAMETER_ERROR"
	case ErrExecution:
		return "EXECUTION_ERROR"
	}
	return "EXECUTION_ERROR"
}

// InvokeError is the failure arm of a Result.
type InvokeError struct {
	Kind          ErrorKind
	Message       string
	ProvidedArgs  []string // PARAMETER_ERROR only
	ExceptionType string   // PARAMETER_ERROR and EXECUTION_ERROR
}

func (e *InvokeError) Error() string { return e.Kind.String() + ": " + e.Message }

// Result is the tagged result of a single invocation. Exactly one of the
// five envelope shapes is produced when it is marshaled: cached success,
// executed success, or one of the four failure kinds.
type Result struct {
	Cached bool
	Value  any
	TimeMS int64 // executed success only
	Err    *InvokeError
}

// Ok reports whether the invocation succeeded.
func (r Result) Ok() bool { return r.Err == nil }

// MarshalJSON renders the uniform invocation envelope.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Err == nil {
		if r.Cached {
			return json.Marshal(map[string]any{
				"success": true,
				"cached":  true,
				"result":  r.Value,
			})
		}
		return json.Marshal(map[string]any{
			"success": true,
			"cached":  false,
			"result":  r.Value,
			"time_ms": r.TimeMS,
		})
	}
	env := map[string]any{
		"success": false,
		"error":   r.Err.Kind.String(),
		"message": r.Err.Message,
	}
	switch r.Err.Kind {
	case ErrParameter:
		args := r.Err.ProvidedArgs
		if args == nil {
			args = []string{}
		}
		env["provided_args"] = args
		env["exception_type"] = r.Err.ExceptionType
	case ErrExecution:
		env["exception_type"] = r.Err.ExceptionType
	}
	return json.Marshal(env)
}

// ParamError signals that a handler rejected the supplied arguments: a caller
// contract violation, classified separately from generic execution failures.
// Handlers return it for missing or mistyped arguments.
type ParamError struct {
	Missing []string // offending argument names
	Reason  string
}

func (e *ParamError) Error() string {
	if len(e.Missing) == 0 {
		return e.Reason
	}
	msg := "invalid arguments: " + strings.Join(e.Missing, ", ")
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

// MissingArg builds a ParamError for a single absent or empty argument.
func MissingArg(name string) *ParamError {
	return &ParamError{Missing: []string{name}, Reason: "missing argument"}
}

// BadArg builds a ParamError for an argument with an unusable value.
func BadArg(name, reason string) *ParamError {
	return &ParamError{Missing: []string{name}, Reason: reason}
}

// ArgNames returns the caller-provided argument names, sorted, for failure
// envelopes and logs.
func ArgNames(args map[string]any) []string {
	names := make([]string, 0, len(args))
	for k := range args {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// TypeName reports the dynamic type of an error for the exception_type
// envelope field.
func TypeName(v any) string {
	return fmt.Sprintf("%T", v)
}
