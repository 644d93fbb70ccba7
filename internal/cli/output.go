package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the command ran and found a problem, e.g. orphan seats
	ExitCommandError = 2 // the command could not run
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to a process exit code. Errors without a code are
// command errors.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

type OutputFormatter struct {
	Format string
	Writer io.Writer
}

type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Success writes data. In text mode text is printed instead of data.
func (f *OutputFormatter) Success(data any, text string) error {
	if f.Format == FormatJSON {
		return f.writeJSON(Response{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, text)
	return err
}

// Failure writes the failure and returns an ExitError with code.
func (f *OutputFormatter) Failure(code int, data any, message string, cause error) error {
	text := message
	if cause != nil {
		text = fmt.Sprintf("%s: %v", message, cause)
	}

	var writeErr error
	if f.Format == FormatJSON {
		writeErr = f.writeJSON(Response{Status: "error", Data: data, Error: text})
	} else {
		_, writeErr = fmt.Fprintln(f.Writer, "error: "+text)
	}
	if writeErr != nil {
		return WrapExitError(ExitCommandError, "failed to write output", writeErr)
	}
	return WrapExitError(code, message, cause)
}

func (f *OutputFormatter) writeJSON(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
