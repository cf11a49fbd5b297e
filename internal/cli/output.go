package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // command succeeded
	ExitFailure      = 1 // the storefront reported a failure result
	ExitCommandError = 2 // bad flags, arguments or configuration
)

// ExitError carries the process exit code for an error.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil && e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError with a message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from err. Errors without one are
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

// OutputFormatter writes command results as text or JSON.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// Response is the JSON envelope for every command.
type Response struct {
	Status string     `json:"status"`
	Data   any        `json:"data,omitempty"`
	Error  *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failed command.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JSON reports whether JSON output is selected.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Success writes data. In text mode render is used when given; otherwise
// data is printed with fmt.
func (f *OutputFormatter) Success(data any, render func(io.Writer) error) error {
	if f.JSON() {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: data})
	}
	if render != nil {
		return render(f.Writer)
	}
	if data != nil {
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
	return nil
}

// Error writes a failure.
func (f *OutputFormatter) Error(code, message string) error {
	if f.JSON() {
		return json.NewEncoder(f.Writer).Encode(Response{
			Status: "error",
			Error:  &ErrorBody{Code: code, Message: message},
		})
	}
	_, err := fmt.Fprintf(f.errWriter(), "Error [%s]: %s\n", code, message)
	return err
}

// VerboseLog writes a diagnostic line when verbose output is on.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.errWriter(), format+"\n", args...)
}

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
