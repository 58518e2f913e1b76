package clierror

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ladzaretti/bunker/vaulterrors"
)

const (
	DefaultErrorExitCode = 1
)

var (
	// errHandler is the function used to handle cli errors.
	errHandler = FatalErrHandler

	// errWriter is used to output cli error messages.
	errWriter io.Writer = os.Stderr

	// fprintf is the function used to format and print errors.
	fprintf = fmt.Fprintf

	// debugMode enables always printing raw error values.
	debugMode bool
)

// SetErrorHandler overrides the default [FatalErrHandler] error handler.
func SetErrorHandler(f func(string, int)) {
	errHandler = f
}

// ResetErrorHandler restores the default error handler.
func ResetErrorHandler() {
	errHandler = FatalErrHandler
}

// SetErrWriter overrides the default error output writer [os.Stderr].
func SetErrWriter(w io.Writer) {
	errWriter = w
}

// ResetErrWriter restores the default error output writer to [os.Stderr].
func ResetErrWriter() {
	errWriter = os.Stderr
}

// SetDefaultFprintf sets the default function used to print errors.
func SetDefaultFprintf(f func(w io.Writer, format string, a ...any) (n int, err error)) {
	fprintf = f
}

// DebugMode sets whether debug logging is enabled.
//
// When enabled, raw error values are printed to stderr.
func DebugMode(enabled bool) {
	debugMode = enabled
}

// FatalErrHandler prints the message provided and then exits with the given code.
func FatalErrHandler(msg string, code int) {
	printError(msg)

	//nolint:revive // Intentional exit after fatal error.
	os.Exit(code)
}

func PrintErrHandler(msg string, _ int) {
	printError(msg)
}

func printError(msg string) {
	if len(msg) == 0 {
		return
	}

	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}

	_, _ = fprintf(errWriter, msg)
}

func debugPrint(err error) {
	if !debugMode {
		return
	}

	_, _ = fprintf(errWriter, "DEBUG %+v\n", err)
}

// ErrExit may be passed to Check to instruct it to output nothing but exit
// with status code 1.
var ErrExit = errors.New("exit")

// Check prints a user-friendly error message and invokes the configured
// error handler.
//
// When the [FatalErrHandler] is used, the program will exit before this
// function returns.
func Check(err error) error {
	check(err, errHandler)
	return err
}

//nolint:revive
func check(err error, handleErr func(string, int)) {
	if err == nil {
		return
	}

	debugPrint(err)

	switch {
	case errors.Is(err, ErrExit):
		handleErr("", DefaultErrorExitCode)
	case errors.Is(err, vaulterrors.ErrVaultExists):
		handleErr("bunker: vault already exists\nUse 'bunker vault use' to switch to it, or delete it first.", DefaultErrorExitCode)
	case errors.Is(err, vaulterrors.ErrVaultNotFound):
		handleErr("bunker: "+err.Error()+"\nUse 'bunker vault create' to create it.", DefaultErrorExitCode)
	case errors.Is(err, vaulterrors.ErrEntryNotFound):
		handleErr("bunker: "+err.Error(), DefaultErrorExitCode)
	case errors.Is(err, vaulterrors.ErrInvalidPassword):
		handleErr("bunker: incorrect password\nPlease check your password and try again.", DefaultErrorExitCode)
	case errors.Is(err, vaulterrors.ErrSessionExpired):
		handleErr("bunker: session expired\nRun 'bunker unlock' again.", DefaultErrorExitCode)
	case errors.Is(err, vaulterrors.ErrNoSession):
		handleErr("bunker: no active session\nRun 'bunker unlock' first, or pass the vault password directly.", DefaultErrorExitCode)
	case errors.Is(err, vaulterrors.ErrNonInteractiveUnsupported):
		handleErr("bunker: this command supports interactive input only.", DefaultErrorExitCode)
	case errors.Is(err, vaulterrors.ErrAmbiguousMatch):
		handleErr("bunker: "+err.Error()+"\nNarrow the search with --id, --name, or --label.", DefaultErrorExitCode)
	case errors.Is(err, vaulterrors.ErrSearchNoMatch):
		handleErr("bunker: "+err.Error(), DefaultErrorExitCode)
	case errors.Is(err, vaulterrors.ErrChecksumMismatch):
		handleErr("bunker: "+err.Error()+"\nThe export file may be corrupted or tampered with.", DefaultErrorExitCode)
	default:
		msg, ok := StandardErrorMessage(err)
		if !ok {
			msg = err.Error()
			if !strings.HasPrefix(msg, "bunker: ") {
				msg = "bunker: " + msg
			}
		}

		handleErr(msg, DefaultErrorExitCode)
	}
}

func StandardErrorMessage(_ error) (string, bool) {
	return "", false
}
