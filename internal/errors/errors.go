package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/habittasker/internal/logger"
	"github.com/julianstephens/habittasker/internal/storage"
)

// Format formats an error message with a consistent "Error: " prefix and,
// for known storage failures, a hint on how to recover.
func Format(err error) string {
	if err == nil {
		return ""
	}
	msg := fmt.Sprintf("Error: %v", err)
	if hint := Hint(err); hint != "" {
		msg += "\n  hint: " + hint
	}
	return msg
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...any) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Hint suggests a next step for storage error kinds, or "" for anything else.
func Hint(err error) string {
	var sv *storage.SchemaVersionError
	switch {
	case stderrors.As(err, &sv):
		return fmt.Sprintf("the data was written by a different version (schema %d); upgrade habittasker or restore a backup", sv.Found)
	case stderrors.Is(err, storage.ErrDecode):
		return "the file is not a valid habittasker snapshot; check it or run 'habittasker backup restore'"
	case stderrors.Is(err, storage.ErrIO):
		return "check that the data directory exists and is writable"
	}
	return ""
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
