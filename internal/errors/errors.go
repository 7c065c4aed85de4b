package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/vigil/internal/logger"
)

var exit = os.Exit

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Warning formats a non-fatal problem with a "Warning: " prefix
func Warning(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Warning: %v", err)
}

// Report prints err to w as a warning when it matches one of the given
// non-fatal sentinels and returns nil; any other error is returned unchanged.
func Report(w io.Writer, err error, nonFatal ...error) error {
	if err == nil {
		return nil
	}
	for _, target := range nonFatal {
		if stderrors.Is(err, target) {
			logger.Warn("Operation completed with warnings", "error", err)
			fmt.Fprintln(w, Warning(err))
			return nil
		}
	}
	return err
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		exit(1)
	}
}
