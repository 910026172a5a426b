package cli

import (
	"errors"
	"strings"

	"eventetl/internal/etl"
)

// Exit codes for semantic error classification.
const (
	ExitSuccess        = 0  // run completed (including an empty run)
	ExitGeneralError   = 1  // unknown or unclassified error
	ExitUsageError     = 2  // CLI usage error (missing args, invalid flags)
	ExitConfigError    = 10 // invalid configuration or flags
	ExitStorageError   = 11 // target store could not be opened or written
	ExitSchemaError    = 12 // no timestamp column in the merged input
	ExitSourceDirError = 13 // source directory unreadable
)

// ErrStorage marks store failures outside a pipeline write, such as inspect.
var ErrStorage = errors.New("storage unavailable")

// usagePatterns are the cobra/pflag messages for command line misuse.
var usagePatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"required flag",
	"invalid argument",
	"flag needs an argument",
}

// ExitCodeForError returns the process exit code for err. Returns
// ExitSuccess for nil, a semantic code for known sentinels and
// ExitGeneralError for everything else.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, etl.ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, etl.ErrStorageWrite), errors.Is(err, ErrStorage):
		return ExitStorageError
	case errors.Is(err, etl.ErrMissingTimestampColumn):
		return ExitSchemaError
	case errors.Is(err, etl.ErrSourceDir):
		return ExitSourceDirError
	}

	msg := err.Error()
	for _, p := range usagePatterns {
		if strings.Contains(msg, p) {
			return ExitUsageError
		}
	}
	return ExitGeneralError
}
