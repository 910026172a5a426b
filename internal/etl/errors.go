package etl

import "errors"

// Sentinel errors for pipeline failures.
// Callers distinguish them with errors.Is.
var (
	// ErrNoInput means no table was loaded; the run writes nothing.
	ErrNoInput = errors.New("no input tables")

	// ErrMissingTimestampColumn means neither "datetime" nor "DATETIME"
	// exists after merging. Fatal for the run.
	ErrMissingTimestampColumn = errors.New("missing timestamp column")

	// ErrNoData means the destination was handed an empty or nil table.
	ErrNoData = errors.New("no data to write")

	// ErrStorageWrite wraps any failure to open or write the target store.
	ErrStorageWrite = errors.New("storage write failed")

	// ErrSourceDir means the source directory could not be enumerated.
	ErrSourceDir = errors.New("source directory unreadable")

	// ErrInvalidConfig means a caller-supplied option is unusable.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// LoadError records a single file that failed to parse.
type LoadError struct {
	Source string `json:"source"`
	Err    error  `json:"-"`
}

func (e LoadError) Error() string {
	return e.Source + ": " + e.Err.Error()
}

func (e LoadError) Unwrap() error { return e.Err }
