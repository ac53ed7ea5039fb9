package export

import "errors"

// Sentinel kinds for export errors.
var (
	ErrNoData       = errors.New("no data to export")
	ErrWriteFailure = errors.New("export write failure")
)
