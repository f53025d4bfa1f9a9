package journal

import "errors"

// Sentinel errors for journal operations.
var (
	ErrOpenFailed   = errors.New("could not open journal database")
	ErrSchemaFailed = errors.New("failed to initialize journal schema")
	ErrAppendFailed = errors.New("failed to append journal event")
	ErrQueryFailed  = errors.New("failed to query journal events")
	ErrScanFailed   = errors.New("failed to scan journal rows")
)
