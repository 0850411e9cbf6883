package config

import "errors"

// Configuration validation errors.
// These are returned by Config.Validate() and describe what is wrong with
// the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when no target URL is supplied either as
	// an argument or via the interactive prompt.
	ErrNoTarget = errors.New("no target specified: provide one or more target URLs")

	// ErrInvalidTimeout is returned when the per-request timeout is not
	// positive. A zero timeout would fail every request immediately.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidWorkers is returned when either worker pool width is not
	// positive. A width of zero would stall the pipeline.
	ErrInvalidWorkers = errors.New("invalid worker count: must be positive")

	// ErrInvalidMaxPages is returned when the page cap is negative.
	// Use 0 for the default cap.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the body size cap is
	// negative. Use 0 for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one summary format can be used.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
