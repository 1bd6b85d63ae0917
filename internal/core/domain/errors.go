package domain

import "go.trai.ch/zerr"

var (
	// ErrPackageNotFound is the cause attached when the registry reports that a package does not exist.
	ErrPackageNotFound = zerr.New("package does not exist in the registry")

	// ErrRegistryRequestFailed is returned when a registry request cannot be completed (network failure, timeout).
	ErrRegistryRequestFailed = zerr.New("failed to make registry request")

	// ErrRegistryParseFailed is returned when a registry response body does not have the expected shape.
	ErrRegistryParseFailed = zerr.New("failed to parse registry response")

	// ErrRegistryUnexpectedStatus is returned when the registry answers with a status other than 2xx or 404.
	ErrRegistryUnexpectedStatus = zerr.New("unexpected registry response status")

	// ErrLookupPanicked is attached to an outcome when a lookup panicked instead of returning.
	ErrLookupPanicked = zerr.New("lookup panicked")

	// ErrUnexpectedArgument is returned when the command line contains an unknown option.
	ErrUnexpectedArgument = zerr.New("unexpected argument")

	// ErrInvalidFlag is returned when a known flag is given an invalid value.
	ErrInvalidFlag = zerr.New("invalid flag value")

	// ErrInvalidConcurrency is returned when the concurrency limit is below Unbounded.
	ErrInvalidConcurrency = zerr.New("concurrency must be -1 (unbounded), 0 (default) or a positive number")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidConfig is returned when the merged configuration fails validation.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrOutcomeNotInBatch is returned when an outcome names a package outside the batch.
	ErrOutcomeNotInBatch = zerr.New("outcome does not belong to the batch")

	// ErrDuplicateOutcome is returned when a second outcome is recorded for the same package.
	ErrDuplicateOutcome = zerr.New("outcome already recorded for package")

	// ErrIncompleteReport is returned when a report is missing outcomes for batch members.
	ErrIncompleteReport = zerr.New("report is missing outcomes")

	// ErrLookupsFailed is returned after rendering when at least one package was not found or failed.
	ErrLookupsFailed = zerr.New("one or more lookups did not resolve")

	// ErrTracingSetupFailed is returned when the tracing exporter cannot be created.
	ErrTracingSetupFailed = zerr.New("failed to set up tracing")
)
