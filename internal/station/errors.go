package station

import (
	"errors"
	"fmt"
)

var (
	// ErrDataSourceUnavailable means the map data source could not be reached
	// or answered with a non-success status.
	ErrDataSourceUnavailable = errors.New("fuel station data source unavailable")

	// ErrStationLookupFailed covers every other failure while building results.
	ErrStationLookupFailed = errors.New("fuel station lookup failed")
)

// UpstreamError represents a failed call to an upstream map service
type UpstreamError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s upstream error: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("%s upstream error: status %d", e.Source, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is lets callers match any UpstreamError against ErrDataSourceUnavailable.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrDataSourceUnavailable
}
