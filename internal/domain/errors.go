package domain

import (
	"fmt"
	"strings"
)

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// NotRollbackableError marks a history entry whose operation cannot be
// reversed.
type NotRollbackableError struct {
	HistoryID string
}

func (e NotRollbackableError) Error() string {
	if e.HistoryID == "" {
		return "operation cannot be rolled back"
	}
	return fmt.Sprintf("history entry %s cannot be rolled back", e.HistoryID)
}

func (e NotRollbackableError) Is(target error) bool {
	_, ok := target.(NotRollbackableError)
	if ok {
		return true
	}
	_, ok = target.(*NotRollbackableError)
	return ok
}

// ErrNotRollbackable is the sentinel error for irreversible entries.
var ErrNotRollbackable = NotRollbackableError{}

// ValidationError carries the full list of violations found in a field
// configuration. No partial write happens when it is returned.
type ValidationError struct {
	Violations []string
}

func (e ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "invalid field config"
	}
	return "invalid field config: " + strings.Join(e.Violations, "; ")
}

func (e ValidationError) Is(target error) bool {
	_, ok := target.(ValidationError)
	if ok {
		return true
	}
	_, ok = target.(*ValidationError)
	return ok
}

// ErrValidation is the sentinel error for rejected configurations.
var ErrValidation = ValidationError{}

// UpstreamError wraps a vendor-reported error code or a transport
// failure while talking to the vendor API.
type UpstreamError struct {
	Code int
	Msg  string
	Err  error
}

func (e UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vendor request failed: %v", e.Err)
	}
	return fmt.Sprintf("vendor error %d: %s", e.Code, e.Msg)
}

func (e UpstreamError) Unwrap() error {
	return e.Err
}

func (e UpstreamError) Is(target error) bool {
	_, ok := target.(UpstreamError)
	if ok {
		return true
	}
	_, ok = target.(*UpstreamError)
	return ok
}

// ErrUpstream is the sentinel error for vendor failures.
var ErrUpstream = UpstreamError{}
