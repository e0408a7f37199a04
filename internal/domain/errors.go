package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInputTooLarge         = errors.New("input exceeds upload size ceiling")
	ErrMissingRequiredColumn = errors.New("missing required column")
	ErrMissingOptionalColumn = errors.New("missing optional column")
	ErrInvalidCredential     = errors.New("invalid credentials")
	ErrAccountLocked         = errors.New("account temporarily locked")
	ErrRoleUnavailable       = errors.New("authentication unavailable for role")
	ErrSnapshotNotFound      = errors.New("snapshot not found")
	ErrInvalidWindow         = errors.New("velocity window must be 28, 56 or 84 days")
	ErrUnsupportedFormat     = errors.New("unsupported file format")
)

// TooLargeError reports the size that tripped the upload ceiling.
type TooLargeError struct {
	Table string
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("%s upload is %d bytes, limit is %d bytes; resubmit a smaller export", e.Table, e.Size, e.Limit)
}

func (e *TooLargeError) Unwrap() error { return ErrInputTooLarge }

// MissingColumnError names the table and field that could not be resolved.
type MissingColumnError struct {
	Table    string
	Field    string
	Optional bool
}

func (e *MissingColumnError) Error() string {
	kind := "required"
	if e.Optional {
		kind = "optional"
	}
	return fmt.Sprintf("%s: missing %s column %q", e.Table, kind, e.Field)
}

func (e *MissingColumnError) Unwrap() error {
	if e.Optional {
		return ErrMissingOptionalColumn
	}
	return ErrMissingRequiredColumn
}

// RowError describes a malformed row that was skipped during parsing.
type RowError struct {
	Table  string `json:"table"`
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s row %d: %s", e.Table, e.Row, e.Reason)
}

// LockedError carries the instant the lockout ends.
type LockedError struct {
	Until time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s until %s", ErrAccountLocked.Error(), e.Until.UTC().Format(time.RFC3339))
}

func (e *LockedError) Unwrap() error { return ErrAccountLocked }
