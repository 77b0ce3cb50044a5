package types

import "errors"

// Column model errors. Duplicate names and unknown aggregates are
// configuration errors and fail table construction.
var (
	ErrDuplicateColumn  = errors.New("duplicate column name")
	ErrEmptyColumnName  = errors.New("column name must not be empty")
	ErrUnknownColumn    = errors.New("unknown column")
	ErrUnknownAggregate = errors.New("unknown aggregate")
)

// Table operation errors.
var (
	ErrRowNotFound       = errors.New("row not found")
	ErrInvalidPage       = errors.New("page must be at least 1")
	ErrGroupingNotSorted = errors.New("rows are not ordered by the group-by fields")
)

// Data manager errors.
var (
	ErrNoDataService = errors.New("no data service configured")
	ErrStaleLoad     = errors.New("load superseded by a newer request")
)

// Store errors returned by DataService implementations.
var (
	ErrNotFound        = errors.New("record not found")
	ErrInvalidID       = errors.New("invalid record ID")
	ErrInvalidData     = errors.New("invalid record data")
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrBackendEmpty    = errors.New("backend must not be empty")
	ErrBackendUnknown  = errors.New("unknown backend")
)
