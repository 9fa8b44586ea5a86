package storage

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSchemaTooNew is returned by Open when the database was written by a
	// newer recapture than this one.
	ErrSchemaTooNew = errors.New("database schema is newer than this build")
)
