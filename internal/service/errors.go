package service

import "errors"

var (
	// ErrNotFound indicates an unknown map, heatmap or library entry.
	ErrNotFound = errors.New("not found")

	// ErrExists indicates a library entry with the same id.
	ErrExists = errors.New("already exists")

	// ErrDuplicateID indicates a declaration naming the same heatmap twice.
	ErrDuplicateID = errors.New("duplicate heatmap id")

	// ErrNoDatabase indicates DuckDB could not be opened.
	ErrNoDatabase = errors.New("database not available")
)
