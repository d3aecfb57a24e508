package service

import "errors"

var (
	// ErrEmptyCatalogFile is returned when a catalog upload holds no records.
	ErrEmptyCatalogFile = errors.New("catalog file does not contain any item")

	// ErrEmptyRequirementFile is returned when a requirements upload holds no
	// records.
	ErrEmptyRequirementFile = errors.New("requirement file does not contain any item")

	// ErrUnsupportedSource is returned when a filename extension does not map
	// to a known catalog source.
	ErrUnsupportedSource = errors.New("unsupported catalog source")
)
