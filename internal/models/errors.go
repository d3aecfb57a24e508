package models

import (
	"errors"
	"fmt"
)

// ErrItemNotFound is returned by single-item catalog operations when the
// requested item_id is not part of the aggregate.
var ErrItemNotFound = errors.New("catalog item not found")

// InvalidItemError reports a CatalogItem field that violates the item
// invariants. It is returned before any state change becomes observable.
type InvalidItemError struct {
	Field  string
	Reason string
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("invalid catalog item: %s %s", e.Field, e.Reason)
}

func invalidItem(field, reason string) error {
	return &InvalidItemError{Field: field, Reason: reason}
}
