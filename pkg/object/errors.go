package object

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat marks bytes that do not decode as the expected object,
	// frame, or archive structure.
	ErrInvalidFormat = errors.New("invalid object format")
	// ErrInvalidHash marks a hash string that is not 40 hex characters.
	ErrInvalidHash = fmt.Errorf("invalid object hash: %w", ErrInvalidFormat)
	// ErrObjectNotFound is returned when the store has no object for a hash.
	ErrObjectNotFound = errors.New("object not found")
	// ErrInvalidPack marks a pack archive that failed validation.
	ErrInvalidPack = fmt.Errorf("invalid pack archive: %w", ErrInvalidFormat)
	// ErrEmptyStore is returned when packing a store with no objects.
	ErrEmptyStore = errors.New("object store is empty")
)
