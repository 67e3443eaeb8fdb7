package munitions

import "errors"

var (
	// ErrNotFound is returned when an id resolves to no weapon.
	ErrNotFound = errors.New("weapon not found")
	// ErrInvalidID is returned for ids that can never name a weapon.
	ErrInvalidID = errors.New("invalid weapon id")
	// ErrNotCustom is returned when a static weapon is used where a custom one is required.
	ErrNotCustom = errors.New("weapon is not a custom entry")
)
