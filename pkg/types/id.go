package types

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID returns a fresh UUID v7 string for a new row.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fall back to v4 if the v7 clock source fails.
		return uuid.New().String()
	}
	return id.String()
}

// ValidateID rejects anything that is not a canonical UUID: 36 characters,
// hyphenated, lowercase hex. Ids are stored and compared in that form, so an
// uppercase spelling would never match a row. what names the entity for the
// reason string, e.g. "character".
func ValidateID(what, id string) error {
	if len(id) != 36 {
		return Wrap(KindInvalidInput, ErrInvalidID, fmt.Sprintf("invalid %s id, must be a uuid", what))
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Wrap(KindInvalidInput, ErrInvalidID, fmt.Sprintf("invalid %s id, must be a uuid", what))
	}
	if parsed.String() != id {
		return Wrap(KindInvalidInput, ErrInvalidID, fmt.Sprintf("invalid %s id, must be a lowercase uuid", what))
	}
	return nil
}

// ValidateIDs checks every id and reports the first duplicate. what names
// the collection for the reason string.
func ValidateIDs(what string, ids []string) error {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if err := ValidateID(what, id); err != nil {
			return err
		}
		if seen[id] {
			return Invalid("duplicate %s id %s", what, id)
		}
		seen[id] = true
	}
	return nil
}
