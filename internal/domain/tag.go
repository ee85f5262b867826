package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxTagNameLength is the longest tag name, in characters, the registry accepts.
const MaxTagNameLength = 255

// Tag is the canonical registry entry a requested name resolves to.
// Tags are global and never mutated by resolution; Count is a read-only
// projection maintained by whatever records taggings.
type Tag struct {
	ID        uuid.UUID
	Name      string
	Count     int64
	CreatedAt time.Time
}

// Equal reports whether t and other denote the same tag: either the same
// row, or two independently fetched values carrying the same name.
func (t Tag) Equal(other Tag) bool {
	if t.ID != uuid.Nil && t.ID == other.ID {
		return true
	}
	return t.Name == other.Name
}

// String returns the tag name.
func (t Tag) String() string {
	return t.Name
}

// CreateOptions controls how the storage layer validates a new tag.
type CreateOptions struct {
	// EnforceUniqueness rejects a name whose comparable form already exists
	// under Comparison. When false only the storage's own constraints apply.
	EnforceUniqueness bool

	// Comparison is the policy under which uniqueness is checked.
	Comparison ComparisonMode
}
