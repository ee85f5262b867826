package domain

import "github.com/google/uuid"

// Translation is a locale-specific name for a tag, owned by the localization
// store. Different tags may carry translations with the same literal Name.
type Translation struct {
	TagID  uuid.UUID
	Locale string
	Name   string
}
