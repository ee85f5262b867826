package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/tag-registry/internal/repo"
)

// TranslationVoter picks the tag that owns the most translations with a
// given literal name.
type TranslationVoter struct {
	translations repo.TranslationRepo
}

// NewTranslationVoter constructs a TranslationVoter.
func NewTranslationVoter(translations repo.TranslationRepo) *TranslationVoter {
	return &TranslationVoter{translations: translations}
}

// Resolve returns the id of the tag with the most translations named exactly
// literalName. The name is not normalized. Equal counts go to the lowest tag
// id in byte order. ok is false when no translation matches.
func (v *TranslationVoter) Resolve(ctx context.Context, literalName string) (id uuid.UUID, ok bool, err error) {
	translations, err := v.translations.FindByName(ctx, literalName)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("service.TranslationVoter.Resolve: %w", err)
	}
	if len(translations) == 0 {
		return uuid.Nil, false, nil
	}

	votes := make(map[uuid.UUID]int, len(translations))
	for _, tr := range translations {
		votes[tr.TagID]++
	}

	best := 0
	for tagID, n := range votes {
		if n > best || (n == best && bytes.Compare(tagID[:], id[:]) < 0) {
			id, best = tagID, n
		}
	}
	return id, true, nil
}
