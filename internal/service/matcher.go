// Package service contains the tag resolution logic of the registry.
// Services validate names, apply the case and localization policies, and
// orchestrate repo calls. No SQL lives here: services depend on repo
// interfaces, not implementations.
package service

import (
	"context"
	"fmt"

	"github.com/pkordes/tag-registry/internal/domain"
	"github.com/pkordes/tag-registry/internal/repo"
	"github.com/pkordes/tag-registry/internal/tagname"
)

// NameMatcher builds name predicates under a case policy and runs them
// against the tag store. All operations are read-only.
type NameMatcher struct {
	tags       repo.TagRepo
	normalizer tagname.Normalizer
}

// NewNameMatcher constructs a NameMatcher.
func NewNameMatcher(tags repo.TagRepo, normalizer tagname.Normalizer) *NameMatcher {
	return &NameMatcher{tags: tags, normalizer: normalizer}
}

// Exact returns tags whose name equals name under the active policy.
func (m *NameMatcher) Exact(ctx context.Context, name string) ([]domain.Tag, error) {
	return m.ExactAny(ctx, []string{name})
}

// ExactAny returns tags whose name equals any of names under the active
// policy, in a single storage round trip.
func (m *NameMatcher) ExactAny(ctx context.Context, names []string) ([]domain.Tag, error) {
	if len(names) == 0 {
		return []domain.Tag{}, nil
	}

	seen := make(map[tagname.Comparable]struct{}, len(names))
	keys := make([]string, 0, len(names))
	for _, n := range names {
		k := m.normalizer.Comparable(n)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, string(k))
	}

	tags, err := m.tags.Find(ctx, domain.NamePredicate{
		Kind:       domain.MatchExact,
		Names:      keys,
		Comparison: m.normalizer.Mode(),
	})
	if err != nil {
		return nil, fmt.Errorf("service.NameMatcher.ExactAny: %w", err)
	}
	return tags, nil
}

// Like returns tags whose name contains name as a literal, case-insensitive
// substring: "cat" matches "Category".
func (m *NameMatcher) Like(ctx context.Context, name string) ([]domain.Tag, error) {
	return m.LikeAny(ctx, []string{name})
}

// LikeAny returns tags whose name contains any of names.
func (m *NameMatcher) LikeAny(ctx context.Context, names []string) ([]domain.Tag, error) {
	if len(names) == 0 {
		return []domain.Tag{}, nil
	}

	canonical := make([]string, len(names))
	for i, n := range names {
		canonical[i] = tagname.Canonical(n)
	}

	tags, err := m.tags.Find(ctx, domain.NamePredicate{
		Kind:       domain.MatchContains,
		Names:      canonical,
		Comparison: m.normalizer.Mode(),
	})
	if err != nil {
		return nil, fmt.Errorf("service.NameMatcher.LikeAny: %w", err)
	}
	return tags, nil
}
