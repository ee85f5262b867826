package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/pkordes/tag-registry/internal/domain"
	"github.com/pkordes/tag-registry/internal/repo"
	"github.com/pkordes/tag-registry/internal/tagname"
)

// DefaultConcurrency bounds the per-name resolutions a batch runs at once.
const DefaultConcurrency = 4

// ResolverOptions fixes the resolution policy of a TagResolver.
type ResolverOptions struct {
	// StrictCaseMatch compares names byte for byte; "Ruby" and "ruby" are
	// different tags. Off by default.
	StrictCaseMatch bool

	// LocalizationEnabled lets translations vote on the canonical tag.
	LocalizationEnabled bool

	// EnforceUniqueness asks the store to reject a new tag whose comparable
	// name already exists.
	EnforceUniqueness bool

	// ExactSingularLookup makes FindOrCreateByName use exact matching under
	// the non-strict policy. The default is substring matching, so "cat"
	// resolves to an existing "category".
	ExactSingularLookup bool

	// Concurrency bounds parallel resolutions within a batch.
	// Zero or less means DefaultConcurrency.
	Concurrency int
}

// TagResolver finds or creates the canonical tag for requested names.
//
// Concurrent lookups and creations for the same comparable name within one
// resolver are coalesced, and a caller giving up does not fail the others.
// Across processes nothing is serialized: two callers may both miss and
// both create, in which case the store's uniqueness constraint fails the
// loser with domain.ErrValidation.
type TagResolver struct {
	tags       repo.TagRepo
	matcher    *NameMatcher
	voter      *TranslationVoter
	normalizer tagname.Normalizer
	opts       ResolverOptions
	log        *slog.Logger
	inflight   singleflight.Group
}

// NewTagResolver constructs a TagResolver. translations may be nil unless
// opts.LocalizationEnabled is set. A nil logger logs to slog.Default().
func NewTagResolver(tags repo.TagRepo, translations repo.TranslationRepo, opts ResolverOptions, log *slog.Logger) (*TagResolver, error) {
	if tags == nil {
		return nil, errors.New("service.NewTagResolver: tag repo is required")
	}
	if log == nil {
		log = slog.Default()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}

	normalizer := tagname.NewNormalizer(opts.StrictCaseMatch)
	r := &TagResolver{
		tags:       tags,
		matcher:    NewNameMatcher(tags, normalizer),
		normalizer: normalizer,
		opts:       opts,
		log:        log,
	}
	if opts.LocalizationEnabled {
		if translations == nil {
			return nil, errors.New("service.NewTagResolver: localization enabled without a translation repo")
		}
		r.voter = NewTranslationVoter(translations)
	}
	return r, nil
}

// Matcher exposes the resolver's NameMatcher for read-only lookups.
func (r *TagResolver) Matcher() *NameMatcher {
	return r.matcher
}

// FindOrCreateByName returns the tag for name, creating it if nothing matches.
// Under the strict policy this is the batch algorithm for one name. Otherwise
// the first tag whose name contains name wins (see ExactSingularLookup).
// Returns domain.ErrValidation for an empty or over-long name.
func (r *TagResolver) FindOrCreateByName(ctx context.Context, name string) (domain.Tag, error) {
	if r.normalizer.Strict() {
		tags, err := r.FindOrCreateAllByNames(ctx, []string{name})
		if err != nil {
			return domain.Tag{}, err
		}
		return tags[0], nil
	}

	cleaned, err := tagname.Clean(name)
	if err != nil {
		return domain.Tag{}, fmt.Errorf("service.TagResolver.FindOrCreateByName: %w", err)
	}

	key := "single:" + string(r.normalizer.Comparable(cleaned))
	tag, err := r.shared(ctx, key, func(ctx context.Context) (domain.Tag, error) {
		lookup := r.matcher.Like
		if r.opts.ExactSingularLookup {
			lookup = r.matcher.Exact
		}
		matches, err := lookup(ctx, cleaned)
		if err != nil {
			return domain.Tag{}, err
		}
		if len(matches) > 0 {
			return matches[0], nil
		}
		return r.create(ctx, cleaned)
	})
	if err != nil {
		return domain.Tag{}, fmt.Errorf("service.TagResolver.FindOrCreateByName: %w", err)
	}
	return tag, nil
}

// nameGroup is the set of requested literals sharing one comparable name.
type nameGroup struct {
	key      tagname.Comparable
	literals []string // distinct, in first-seen order
}

// FindOrCreateAllByNames resolves every name to a tag, creating the missing
// ones. The result has one entry per input name in input order, duplicates
// included. Names with the same comparable form share at most one creation,
// so ["a", "a"] creates a single tag; with localization on each distinct
// literal still gets its own vote. Any failure aborts the whole batch.
func (r *TagResolver) FindOrCreateAllByNames(ctx context.Context, names []string) ([]domain.Tag, error) {
	if len(names) == 0 {
		return []domain.Tag{}, nil
	}

	cleaned := make([]string, len(names))
	for i, n := range names {
		c, err := tagname.Clean(n)
		if err != nil {
			return nil, fmt.Errorf("service.TagResolver.FindOrCreateAllByNames: %w", err)
		}
		cleaned[i] = c
	}

	existing, err := r.matcher.ExactAny(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("service.TagResolver.FindOrCreateAllByNames: %w", err)
	}

	// member[i] is the group of cleaned[i].
	member := make([]int, len(cleaned))
	slot := make(map[tagname.Comparable]int, len(cleaned))
	var groups []nameGroup
	for i, n := range cleaned {
		k := r.normalizer.Comparable(n)
		j, ok := slot[k]
		if !ok {
			j = len(groups)
			slot[k] = j
			groups = append(groups, nameGroup{key: k})
		}
		if !slices.Contains(groups[j].literals, n) {
			groups[j].literals = append(groups[j].literals, n)
		}
		member[i] = j
	}

	resolved := make([]map[string]domain.Tag, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for j, grp := range groups {
		g.Go(func() error {
			tags, err := r.resolveGroup(gctx, grp, existing)
			if err != nil {
				return err
			}
			resolved[j] = tags
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("service.TagResolver.FindOrCreateAllByNames: %w", err)
	}

	out := make([]domain.Tag, len(cleaned))
	for i, n := range cleaned {
		out[i] = resolved[member[i]][n]
	}
	return out, nil
}

// resolveGroup picks the tag for every literal of one comparable name given
// the batch's existing candidates.
func (r *TagResolver) resolveGroup(ctx context.Context, grp nameGroup, existing []domain.Tag) (map[string]domain.Tag, error) {
	out := make(map[string]domain.Tag, len(grp.literals))
	same := func(tag domain.Tag) map[string]domain.Tag {
		for _, l := range grp.literals {
			out[l] = tag
		}
		return out
	}

	for _, tag := range existing {
		if r.normalizer.Comparable(tag.Name) != grp.key {
			continue
		}
		if r.voter == nil {
			return same(tag), nil
		}
		// The vote is on the stored name, so it is the same for every literal.
		voted, err := r.vote(ctx, tag.Name, func() (domain.Tag, error) { return tag, nil })
		if err != nil {
			return nil, err
		}
		return same(voted), nil
	}

	if r.voter == nil {
		tag, err := r.createOnce(ctx, grp.key, grp.literals[0])
		if err != nil {
			return nil, err
		}
		return same(tag), nil
	}

	// Not stored yet: each literal votes on its own; those without a vote
	// share one creation named after the first of them.
	var created *domain.Tag
	for _, l := range grp.literals {
		tag, err := r.vote(ctx, l, func() (domain.Tag, error) {
			if created != nil {
				return *created, nil
			}
			tag, err := r.createOnce(ctx, grp.key, l)
			if err != nil {
				return domain.Tag{}, err
			}
			created = &tag
			return tag, nil
		})
		if err != nil {
			return nil, err
		}
		out[l] = tag
	}
	return out, nil
}

// createOnce creates name, coalescing with any in-flight creation of the
// same comparable name.
func (r *TagResolver) createOnce(ctx context.Context, key tagname.Comparable, name string) (domain.Tag, error) {
	return r.shared(ctx, "create:"+string(key), func(ctx context.Context) (domain.Tag, error) {
		return r.create(ctx, name)
	})
}

// shared runs fn once per key across concurrent callers. fn runs under a
// context detached from any single caller's cancellation; each caller stops
// waiting when its own ctx is done.
func (r *TagResolver) shared(ctx context.Context, key string, fn func(context.Context) (domain.Tag, error)) (domain.Tag, error) {
	detached := context.WithoutCancel(ctx)
	ch := r.inflight.DoChan(key, func() (any, error) {
		return fn(detached)
	})
	select {
	case <-ctx.Done():
		return domain.Tag{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.Tag{}, res.Err
		}
		return res.Val.(domain.Tag), nil
	}
}

// vote lets translations named literal choose the tag. Without a vote the
// fallback decides. A winning id that no longer exists is an error.
func (r *TagResolver) vote(ctx context.Context, literal string, fallback func() (domain.Tag, error)) (domain.Tag, error) {
	id, ok, err := r.voter.Resolve(ctx, literal)
	if err != nil {
		return domain.Tag{}, err
	}
	if !ok {
		return fallback()
	}

	tag, err := r.tags.GetByID(ctx, id)
	if err != nil {
		return domain.Tag{}, fmt.Errorf("load voted tag %s for %q: %w", id, literal, err)
	}
	r.log.DebugContext(ctx, "tag resolved by translation vote",
		"name", literal,
		"tag_id", tag.ID,
		"tag_name", tag.Name,
	)
	return tag, nil
}

func (r *TagResolver) create(ctx context.Context, name string) (domain.Tag, error) {
	tag, err := r.tags.Create(ctx, name, domain.CreateOptions{
		EnforceUniqueness: r.opts.EnforceUniqueness,
		Comparison:        r.normalizer.Mode(),
	})
	if err != nil {
		return domain.Tag{}, err
	}
	r.log.DebugContext(ctx, "tag created",
		"tag_id", tag.ID,
		"name", tag.Name,
		"comparison", r.normalizer.Mode().String(),
	)
	return tag, nil
}
