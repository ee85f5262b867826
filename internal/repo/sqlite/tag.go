package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/tag-registry/internal/domain"
	"github.com/pkordes/tag-registry/internal/repo"
	"github.com/pkordes/tag-registry/internal/tagname"
)

type tagRepo struct {
	db DB
}

// NewTagRepo constructs a repo.TagRepo backed by SQLite.
func NewTagRepo(db DB) repo.TagRepo {
	return &tagRepo{db: db}
}

const tagColumns = `id, name, taggings_count, created_at`

// nameEquals renders equality against n parameters. SQLite's lower() folds
// ASCII only, which is exactly tagname.FoldASCII.
func nameEquals(mode domain.ComparisonMode, n int) string {
	if mode == domain.CompareBinary {
		return `name COLLATE BINARY IN (` + placeholders(n) + `)`
	}
	return `lower(name) IN (` + placeholders(n) + `)`
}

// nameContains renders an OR of escaped LIKE clauses. LIKE in SQLite is
// case-insensitive for ASCII letters.
func nameContains(n int) string {
	clauses := make([]string, n)
	for i := range clauses {
		clauses[i] = `name LIKE ? ESCAPE '` + tagname.LikeEscape + `'`
	}
	return `(` + strings.Join(clauses, ` OR `) + `)`
}

func (r *tagRepo) Find(ctx context.Context, p domain.NamePredicate) ([]domain.Tag, error) {
	if len(p.Names) == 0 {
		return []domain.Tag{}, nil
	}

	var (
		where string
		args  []any
	)
	switch p.Kind {
	case domain.MatchExact:
		where = nameEquals(p.Comparison, len(p.Names))
		args = toArgs(p.Names)
	case domain.MatchContains:
		where = nameContains(len(p.Names))
		args = toArgs(tagname.ContainsPatterns(p.Names))
	default:
		return nil, fmt.Errorf("sqlite.TagRepo.Find: unknown match kind %d", p.Kind)
	}

	q := `SELECT ` + tagColumns + ` FROM tags WHERE ` + where + ` ORDER BY created_at, rowid`
	tags, err := r.queryTags(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite.TagRepo.Find: %w", err)
	}
	return tags, nil
}

func (r *tagRepo) Create(ctx context.Context, name string, opts domain.CreateOptions) (domain.Tag, error) {
	name, err := tagname.Clean(name)
	if err != nil {
		return domain.Tag{}, fmt.Errorf("sqlite.TagRepo.Create: %w", err)
	}

	args := []any{uuid.NewString(), name, formatTimestamp(time.Now())}
	q := `INSERT INTO tags (id, name, created_at) VALUES (?, ?, ?) RETURNING ` + tagColumns
	if opts.EnforceUniqueness {
		existing := name
		if opts.Comparison == domain.CompareFolded {
			existing = tagname.FoldASCII(name)
		}
		q = `
		INSERT INTO tags (id, name, created_at)
		SELECT ?, ?, ?
		WHERE NOT EXISTS (SELECT 1 FROM tags WHERE ` + nameEquals(opts.Comparison, 1) + `)
		RETURNING ` + tagColumns
		args = append(args, existing)
	}

	tag, err := scanTag(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Tag{}, fmt.Errorf("sqlite.TagRepo.Create: %w: name has already been taken", domain.ErrValidation)
		}
		return domain.Tag{}, fmt.Errorf("sqlite.TagRepo.Create: %w", translateError(err))
	}
	return tag, nil
}

func (r *tagRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Tag, error) {
	q := `SELECT ` + tagColumns + ` FROM tags WHERE id = ?`

	tag, err := scanTag(r.db.QueryRowContext(ctx, q, id.String()))
	if err != nil {
		return domain.Tag{}, fmt.Errorf("sqlite.TagRepo.GetByID: %w", err)
	}
	return tag, nil
}

func (r *tagRepo) ListPaged(ctx context.Context, names []string, p domain.PaginationParams) (domain.TagPage, error) {
	filter := `1 = 1`
	if len(names) > 0 {
		filter = nameContains(len(names))
	}
	args := toArgs(tagname.ContainsPatterns(names))

	page := domain.TagPage{PaginationParams: p}
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM tags WHERE `+filter, args...).Scan(&page.Total); err != nil {
		return domain.TagPage{}, fmt.Errorf("sqlite.TagRepo.ListPaged: count: %w", err)
	}

	q := `SELECT ` + tagColumns + ` FROM tags WHERE ` + filter + `
		ORDER BY name, id
		LIMIT ? OFFSET ?`
	tags, err := r.queryTags(ctx, q, append(args, p.Limit, p.Offset())...)
	if err != nil {
		return domain.TagPage{}, fmt.Errorf("sqlite.TagRepo.ListPaged: %w", err)
	}
	page.Tags = tags
	return page, nil
}

func (r *tagRepo) queryTags(ctx context.Context, q string, args ...any) ([]domain.Tag, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	tags := []domain.Tag{}
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return tags, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTag(s scanner) (domain.Tag, error) {
	var (
		t     domain.Tag
		idStr string
	)
	if err := s.Scan(&idStr, &t.Name, &t.Count, timestamp{&t.CreatedAt}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Tag{}, domain.ErrNotFound
		}
		return domain.Tag{}, err
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return domain.Tag{}, fmt.Errorf("parse tag id %q: %w", idStr, err)
	}
	t.ID = id
	return t, nil
}
