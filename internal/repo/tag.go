package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/tag-registry/internal/domain"
	"github.com/pkordes/tag-registry/internal/tagname"
)

// TagRepo defines the persistence operations for Tags.
type TagRepo interface {
	// Find returns the tags matching the predicate ordered by creation time,
	// oldest first. An empty predicate name list matches nothing.
	Find(ctx context.Context, p domain.NamePredicate) ([]domain.Tag, error)

	// Create inserts a tag named name. Returns domain.ErrValidation if the name
	// is empty, too long, or (with opts.EnforceUniqueness) already taken under
	// opts.Comparison.
	Create(ctx context.Context, name string, opts domain.CreateOptions) (domain.Tag, error)

	// GetByID retrieves a single tag. Returns domain.ErrNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Tag, error)

	// ListPaged returns one page of tags whose name contains any of names
	// (case-insensitively), ordered by name. No names means all tags.
	ListPaged(ctx context.Context, names []string, p domain.PaginationParams) (domain.TagPage, error)
}

// pgTagRepo is the Postgres implementation of TagRepo.
type pgTagRepo struct {
	db db
}

// NewTagRepo constructs a TagRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTagRepo(db db) TagRepo {
	return &pgTagRepo{db: db}
}

const tagColumns = `id, name, taggings_count, created_at`

// pgNameEquals renders the equality directive for a comparison mode against a
// text[] parameter. COLLATE "C" forces byte-wise comparison regardless of the
// database default; ascii_lower is the folding function created by the
// initial migration and matches tagname.FoldASCII.
func pgNameEquals(mode domain.ComparisonMode, param string) string {
	if mode == domain.CompareBinary {
		return `name COLLATE "C" = ANY(@` + param + `::text[])`
	}
	return `ascii_lower(name) = ANY(@` + param + `::text[])`
}

// Find executes a name predicate.
// Contains predicates use ILIKE with the default backslash escape.
func (r *pgTagRepo) Find(ctx context.Context, p domain.NamePredicate) ([]domain.Tag, error) {
	if len(p.Names) == 0 {
		return []domain.Tag{}, nil
	}

	var (
		where string
		args  pgx.NamedArgs
	)
	switch p.Kind {
	case domain.MatchExact:
		where = pgNameEquals(p.Comparison, "names")
		args = pgx.NamedArgs{"names": p.Names}
	case domain.MatchContains:
		where = `name ILIKE ANY(@patterns::text[])`
		args = pgx.NamedArgs{"patterns": tagname.ContainsPatterns(p.Names)}
	default:
		return nil, fmt.Errorf("repo.TagRepo.Find: unknown match kind %d", p.Kind)
	}

	q := `SELECT ` + tagColumns + ` FROM tags WHERE ` + where + ` ORDER BY created_at, id`

	tags, err := r.queryTags(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.TagRepo.Find: %w", err)
	}
	return tags, nil
}

// Create inserts a tag. With uniqueness enforced the insert is guarded by a
// NOT EXISTS check under the requested comparison; the unique index on the
// byte-exact name backs both modes.
func (r *pgTagRepo) Create(ctx context.Context, name string, opts domain.CreateOptions) (domain.Tag, error) {
	name, err := tagname.Clean(name)
	if err != nil {
		return domain.Tag{}, fmt.Errorf("repo.TagRepo.Create: %w", err)
	}

	q := `INSERT INTO tags (name) VALUES (@name) RETURNING ` + tagColumns
	args := pgx.NamedArgs{"name": name}
	if opts.EnforceUniqueness {
		existing := name
		if opts.Comparison == domain.CompareFolded {
			existing = tagname.FoldASCII(name)
		}
		q = `
		INSERT INTO tags (name)
		SELECT @name::text
		WHERE NOT EXISTS (SELECT 1 FROM tags WHERE ` + pgNameEquals(opts.Comparison, "existing") + `)
		RETURNING ` + tagColumns
		args["existing"] = []string{existing}
	}

	tag, err := scanTag(r.db.QueryRow(ctx, q, args))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// The guard suppressed the insert.
			return domain.Tag{}, fmt.Errorf("repo.TagRepo.Create: %w: name has already been taken", domain.ErrValidation)
		}
		return domain.Tag{}, fmt.Errorf("repo.TagRepo.Create: %w", translatePgError(err))
	}
	return tag, nil
}

// GetByID retrieves a tag by primary key.
func (r *pgTagRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Tag, error) {
	q := `SELECT ` + tagColumns + ` FROM tags WHERE id = @id`

	tag, err := scanTag(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Tag{}, fmt.Errorf("repo.TagRepo.GetByID: %w", err)
	}
	return tag, nil
}

// ListPaged returns one page of tags and the total number of matches.
func (r *pgTagRepo) ListPaged(ctx context.Context, names []string, p domain.PaginationParams) (domain.TagPage, error) {
	const filter = `(cardinality(@patterns::text[]) = 0 OR name ILIKE ANY(@patterns::text[]))`
	args := pgx.NamedArgs{
		"patterns": tagname.ContainsPatterns(names),
		"limit":    p.Limit,
		"offset":   p.Offset(),
	}

	page := domain.TagPage{PaginationParams: p}
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM tags WHERE `+filter, args).Scan(&page.Total); err != nil {
		return domain.TagPage{}, fmt.Errorf("repo.TagRepo.ListPaged: count: %w", err)
	}

	q := `SELECT ` + tagColumns + ` FROM tags WHERE ` + filter + `
		ORDER BY name, id
		LIMIT @limit OFFSET @offset`
	tags, err := r.queryTags(ctx, q, args)
	if err != nil {
		return domain.TagPage{}, fmt.Errorf("repo.TagRepo.ListPaged: %w", err)
	}
	page.Tags = tags
	return page, nil
}

func (r *pgTagRepo) queryTags(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Tag, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

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

// scanTag maps a single database row into a domain.Tag.
func scanTag(s scanner) (domain.Tag, error) {
	var (
		t  domain.Tag
		id pgtype.UUID
	)
	err := s.Scan(&id, &t.Name, &t.Count, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Tag{}, domain.ErrNotFound
		}
		return domain.Tag{}, err
	}
	t.ID = uuid.UUID(id.Bytes)
	return t, nil
}
