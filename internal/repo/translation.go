package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/tag-registry/internal/domain"
)

// TranslationRepo is the localization store for tag names.
type TranslationRepo interface {
	// FindByName returns every translation whose name equals name byte for
	// byte, ordered by tag id then locale.
	FindByName(ctx context.Context, name string) ([]domain.Translation, error)

	// Upsert stores the translation of a tag for a locale, replacing any
	// previous name for that pair. Returns domain.ErrNotFound if the tag
	// does not exist.
	Upsert(ctx context.Context, tr domain.Translation) (domain.Translation, error)
}

// pgTranslationRepo is the Postgres implementation of TranslationRepo.
type pgTranslationRepo struct {
	db db
}

// NewTranslationRepo constructs a TranslationRepo backed by the provided db connection.
func NewTranslationRepo(db db) TranslationRepo {
	return &pgTranslationRepo{db: db}
}

// FindByName looks translations up by literal name.
func (r *pgTranslationRepo) FindByName(ctx context.Context, name string) ([]domain.Translation, error) {
	const q = `
		SELECT tag_id, locale, name
		FROM tag_translations
		WHERE name COLLATE "C" = @name
		ORDER BY tag_id, locale`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"name": name})
	if err != nil {
		return nil, fmt.Errorf("repo.TranslationRepo.FindByName: %w", err)
	}
	defer rows.Close()

	out := []domain.Translation{}
	for rows.Next() {
		tr, err := scanTranslation(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TranslationRepo.FindByName: scan: %w", err)
		}
		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TranslationRepo.FindByName: rows: %w", err)
	}
	return out, nil
}

// Upsert inserts or replaces the (tag, locale) translation.
func (r *pgTranslationRepo) Upsert(ctx context.Context, tr domain.Translation) (domain.Translation, error) {
	const q = `
		INSERT INTO tag_translations (tag_id, locale, name)
		VALUES (@tag_id, @locale, @name)
		ON CONFLICT (tag_id, locale) DO UPDATE SET name = EXCLUDED.name
		RETURNING tag_id, locale, name`

	args := pgx.NamedArgs{"tag_id": tr.TagID, "locale": tr.Locale, "name": tr.Name}
	result, err := scanTranslation(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Translation{}, fmt.Errorf("repo.TranslationRepo.Upsert: %w", translatePgError(err))
	}
	return result, nil
}

// scanTranslation maps a single database row into a domain.Translation.
func scanTranslation(s scanner) (domain.Translation, error) {
	var (
		tr    domain.Translation
		tagID pgtype.UUID
	)
	if err := s.Scan(&tagID, &tr.Locale, &tr.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Translation{}, domain.ErrNotFound
		}
		return domain.Translation{}, err
	}
	tr.TagID = uuid.UUID(tagID.Bytes)
	return tr, nil
}
