package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/tag-registry/internal/domain"
	"github.com/pkordes/tag-registry/internal/repo"
)

type translationRepo struct {
	db DB
}

// NewTranslationRepo constructs a repo.TranslationRepo backed by SQLite.
func NewTranslationRepo(db DB) repo.TranslationRepo {
	return &translationRepo{db: db}
}

func (r *translationRepo) FindByName(ctx context.Context, name string) ([]domain.Translation, error) {
	const q = `
		SELECT tag_id, locale, name
		FROM tag_translations
		WHERE name = ? COLLATE BINARY
		ORDER BY tag_id, locale`

	rows, err := r.db.QueryContext(ctx, q, name)
	if err != nil {
		return nil, fmt.Errorf("sqlite.TranslationRepo.FindByName: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []domain.Translation{}
	for rows.Next() {
		tr, err := scanTranslation(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite.TranslationRepo.FindByName: scan: %w", err)
		}
		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite.TranslationRepo.FindByName: rows: %w", err)
	}
	return out, nil
}

func (r *translationRepo) Upsert(ctx context.Context, tr domain.Translation) (domain.Translation, error) {
	const q = `
		INSERT INTO tag_translations (tag_id, locale, name)
		VALUES (?, ?, ?)
		ON CONFLICT (tag_id, locale) DO UPDATE SET name = excluded.name
		RETURNING tag_id, locale, name`

	result, err := scanTranslation(r.db.QueryRowContext(ctx, q, tr.TagID.String(), tr.Locale, tr.Name))
	if err != nil {
		return domain.Translation{}, fmt.Errorf("sqlite.TranslationRepo.Upsert: %w", translateError(err))
	}
	return result, nil
}

func scanTranslation(s scanner) (domain.Translation, error) {
	var (
		tr    domain.Translation
		tagID string
	)
	if err := s.Scan(&tagID, &tr.Locale, &tr.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Translation{}, domain.ErrNotFound
		}
		return domain.Translation{}, err
	}
	id, err := uuid.Parse(tagID)
	if err != nil {
		return domain.Translation{}, fmt.Errorf("parse tag id %q: %w", tagID, err)
	}
	tr.TagID = id
	return tr, nil
}
