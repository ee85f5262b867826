// Package seed loads tag translations from a YAML file into the
// localization store at startup.
//
// The file lists canonical tag names with their per-locale names:
//
//	translations:
//	  - tag: cat
//	    names:
//	      fr: chat
//	      de: Katze
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pkordes/tag-registry/internal/domain"
	"github.com/pkordes/tag-registry/internal/repo"
)

// File is the parsed seed document.
type File struct {
	Translations []Entry `yaml:"translations"`
}

// Entry holds the translations of one tag, keyed by locale.
type Entry struct {
	Tag   string            `yaml:"tag"`
	Names map[string]string `yaml:"names"`
}

// TagEnsurer resolves canonical names to tags, creating missing ones.
// *service.TagResolver satisfies it.
type TagEnsurer interface {
	FindOrCreateAllByNames(ctx context.Context, names []string) ([]domain.Tag, error)
}

// Parse decodes and validates a seed document. Unknown fields are rejected.
func Parse(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("seed.Parse: %w", err)
	}

	for i, e := range f.Translations {
		if strings.TrimSpace(e.Tag) == "" {
			return File{}, fmt.Errorf("seed.Parse: entry %d: %w: tag is required", i, domain.ErrValidation)
		}
		for locale, name := range e.Names {
			if strings.TrimSpace(locale) == "" || strings.TrimSpace(name) == "" {
				return File{}, fmt.Errorf("seed.Parse: entry %d (%s): %w: empty locale or name", i, e.Tag, domain.ErrValidation)
			}
		}
	}
	return f, nil
}

// LoadFile opens and parses the seed file at path.
func LoadFile(path string) (File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("seed.LoadFile: %w", err)
	}
	defer fh.Close()
	return Parse(fh)
}

// Apply ensures every tag in f exists and upserts its translations.
// It returns the number of translations written. Applying the same file
// twice leaves the store unchanged.
func Apply(ctx context.Context, f File, tags TagEnsurer, translations repo.TranslationRepo, log *slog.Logger) (int, error) {
	if len(f.Translations) == 0 {
		return 0, nil
	}
	if log == nil {
		log = slog.Default()
	}

	names := make([]string, len(f.Translations))
	for i, e := range f.Translations {
		names[i] = e.Tag
	}
	resolved, err := tags.FindOrCreateAllByNames(ctx, names)
	if err != nil {
		return 0, fmt.Errorf("seed.Apply: resolve tags: %w", err)
	}

	written := 0
	for i, e := range f.Translations {
		tag := resolved[i]
		locales := make([]string, 0, len(e.Names))
		for locale := range e.Names {
			locales = append(locales, locale)
		}
		sort.Strings(locales)

		for _, locale := range locales {
			tr := domain.Translation{
				TagID:  tag.ID,
				Locale: strings.TrimSpace(locale),
				Name:   strings.TrimSpace(e.Names[locale]),
			}
			if _, err := translations.Upsert(ctx, tr); err != nil {
				return written, fmt.Errorf("seed.Apply: %s/%s: %w", tag.Name, locale, err)
			}
			written++
		}
	}

	log.InfoContext(ctx, "translations seeded",
		"tags", len(f.Translations),
		"translations", written,
	)
	return written, nil
}
