package service_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/tag-registry/internal/domain"
	"github.com/pkordes/tag-registry/internal/repo"
	"github.com/pkordes/tag-registry/internal/tagname"
)

// ---- stateful fake TagRepo -------------------------------------------------

// fakeTagRepo is an in-memory tag store with the same matching rules as the
// SQL repos. It counts calls so tests can assert on storage traffic.
type fakeTagRepo struct {
	mu        sync.Mutex
	tags      []domain.Tag
	finds     int
	creates   int
	createErr error
}

var _ repo.TagRepo = (*fakeTagRepo)(nil)

func (f *fakeTagRepo) seed(names ...string) []domain.Tag {
	out := make([]domain.Tag, len(names))
	for i, n := range names {
		tag := domain.Tag{ID: uuid.New(), Name: n, CreatedAt: time.Now()}
		f.tags = append(f.tags, tag)
		out[i] = tag
	}
	return out
}

func comparableFor(mode domain.ComparisonMode, name string) string {
	if mode == domain.CompareBinary {
		return name
	}
	return tagname.FoldASCII(name)
}

func (f *fakeTagRepo) Find(_ context.Context, p domain.NamePredicate) ([]domain.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++

	out := []domain.Tag{}
	for _, tag := range f.tags {
		for _, n := range p.Names {
			var hit bool
			switch p.Kind {
			case domain.MatchExact:
				hit = comparableFor(p.Comparison, tag.Name) == n
			case domain.MatchContains:
				hit = strings.Contains(strings.ToLower(tag.Name), strings.ToLower(n))
			}
			if hit {
				out = append(out, tag)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeTagRepo) Create(_ context.Context, name string, opts domain.CreateOptions) (domain.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++

	if f.createErr != nil {
		return domain.Tag{}, f.createErr
	}
	name, err := tagname.Clean(name)
	if err != nil {
		return domain.Tag{}, err
	}
	for _, tag := range f.tags {
		taken := tag.Name == name
		if opts.EnforceUniqueness {
			taken = taken || comparableFor(opts.Comparison, tag.Name) == comparableFor(opts.Comparison, name)
		}
		if taken {
			return domain.Tag{}, fmt.Errorf("%w: name has already been taken", domain.ErrValidation)
		}
	}
	tag := domain.Tag{ID: uuid.New(), Name: name, CreatedAt: time.Now()}
	f.tags = append(f.tags, tag)
	return tag, nil
}

func (f *fakeTagRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tag := range f.tags {
		if tag.ID == id {
			return tag, nil
		}
	}
	return domain.Tag{}, fmt.Errorf("fake GetByID %s: %w", id, domain.ErrNotFound)
}

func (f *fakeTagRepo) ListPaged(_ context.Context, _ []string, p domain.PaginationParams) (domain.TagPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return domain.TagPage{Tags: f.tags, Total: int64(len(f.tags)), PaginationParams: p}, nil
}

func (f *fakeTagRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tags)
}

// blockingTagRepo parks Find or Create calls until release is closed, so tests
// can line up concurrent callers. entered receives once per parked call.
type blockingTagRepo struct {
	*fakeTagRepo
	blockFind   bool
	blockCreate bool
	entered     chan struct{}
	release     chan struct{}
}

func newBlockingTagRepo(blockFind, blockCreate bool) *blockingTagRepo {
	return &blockingTagRepo{
		fakeTagRepo: &fakeTagRepo{},
		blockFind:   blockFind,
		blockCreate: blockCreate,
		entered:     make(chan struct{}, 16),
		release:     make(chan struct{}),
	}
}

func (b *blockingTagRepo) park() {
	b.entered <- struct{}{}
	<-b.release
}

func (b *blockingTagRepo) Find(ctx context.Context, p domain.NamePredicate) ([]domain.Tag, error) {
	if b.blockFind {
		b.park()
	}
	return b.fakeTagRepo.Find(ctx, p)
}

func (b *blockingTagRepo) Create(ctx context.Context, name string, opts domain.CreateOptions) (domain.Tag, error) {
	if b.blockCreate {
		b.park()
	}
	return b.fakeTagRepo.Create(ctx, name, opts)
}

var _ repo.TagRepo = (*blockingTagRepo)(nil)

// ---- stateful fake TranslationRepo -----------------------------------------

type fakeTranslationRepo struct {
	mu   sync.Mutex
	rows []domain.Translation
}

var _ repo.TranslationRepo = (*fakeTranslationRepo)(nil)

func (f *fakeTranslationRepo) add(tagID uuid.UUID, name string, locales ...string) {
	for _, l := range locales {
		f.rows = append(f.rows, domain.Translation{TagID: tagID, Locale: l, Name: name})
	}
}

func (f *fakeTranslationRepo) FindByName(_ context.Context, name string) ([]domain.Translation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Translation{}
	for _, tr := range f.rows {
		if tr.Name == name {
			out = append(out, tr)
		}
	}
	return out, nil
}

func (f *fakeTranslationRepo) Upsert(_ context.Context, tr domain.Translation) (domain.Translation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, row := range f.rows {
		if row.TagID == tr.TagID && row.Locale == tr.Locale {
			f.rows[i] = tr
			return tr, nil
		}
	}
	f.rows = append(f.rows, tr)
	return tr, nil
}

// ---- func-field mocks ------------------------------------------------------

type mockTagRepo struct {
	find      func(ctx context.Context, p domain.NamePredicate) ([]domain.Tag, error)
	create    func(ctx context.Context, name string, opts domain.CreateOptions) (domain.Tag, error)
	getByID   func(ctx context.Context, id uuid.UUID) (domain.Tag, error)
	listPaged func(ctx context.Context, names []string, p domain.PaginationParams) (domain.TagPage, error)
}

func (m *mockTagRepo) Find(ctx context.Context, p domain.NamePredicate) ([]domain.Tag, error) {
	return m.find(ctx, p)
}
func (m *mockTagRepo) Create(ctx context.Context, name string, opts domain.CreateOptions) (domain.Tag, error) {
	return m.create(ctx, name, opts)
}
func (m *mockTagRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Tag, error) {
	return m.getByID(ctx, id)
}
func (m *mockTagRepo) ListPaged(ctx context.Context, names []string, p domain.PaginationParams) (domain.TagPage, error) {
	return m.listPaged(ctx, names, p)
}

// compile-time check
var _ repo.TagRepo = (*mockTagRepo)(nil)

type mockTranslationRepo struct {
	findByName func(ctx context.Context, name string) ([]domain.Translation, error)
}

func (m *mockTranslationRepo) FindByName(ctx context.Context, name string) ([]domain.Translation, error) {
	return m.findByName(ctx, name)
}
func (m *mockTranslationRepo) Upsert(_ context.Context, tr domain.Translation) (domain.Translation, error) {
	return tr, nil
}

var _ repo.TranslationRepo = (*mockTranslationRepo)(nil)
