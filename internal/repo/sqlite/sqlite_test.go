package sqlite_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/pkordes/tag-registry/internal/domain"
	"github.com/pkordes/tag-registry/internal/repo"
	"github.com/pkordes/tag-registry/internal/repo/sqlite"
)

// RepoSuite runs every test in its own transaction on a migrated in-memory
// database; the transaction is rolled back afterwards.
type RepoSuite struct {
	suite.Suite
	db           *sql.DB
	tx           *sql.Tx
	tags         repo.TagRepo
	translations repo.TranslationRepo
	ctx          context.Context
}

func TestRepoSuite(t *testing.T) {
	suite.Run(t, new(RepoSuite))
}

func (s *RepoSuite) SetupSuite() {
	s.ctx = context.Background()
	db, err := sqlite.Open(s.ctx, ":memory:")
	s.Require().NoError(err)
	s.db = db
}

func (s *RepoSuite) TearDownSuite() {
	s.Require().NoError(s.db.Close())
}

func (s *RepoSuite) SetupTest() {
	tx, err := s.db.BeginTx(s.ctx, nil)
	s.Require().NoError(err)
	s.tx = tx
	s.tags = sqlite.NewTagRepo(tx)
	s.translations = sqlite.NewTranslationRepo(tx)
}

func (s *RepoSuite) TearDownTest() {
	_ = s.tx.Rollback()
}

func (s *RepoSuite) mustCreate(name string) domain.Tag {
	tag, err := s.tags.Create(s.ctx, name, domain.CreateOptions{EnforceUniqueness: true})
	s.Require().NoError(err, "create %q", name)
	return tag
}

func (s *RepoSuite) TestCreate() {
	got, err := s.tags.Create(s.ctx, "Rocky Mountains", domain.CreateOptions{})

	s.Require().NoError(err)
	s.NotEqual(uuid.Nil, got.ID)
	s.Equal("Rocky Mountains", got.Name)
	s.Zero(got.Count)
	s.False(got.CreatedAt.IsZero())
}

func (s *RepoSuite) TestCreate_InvalidNames() {
	_, err := s.tags.Create(s.ctx, "", domain.CreateOptions{})
	s.ErrorIs(err, domain.ErrValidation)

	_, err = s.tags.Create(s.ctx, strings.Repeat("x", 256), domain.CreateOptions{})
	s.ErrorIs(err, domain.ErrValidation)
}

func (s *RepoSuite) TestCreate_FoldedUniqueness() {
	s.mustCreate("Ruby")

	_, err := s.tags.Create(s.ctx, "RUBY", domain.CreateOptions{
		EnforceUniqueness: true,
		Comparison:        domain.CompareFolded,
	})

	s.ErrorIs(err, domain.ErrValidation)
}

func (s *RepoSuite) TestCreate_BinaryUniqueness() {
	s.mustCreate("Ruby")

	got, err := s.tags.Create(s.ctx, "ruby", domain.CreateOptions{
		EnforceUniqueness: true,
		Comparison:        domain.CompareBinary,
	})

	s.Require().NoError(err)
	s.Equal("ruby", got.Name)
}

func (s *RepoSuite) TestCreate_ExactDuplicateHitsIndex() {
	s.mustCreate("go")

	_, err := s.tags.Create(s.ctx, "go", domain.CreateOptions{})

	s.ErrorIs(err, domain.ErrValidation)
}

func (s *RepoSuite) TestFind_ExactFolded() {
	ruby := s.mustCreate("Ruby")
	s.mustCreate("Rubygems")

	got, err := s.tags.Find(s.ctx, domain.NamePredicate{
		Kind:       domain.MatchExact,
		Names:      []string{"ruby", "python"},
		Comparison: domain.CompareFolded,
	})

	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(ruby.ID, got[0].ID)
}

func (s *RepoSuite) TestFind_ExactBinary() {
	s.mustCreate("Ruby")

	got, err := s.tags.Find(s.ctx, domain.NamePredicate{
		Kind:       domain.MatchExact,
		Names:      []string{"ruby"},
		Comparison: domain.CompareBinary,
	})

	s.Require().NoError(err)
	s.Empty(got)
}

func (s *RepoSuite) TestFind_ContainsInCreationOrder() {
	category := s.mustCreate("Category")
	s.mustCreate("dog")
	bobcat := s.mustCreate("bobcat")

	got, err := s.tags.Find(s.ctx, domain.NamePredicate{
		Kind:  domain.MatchContains,
		Names: []string{"CAT"},
	})

	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(category.ID, got[0].ID)
	s.Equal(bobcat.ID, got[1].ID)
}

func (s *RepoSuite) TestFind_ContainsEscapesWildcards() {
	s.mustCreate("100 percent")
	s.mustCreate("snakeXcase")
	literal := s.mustCreate("100% done")
	snake := s.mustCreate("snake_case")

	got, err := s.tags.Find(s.ctx, domain.NamePredicate{
		Kind:  domain.MatchContains,
		Names: []string{"100%", "e_c"},
	})

	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(literal.ID, got[0].ID)
	s.Equal(snake.ID, got[1].ID)
}

func (s *RepoSuite) TestFind_EmptyNames() {
	got, err := s.tags.Find(s.ctx, domain.NamePredicate{Kind: domain.MatchContains})

	s.Require().NoError(err)
	s.NotNil(got)
	s.Empty(got)
}

func (s *RepoSuite) TestGetByID() {
	want := s.mustCreate("Desert")

	got, err := s.tags.GetByID(s.ctx, want.ID)

	s.Require().NoError(err)
	s.Equal(want.ID, got.ID)
	s.Equal("Desert", got.Name)
	s.WithinDuration(want.CreatedAt, got.CreatedAt, time.Millisecond)
}

func (s *RepoSuite) TestGetByID_NotFound() {
	_, err := s.tags.GetByID(s.ctx, uuid.New())

	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *RepoSuite) TestListPaged() {
	for _, n := range []string{"mountain", "Mountain Lake", "desert"} {
		s.mustCreate(n)
	}
	page, limit := 2, 1

	got, err := s.tags.ListPaged(s.ctx, []string{"mount"}, domain.NewPaginationParams(&page, &limit))

	s.Require().NoError(err)
	s.Equal(int64(2), got.Total)
	s.Equal(int64(2), got.TotalPages())
	s.Require().Len(got.Tags, 1)
	// Binary ordering puts upper case first.
	s.Equal("mountain", got.Tags[0].Name)
}

func (s *RepoSuite) TestListPaged_All() {
	s.mustCreate("a")
	s.mustCreate("b")

	got, err := s.tags.ListPaged(s.ctx, nil, domain.NewPaginationParams(nil, nil))

	s.Require().NoError(err)
	s.Equal(int64(2), got.Total)
	s.Len(got.Tags, 2)
}

func (s *RepoSuite) TestTranslations_UpsertAndFind() {
	cat := s.mustCreate("cat")

	_, err := s.translations.Upsert(s.ctx, domain.Translation{TagID: cat.ID, Locale: "fr", Name: "chat"})
	s.Require().NoError(err)
	_, err = s.translations.Upsert(s.ctx, domain.Translation{TagID: cat.ID, Locale: "fr", Name: "chatte"})
	s.Require().NoError(err)

	got, err := s.translations.FindByName(s.ctx, "chatte")
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(domain.Translation{TagID: cat.ID, Locale: "fr", Name: "chatte"}, got[0])

	old, err := s.translations.FindByName(s.ctx, "chat")
	s.Require().NoError(err)
	s.Empty(old)
}

func (s *RepoSuite) TestTranslations_FindByNameIsCaseSensitive() {
	cat := s.mustCreate("cat")
	_, err := s.translations.Upsert(s.ctx, domain.Translation{TagID: cat.ID, Locale: "fr", Name: "Chat"})
	s.Require().NoError(err)

	got, err := s.translations.FindByName(s.ctx, "chat")

	s.Require().NoError(err)
	s.Empty(got)
}

func (s *RepoSuite) TestTranslations_UnknownTag() {
	_, err := s.translations.Upsert(s.ctx, domain.Translation{TagID: uuid.New(), Locale: "fr", Name: "chat"})

	s.ErrorIs(err, domain.ErrNotFound)
}
