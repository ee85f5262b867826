// Package handler implements the HTTP handlers for the tag registry API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, tag.go) but share the same Server struct so they can
// access its dependencies. Routes wires them into a chi router.
package handler

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pkordes/tag-registry/internal/domain"
)

// TagServicer defines the resolution operations the tag handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
// *service.TagResolver satisfies it.
type TagServicer interface {
	FindOrCreateByName(ctx context.Context, name string) (domain.Tag, error)
	FindOrCreateAllByNames(ctx context.Context, names []string) ([]domain.Tag, error)
}

// TagReader defines the read-only lookups behind GET /tags and GET /tags/{id}.
// repo.TagRepo satisfies it.
type TagReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Tag, error)
	ListPaged(ctx context.Context, names []string, p domain.PaginationParams) (domain.TagPage, error)
}

// Server holds the dependencies of every endpoint.
// Wire it in main.go via Routes.
type Server struct {
	tags   TagServicer
	reader TagReader
	log    *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// A nil logger logs to slog.Default().
func NewServer(tags TagServicer, reader TagReader, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{tags: tags, reader: reader, log: log}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil)
}
