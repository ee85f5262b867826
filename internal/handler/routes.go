package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/tag-registry/spec"
)

// Routes returns a chi router serving every endpoint of the API, the
// embedded OpenAPI document included. Cross-cutting middleware is applied
// by the caller.
func Routes(s *Server) chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", serveOpenAPI)

	r.Route("/tags", func(r chi.Router) {
		r.Get("/", s.ListTags)
		r.Post("/", s.ResolveTag)
		r.Post("/resolve", s.ResolveTags)
		r.Get("/{id}", s.GetTag)
	})
	return r
}

func serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(spec.OpenAPI)
}
