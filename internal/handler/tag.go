package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/tag-registry/internal/domain"
)

// ResolveTag handles POST /tags.
// It returns the tag matching the requested name, creating it when nothing
// matches.
func (s *Server) ResolveTag(w http.ResponseWriter, r *http.Request) {
	var body ResolveTagRequest
	if !decodeBody(w, r, &body) {
		return
	}

	tag, err := s.tags.FindOrCreateByName(r.Context(), body.Name)
	if err != nil {
		s.writeError(w, r, err, "tag not found")
		return
	}

	writeJSON(w, http.StatusOK, tagToResponse(tag))
}

// ResolveTags handles POST /tags/resolve.
// The response holds one tag per requested name in request order,
// duplicates included.
func (s *Server) ResolveTags(w http.ResponseWriter, r *http.Request) {
	var body ResolveTagsRequest
	if !decodeBody(w, r, &body) {
		return
	}

	tags, err := s.tags.FindOrCreateAllByNames(r.Context(), body.Names)
	if err != nil {
		s.writeError(w, r, err, "tag not found")
		return
	}

	writeJSON(w, http.StatusOK, ResolveTagsResponse{Data: tagsToResponse(tags)})
}

// ListTags handles GET /tags.
// Supports repeated ?q= substring filters plus ?page= and ?limit=
// (defaults: page=1, limit=20, max=100).
func (s *Server) ListTags(w http.ResponseWriter, r *http.Request) {
	var params ListTagsParams
	query := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "q", query, &params.Q); err != nil {
		writeJSON(w, http.StatusBadRequest, parameterBody("q", err))
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "page", query, &params.Page); err != nil {
		writeJSON(w, http.StatusBadRequest, parameterBody("page", err))
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &params.Limit); err != nil {
		writeJSON(w, http.StatusBadRequest, parameterBody("limit", err))
		return
	}

	var names []string
	if params.Q != nil {
		for _, q := range *params.Q {
			if q != "" {
				names = append(names, q)
			}
		}
	}
	pagination := domain.NewPaginationParams(params.Page, params.Limit)

	page, err := s.reader.ListPaged(r.Context(), names, pagination)
	if err != nil {
		s.writeError(w, r, err, "tag not found")
		return
	}

	writeJSON(w, http.StatusOK, TagList{
		Data: tagsToResponse(page.Tags),
		Pagination: Pagination{
			Page:       pagination.Page,
			Limit:      pagination.Limit,
			Total:      page.Total,
			TotalPages: page.TotalPages(),
		},
	})
}

// GetTag handles GET /tags/{id}.
func (s *Server) GetTag(w http.ResponseWriter, r *http.Request) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, parameterBody("id", err))
		return
	}

	tag, err := s.reader.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, "tag not found")
		return
	}

	writeJSON(w, http.StatusOK, tagToResponse(tag))
}

// tagToResponse converts a domain.Tag to the API response type.
func tagToResponse(t domain.Tag) Tag {
	return Tag{
		Id:            openapi_types.UUID(t.ID),
		Name:          t.Name,
		TaggingsCount: t.Count,
		CreatedAt:     t.CreatedAt,
	}
}

func tagsToResponse(tags []domain.Tag) []Tag {
	data := make([]Tag, len(tags))
	for i, t := range tags {
		data[i] = tagToResponse(t)
	}
	return data
}
