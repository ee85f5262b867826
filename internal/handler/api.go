package handler

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Wire types of the HTTP API, matching the schemas in openapi.yaml.

// Tag is the API representation of a domain.Tag.
type Tag struct {
	Id            openapi_types.UUID `json:"id"`
	Name          string             `json:"name"`
	TaggingsCount int64              `json:"taggings_count"`
	CreatedAt     time.Time          `json:"created_at"`
}

// ResolveTagRequest is the body of POST /tags.
type ResolveTagRequest struct {
	Name string `json:"name"`
}

// ResolveTagsRequest is the body of POST /tags/resolve.
type ResolveTagsRequest struct {
	Names []string `json:"names"`
}

// ResolveTagsResponse holds one tag per requested name, in request order.
type ResolveTagsResponse struct {
	Data []Tag `json:"data"`
}

// Pagination describes the page a list response covers.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// TagList is the body of GET /tags.
type TagList struct {
	Data       []Tag      `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// ListTagsParams are the query parameters of GET /tags.
type ListTagsParams struct {
	// Q filters by case-insensitive substring; repeated values are OR'ed.
	Q     *[]string
	Page  *int
	Limit *int
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the envelope of every error body.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code and a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
