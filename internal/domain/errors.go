package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// tag does not exist, including a tag id produced by translation voting that
// no longer resolves. Handlers map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when a tag name is empty, longer than
// MaxTagNameLength, or collides with an existing tag under the active
// comparison policy. Handlers map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")
