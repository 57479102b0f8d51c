package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateSlug = errors.New("slug already exists")
)

const duplicateSlugMessage = "Slug already exists"

// Kind sorts failures into what the caller should do about them.
type Kind int

const (
	KindOther Kind = iota
	// KindConflict is a rejected input (validation or duplicate slug); show
	// it next to the offending field.
	KindConflict
	// KindTransient is a server or transport failure; the caller may retry.
	KindTransient
	// KindNotFound means the entity is gone; navigate away from it.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindConflict:
		return "conflict"
	case KindTransient:
		return "transient"
	case KindNotFound:
		return "not found"
	}
	return "other"
}

// APIError is a failed request. StatusCode is 0 when the server could not be
// reached, in which case Err holds the transport error.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrDuplicateSlug:
		return e.StatusCode == http.StatusBadRequest && e.Message == duplicateSlugMessage
	}
	return false
}

func (e *APIError) Kind() Kind {
	switch {
	case e.StatusCode == 0 || e.StatusCode >= 500:
		return KindTransient
	case e.StatusCode == http.StatusNotFound:
		return KindNotFound
	case e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusConflict:
		return KindConflict
	}
	return KindOther
}

// KindOf classifies any error returned by Client. Errors that are not an
// *APIError report KindOther.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind()
	}
	return KindOther
}
