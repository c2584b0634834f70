// Package domain holds the records exchanged by the quality engine packages.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ContentType is the editorial category of a submission.
type ContentType string

const (
	ContentTypeNews       ContentType = "news"
	ContentTypeTourism    ContentType = "tourism"
	ContentTypeGovernment ContentType = "government"
	ContentTypeEvents     ContentType = "events"
	ContentTypePractical  ContentType = "practical"
)

// ContentTypeAll is the wildcard used by rule applicability filters.
const ContentTypeAll = "all"

// Publication sections content types are published under.
const (
	SectionNews       = "News"
	SectionThingsToDo = "Things to Do"
)

// ContentTypes lists every supported content type.
func ContentTypes() []ContentType {
	return []ContentType{
		ContentTypeNews, ContentTypeTourism, ContentTypeGovernment,
		ContentTypeEvents, ContentTypePractical,
	}
}

// Valid reports whether ct is a known content type.
func (ct ContentType) Valid() bool {
	for _, known := range ContentTypes() {
		if ct == known {
			return true
		}
	}
	return false
}

// Section maps the content type to its publication section.
func (ct ContentType) Section() string {
	switch ct {
	case ContentTypeNews, ContentTypeGovernment:
		return SectionNews
	default:
		return SectionThingsToDo
	}
}

var (
	ErrMissingTitle       = errors.New("title is required")
	ErrMissingBody        = errors.New("body is required")
	ErrInvalidContentType = errors.New("unknown content type")
)

// ValidationError reports a malformed ContentInput.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid content %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Image attached to a submission.
type Image struct {
	URL    string `json:"url"`
	Alt    string `json:"alt,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// ContentInput is a submission to evaluate. The engine never modifies it.
type ContentInput struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Body            string      `json:"body"`
	Excerpt         string      `json:"excerpt,omitempty"`
	ContentType     ContentType `json:"content_type"`
	Images          []Image     `json:"images,omitempty"`
	Author          string      `json:"author,omitempty"`
	TargetAudience  string      `json:"target_audience,omitempty"`
	GeographicScope string      `json:"geographic_scope,omitempty"`
	SourceURL       string      `json:"source_url,omitempty"`
}

// Validate rejects input missing a title or body, or naming an unknown content type.
// An empty content type is allowed and treated as news.
func (c *ContentInput) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return &ValidationError{Field: "title", Err: ErrMissingTitle}
	}
	if strings.TrimSpace(c.Body) == "" {
		return &ValidationError{Field: "body", Err: ErrMissingBody}
	}
	if c.ContentType != "" && !c.ContentType.Valid() {
		return &ValidationError{Field: "content_type", Err: fmt.Errorf("%w: %q", ErrInvalidContentType, c.ContentType)}
	}
	return nil
}

// Type returns the content type, defaulting to news.
func (c *ContentInput) Type() ContentType {
	if c.ContentType == "" {
		return ContentTypeNews
	}
	return c.ContentType
}

// Scope returns the geographic scope, defaulting to "all".
func (c *ContentInput) Scope() string {
	if c.GeographicScope == "" {
		return ContentTypeAll
	}
	return c.GeographicScope
}

// FullText is the title and body joined for scanners that look at both.
func (c *ContentInput) FullText() string {
	return c.Title + "\n\n" + c.Body
}
