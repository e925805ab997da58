package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
)

// CollectionName identifies a document collection.
type CollectionName string

// Known collections. Backends must reject any other name.
const (
	Reviews   CollectionName = "reviews"
	Portfolio CollectionName = "portfolio"
	Projects  CollectionName = "projects"
)

// Valid reports whether n is one of the known collections.
func (n CollectionName) Valid() bool {
	switch n {
	case Reviews, Portfolio, Projects:
		return true
	}
	return false
}

// Fields holds document fields keyed by their stored names.
// Values must be JSON-encodable; reads return JSON-decoded values
// (string, float64, bool, []any, map[string]any, nil).
type Fields map[string]any

// Document is a stored record. ID and CreatedAt are immutable.
type Document struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Fields    Fields
}

// SortOrder orders listings by creation time.
type SortOrder int

const (
	// NewestFirst sorts by created_at descending.
	NewestFirst SortOrder = iota
	// OldestFirst sorts by created_at ascending.
	OldestFirst
)

// Query selects documents whose fields equal every entry of Filter.
// Limit 0 means unlimited.
type Query struct {
	Filter Fields
	Sort   SortOrder
	Offset int
	Limit  int
}

// Collection is the document-store gateway for one collection.
type Collection interface {
	// Insert stores a new document.
	Insert(ctx context.Context, doc Document) error
	// FindByID returns a document or errs.ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*Document, error)
	// Find returns the documents matching q.
	Find(ctx context.Context, q Query) ([]Document, error)
	// Count returns the number of documents matching filter.
	Count(ctx context.Context, filter Fields) (int64, error)
	// Set overwrites the given fields, leaving others untouched.
	// No matching document yields errs.ErrNotFound.
	Set(ctx context.Context, id uuid.UUID, fields Fields) error
	// Delete removes a document; no matching document yields errs.ErrNotFound.
	Delete(ctx context.Context, id uuid.UUID) error
}

// Pinger reports store reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
