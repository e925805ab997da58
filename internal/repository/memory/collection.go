// Package memory provides in-process implementations of the repository
// interfaces. Documents are JSON round-tripped on write so reads observe
// the same value types as the PostgreSQL JSONB backend.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/wefixit/internal/errs"
	"github.com/and161185/wefixit/internal/repository"
)

// Collection is a mutex-guarded map of documents.
type Collection struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]stored
}

type stored struct {
	doc  repository.Document
	body []byte
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{docs: map[uuid.UUID]stored{}}
}

// Insert stores a copy of doc.
func (c *Collection) Insert(_ context.Context, doc repository.Document) error {
	body, err := encode(doc.Fields)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.docs[doc.ID]; ok {
		return errs.ErrAlreadyExists
	}
	c.docs[doc.ID] = stored{doc: repository.Document{ID: doc.ID, CreatedAt: doc.CreatedAt}, body: body}
	return nil
}

// FindByID returns a copy of the stored document.
func (c *Collection) FindByID(_ context.Context, id uuid.UUID) (*repository.Document, error) {
	c.mu.RLock()
	s, ok := c.docs[id]
	c.mu.RUnlock()
	if !ok {
		return nil, errs.ErrNotFound
	}
	doc, err := s.materialize()
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Find filters, sorts and pages like the PostgreSQL collection.
func (c *Collection) Find(_ context.Context, q repository.Query) ([]repository.Document, error) {
	matched, err := c.match(q.Filter)
	if err != nil {
		return nil, err
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if q.Sort == repository.OldestFirst {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		return bytes.Compare(a.ID.Bytes(), b.ID.Bytes()) < 0
	})

	if q.Offset >= len(matched) {
		return []repository.Document{}, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

// Count returns the number of documents matching filter.
func (c *Collection) Count(_ context.Context, filter repository.Fields) (int64, error) {
	matched, err := c.match(filter)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// Set merges fields into the document under the write lock.
func (c *Collection) Set(_ context.Context, id uuid.UUID, fields repository.Fields) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.docs[id]
	if !ok {
		return errs.ErrNotFound
	}
	cur, err := decode(s.body)
	if err != nil {
		return err
	}
	for k, v := range fields {
		cur[k] = v
	}
	body, err := encode(cur)
	if err != nil {
		return err
	}
	s.body = body
	c.docs[id] = s
	return nil
}

// Delete removes a document.
func (c *Collection) Delete(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.docs[id]; !ok {
		return errs.ErrNotFound
	}
	delete(c.docs, id)
	return nil
}

// Ping always succeeds.
func (c *Collection) Ping(context.Context) error { return nil }

func (c *Collection) match(filter repository.Fields) ([]repository.Document, error) {
	want, err := normalize(filter)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []repository.Document{}
	for _, s := range c.docs {
		doc, err := s.materialize()
		if err != nil {
			return nil, err
		}
		if contains(doc.Fields, want) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s stored) materialize() (repository.Document, error) {
	fields, err := decode(s.body)
	if err != nil {
		return repository.Document{}, err
	}
	return repository.Document{ID: s.doc.ID, CreatedAt: s.doc.CreatedAt, Fields: fields}, nil
}

func contains(doc, filter repository.Fields) bool {
	for k, v := range filter {
		got, ok := doc[k]
		if !ok || !reflect.DeepEqual(got, v) {
			return false
		}
	}
	return true
}

func normalize(f repository.Fields) (repository.Fields, error) {
	b, err := encode(f)
	if err != nil {
		return nil, err
	}
	return decode(b)
}

func encode(f repository.Fields) ([]byte, error) {
	if f == nil {
		f = repository.Fields{}
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return b, nil
}

func decode(b []byte) (repository.Fields, error) {
	f := repository.Fields{}
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return f, nil
}
