package service

import (
	"context"
	"fmt"

	"github.com/and161185/wefixit/internal/convert"
	"github.com/and161185/wefixit/internal/model"
	"github.com/and161185/wefixit/internal/repository"
)

// ProjectService exposes the read-only project listing.
type ProjectService interface {
	List(ctx context.Context) ([]model.Project, error)
}

type ProjectServiceImpl struct {
	coll repository.Collection
}

// NewProjectService constructs ProjectService over the projects collection.
func NewProjectService(coll repository.Collection) *ProjectServiceImpl {
	return &ProjectServiceImpl{coll: coll}
}

// List returns every project, oldest first.
func (s *ProjectServiceImpl) List(ctx context.Context) ([]model.Project, error) {
	docs, err := s.coll.Find(ctx, repository.Query{Sort: repository.OldestFirst})
	if err != nil {
		return nil, fmt.Errorf("find projects: %w", err)
	}
	out := make([]model.Project, 0, len(docs))
	for _, d := range docs {
		out = append(out, convert.ProjectFromDocument(d))
	}
	return out, nil
}
