package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid/v5"

	"github.com/and161185/wefixit/internal/convert"
	"github.com/and161185/wefixit/internal/model"
	"github.com/and161185/wefixit/internal/repository"
)

// DefaultReviewLimit is the page size of a review listing without an explicit limit.
const DefaultReviewLimit = 50

// ReviewService maps reviews to and from the document store.
type ReviewService interface {
	Create(ctx context.Context, in model.ReviewInput) (model.Review, error)
	List(ctx context.Context, f model.ReviewFilter) ([]model.Review, error)
	Get(ctx context.Context, id string) (model.Review, error)
	Update(ctx context.Context, id string, p model.ReviewPatch) (model.Review, error)
	Delete(ctx context.Context, id string) error
}

type ReviewServiceImpl struct {
	coll     repository.Collection
	validate *validator.Validate
	now      func() time.Time
}

// NewReviewService constructs ReviewService over the reviews collection.
func NewReviewService(coll repository.Collection, opts ...Option) *ReviewServiceImpl {
	o := buildOptions(opts)
	return &ReviewServiceImpl{coll: coll, validate: newValidator(), now: o.now}
}

// Create validates and stores a review. Published defaults to true.
func (s *ReviewServiceImpl) Create(ctx context.Context, in model.ReviewInput) (model.Review, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return model.Review{}, err
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return model.Review{}, err
	}
	r := model.Review{
		ID:        uid,
		Name:      *in.Name,
		Rating:    *in.Rating,
		Comment:   *in.Comment,
		Published: true,
		CreatedAt: s.now().UTC(),
	}
	if in.Published != nil {
		r.Published = *in.Published
	}

	doc := repository.Document{ID: r.ID, CreatedAt: r.CreatedAt, Fields: convert.ReviewToFields(r)}
	if err := s.coll.Insert(ctx, doc); err != nil {
		return model.Review{}, fmt.Errorf("insert review: %w", err)
	}
	return s.get(ctx, r.ID)
}

// List returns one page of reviews, newest first. Review listings carry no
// total, so the store is not asked to count.
func (s *ReviewServiceImpl) List(ctx context.Context, f model.ReviewFilter) ([]model.Review, error) {
	if err := validatePage(f.Page); err != nil {
		return nil, err
	}
	docs, err := s.coll.Find(ctx, repository.Query{
		Filter: convert.ReviewFilterFields(f),
		Sort:   repository.NewestFirst,
		Offset: f.Page.Offset,
		Limit:  f.Page.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}

	out := make([]model.Review, 0, len(docs))
	for _, d := range docs {
		out = append(out, convert.ReviewFromDocument(d))
	}
	return out, nil
}

// Get returns a single review; malformed or unknown IDs yield errs.ErrNotFound.
func (s *ReviewServiceImpl) Get(ctx context.Context, id string) (model.Review, error) {
	uid, err := parseID(id)
	if err != nil {
		return model.Review{}, err
	}
	return s.get(ctx, uid)
}

// Update writes only the fields present in p. An empty patch leaves the
// document untouched and returns it as stored.
func (s *ReviewServiceImpl) Update(ctx context.Context, id string, p model.ReviewPatch) (model.Review, error) {
	uid, err := parseID(id)
	if err != nil {
		return model.Review{}, err
	}
	fields := convert.ReviewPatchFields(p)
	if len(fields) > 0 {
		if err := s.coll.Set(ctx, uid, fields); err != nil {
			return model.Review{}, fmt.Errorf("update review: %w", err)
		}
	}
	return s.get(ctx, uid)
}

// Delete removes a review.
func (s *ReviewServiceImpl) Delete(ctx context.Context, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.coll.Delete(ctx, uid); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}

func (s *ReviewServiceImpl) get(ctx context.Context, id uuid.UUID) (model.Review, error) {
	d, err := s.coll.FindByID(ctx, id)
	if err != nil {
		return model.Review{}, fmt.Errorf("get review: %w", err)
	}
	return convert.ReviewFromDocument(*d), nil
}
