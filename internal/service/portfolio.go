package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid/v5"

	"github.com/and161185/wefixit/internal/convert"
	"github.com/and161185/wefixit/internal/errs"
	"github.com/and161185/wefixit/internal/model"
	"github.com/and161185/wefixit/internal/repository"
	"github.com/and161185/wefixit/internal/upload"
)

// DefaultPortfolioLimit is the page size of a portfolio listing without an explicit limit.
const DefaultPortfolioLimit = 20

// PortfolioService maps portfolio items to and from the document store.
// An attached file replaces any image URL supplied in the same request.
type PortfolioService interface {
	Create(ctx context.Context, in model.PortfolioInput, file *model.Upload) (model.PortfolioItem, error)
	List(ctx context.Context, f model.PortfolioFilter) (model.Page[model.PortfolioItem], error)
	Get(ctx context.Context, id string) (model.PortfolioItem, error)
	Update(ctx context.Context, id string, p model.PortfolioPatch, file *model.Upload) (model.PortfolioItem, error)
	Delete(ctx context.Context, id string) error
}

type PortfolioServiceImpl struct {
	coll     repository.Collection
	files    upload.Store
	validate *validator.Validate
	now      func() time.Time
}

// NewPortfolioService constructs PortfolioService. files receives uploaded images.
func NewPortfolioService(coll repository.Collection, files upload.Store, opts ...Option) *PortfolioServiceImpl {
	o := buildOptions(opts)
	return &PortfolioServiceImpl{coll: coll, files: files, validate: newValidator(), now: o.now}
}

// Create stores a new item. The file, if any, is written before the document.
func (s *PortfolioServiceImpl) Create(ctx context.Context, in model.PortfolioInput, file *model.Upload) (model.PortfolioItem, error) {
	if file != nil {
		// the uploaded image supersedes a URL field
		in.ImageURL = nil
	}
	if err := validateStruct(s.validate, in); err != nil {
		return model.PortfolioItem{}, err
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return model.PortfolioItem{}, err
	}
	p := model.PortfolioItem{
		ID:          uid,
		Title:       *in.Title,
		Description: in.Description,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
		Link:        in.Link,
		Tags:        in.Tags,
		IsActive:    true,
		CreatedAt:   s.now().UTC(),
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}

	if file != nil {
		u, err := s.save(ctx, file)
		if err != nil {
			return model.PortfolioItem{}, err
		}
		p.ImageURL = &u
	}

	doc := repository.Document{ID: p.ID, CreatedAt: p.CreatedAt, Fields: convert.PortfolioToFields(p)}
	if err := s.coll.Insert(ctx, doc); err != nil {
		return model.PortfolioItem{}, fmt.Errorf("insert portfolio item: %w", err)
	}
	return s.get(ctx, p.ID)
}

// List returns items newest first.
func (s *PortfolioServiceImpl) List(ctx context.Context, f model.PortfolioFilter) (model.Page[model.PortfolioItem], error) {
	if err := validatePage(f.Page); err != nil {
		return model.Page[model.PortfolioItem]{}, err
	}
	filter := convert.PortfolioFilterFields(f)

	total, err := s.coll.Count(ctx, filter)
	if err != nil {
		return model.Page[model.PortfolioItem]{}, fmt.Errorf("count portfolio: %w", err)
	}
	docs, err := s.coll.Find(ctx, repository.Query{
		Filter: filter,
		Sort:   repository.NewestFirst,
		Offset: f.Page.Offset,
		Limit:  f.Page.Limit,
	})
	if err != nil {
		return model.Page[model.PortfolioItem]{}, fmt.Errorf("find portfolio: %w", err)
	}

	out := model.Page[model.PortfolioItem]{
		Total:  total,
		Limit:  f.Page.Limit,
		Offset: f.Page.Offset,
		Items:  make([]model.PortfolioItem, 0, len(docs)),
	}
	for _, d := range docs {
		out.Items = append(out.Items, convert.PortfolioFromDocument(d))
	}
	return out, nil
}

// Get returns a single item; malformed or unknown IDs yield errs.ErrNotFound.
func (s *PortfolioServiceImpl) Get(ctx context.Context, id string) (model.PortfolioItem, error) {
	uid, err := parseID(id)
	if err != nil {
		return model.PortfolioItem{}, err
	}
	return s.get(ctx, uid)
}

// Update writes only the fields present in p. With a file attached the item
// must exist before anything is written to disk.
func (s *PortfolioServiceImpl) Update(ctx context.Context, id string, p model.PortfolioPatch, file *model.Upload) (model.PortfolioItem, error) {
	uid, err := parseID(id)
	if err != nil {
		return model.PortfolioItem{}, err
	}
	if v, ok := p.ImageURL.Get(); ok && file == nil && v != "" {
		if err := s.validate.Var(v, "url"); err != nil {
			return model.PortfolioItem{}, errs.Invalid("image_url", "must be a valid URL")
		}
	}
	if tags, ok := p.Tags.Get(); ok {
		for _, t := range tags {
			if t == "" {
				return model.PortfolioItem{}, errs.Invalid("tags", "must not contain empty values")
			}
		}
	}

	if file != nil {
		if _, err := s.get(ctx, uid); err != nil {
			return model.PortfolioItem{}, err
		}
		u, err := s.save(ctx, file)
		if err != nil {
			return model.PortfolioItem{}, err
		}
		p.ImageURL = model.Some(u)
	}

	fields := convert.PortfolioPatchFields(p)
	if len(fields) > 0 {
		if err := s.coll.Set(ctx, uid, fields); err != nil {
			return model.PortfolioItem{}, fmt.Errorf("update portfolio item: %w", err)
		}
	}
	return s.get(ctx, uid)
}

// Delete removes an item. Its uploaded image, if any, is left on disk.
func (s *PortfolioServiceImpl) Delete(ctx context.Context, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.coll.Delete(ctx, uid); err != nil {
		return fmt.Errorf("delete portfolio item: %w", err)
	}
	return nil
}

func (s *PortfolioServiceImpl) get(ctx context.Context, id uuid.UUID) (model.PortfolioItem, error) {
	d, err := s.coll.FindByID(ctx, id)
	if err != nil {
		return model.PortfolioItem{}, fmt.Errorf("get portfolio item: %w", err)
	}
	return convert.PortfolioFromDocument(*d), nil
}

func (s *PortfolioServiceImpl) save(ctx context.Context, file *model.Upload) (string, error) {
	u, err := s.files.Save(ctx, file.Filename, file.Body)
	if err != nil {
		if errors.Is(err, upload.ErrBadFilename) {
			return "", errs.Invalid("image_url", "invalid file name")
		}
		return "", fmt.Errorf("%w: save image: %w", errs.ErrInternal, err)
	}
	return u, nil
}
