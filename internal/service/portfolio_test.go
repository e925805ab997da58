package service

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/wefixit/internal/errs"
	"github.com/and161185/wefixit/internal/model"
	"github.com/and161185/wefixit/internal/repository/memory"
	"github.com/and161185/wefixit/internal/upload"
)

type fakeFiles struct {
	saved map[string]string
	err   error
}

var _ upload.Store = (*fakeFiles)(nil)

func (f *fakeFiles) Save(_ context.Context, filename string, body io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if f.saved == nil {
		f.saved = map[string]string{}
	}
	f.saved[filename] = string(b)
	return "http://files.test/uploads/" + filename, nil
}

func newTestPortfolio(files *fakeFiles) (*PortfolioServiceImpl, *memory.Collection) {
	coll := memory.NewCollection()
	return NewPortfolioService(coll, files, WithClock(tickClock())), coll
}

func file(name, body string) *model.Upload {
	return &model.Upload{Filename: name, Body: strings.NewReader(body)}
}

func TestPortfolio_CreateDefaults(t *testing.T) {
	t.Parallel()
	s, _ := newTestPortfolio(&fakeFiles{})

	p, err := s.Create(context.Background(), model.PortfolioInput{Title: ptr("Kitchen")}, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Title != "Kitchen" || !p.IsActive || p.IsFeatured || p.ImageURL != nil || p.Description != nil {
		t.Fatalf("unexpected defaults: %+v", p)
	}
	if p.Tags == nil || len(p.Tags) != 0 {
		t.Fatalf("tags must default to empty list, got %#v", p.Tags)
	}
}

func TestPortfolio_CreateValidation(t *testing.T) {
	t.Parallel()
	files := &fakeFiles{}
	s, coll := newTestPortfolio(files)
	ctx := context.Background()

	cases := []struct {
		name  string
		in    model.PortfolioInput
		file  *model.Upload
		field string
	}{
		{"missing title", model.PortfolioInput{}, file("a.png", "x"), "title"},
		{"bad url", model.PortfolioInput{Title: ptr("t"), ImageURL: ptr("not a url")}, nil, "image_url"},
		{"empty tag", model.PortfolioInput{Title: ptr("t"), Tags: []string{"a", ""}}, file("b.png", "x"), "tags[1]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Create(ctx, tc.in, tc.file)
			var ve *errs.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("want ValidationError, got %v", err)
			}
			if ve.Fields[0].Field != tc.field {
				t.Fatalf("field want %q, got %+v", tc.field, ve.Fields)
			}
		})
	}
	if len(files.saved) != 0 {
		t.Fatalf("invalid input must not write files: %v", files.saved)
	}
	if n, _ := coll.Count(ctx, nil); n != 0 {
		t.Fatalf("nothing must be stored, got %d", n)
	}
}

func TestPortfolio_CreateWithFile(t *testing.T) {
	t.Parallel()
	files := &fakeFiles{}
	s, _ := newTestPortfolio(files)

	in := model.PortfolioInput{Title: ptr("Bath"), ImageURL: ptr("https://cdn.test/old.png"), Tags: []string{"tile"}}
	p, err := s.Create(context.Background(), in, file("bath.png", "PNG"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ImageURL == nil || *p.ImageURL != "http://files.test/uploads/bath.png" {
		t.Fatalf("file must win over url field: %v", p.ImageURL)
	}
	if files.saved["bath.png"] != "PNG" {
		t.Fatalf("file not written: %v", files.saved)
	}
	if len(p.Tags) != 1 || p.Tags[0] != "tile" {
		t.Fatalf("tags: %v", p.Tags)
	}
}

func TestPortfolio_UploadFailureAborts(t *testing.T) {
	t.Parallel()
	s, coll := newTestPortfolio(&fakeFiles{err: errors.New("disk full")})
	ctx := context.Background()

	_, err := s.Create(ctx, model.PortfolioInput{Title: ptr("t")}, file("a.png", "x"))
	if !errors.Is(err, errs.ErrInternal) {
		t.Fatalf("want ErrInternal, got %v", err)
	}
	if n, _ := coll.Count(ctx, nil); n != 0 {
		t.Fatalf("no document may be stored after a failed upload, got %d", n)
	}
}

func TestPortfolio_BadFilenameIsValidation(t *testing.T) {
	t.Parallel()
	s, _ := newTestPortfolio(&fakeFiles{err: upload.ErrBadFilename})

	_, err := s.Create(context.Background(), model.PortfolioInput{Title: ptr("t")}, file("..", "x"))
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestPortfolio_ListFilters(t *testing.T) {
	t.Parallel()
	s, _ := newTestPortfolio(&fakeFiles{})
	ctx := context.Background()

	mk := func(title string, featured, active bool) uuid.UUID {
		p, err := s.Create(ctx, model.PortfolioInput{Title: ptr(title), IsFeatured: ptr(featured), IsActive: ptr(active)}, nil)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		return p.ID
	}
	a := mk("a", true, true)
	mk("b", false, true)
	c := mk("c", true, false)
	d := mk("d", true, true)

	featured, err := s.List(ctx, model.PortfolioFilter{IsFeatured: ptr(true), Page: page(DefaultPortfolioLimit, 0)})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if featured.Total != 3 || featured.Items[0].ID != d || featured.Items[1].ID != c || featured.Items[2].ID != a {
		t.Fatalf("unexpected featured list: %+v", featured)
	}

	both, err := s.List(ctx, model.PortfolioFilter{IsFeatured: ptr(true), IsActive: ptr(true), Page: page(1, 1)})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if both.Total != 2 || len(both.Items) != 1 || both.Items[0].ID != a || both.Limit != 1 || both.Offset != 1 {
		t.Fatalf("unexpected page: %+v", both)
	}

	if _, err := s.List(ctx, model.PortfolioFilter{Page: page(0, 0)}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("limit 0: want ErrValidation, got %v", err)
	}
}

func TestPortfolio_Update(t *testing.T) {
	t.Parallel()
	files := &fakeFiles{}
	s, _ := newTestPortfolio(files)
	ctx := context.Background()

	p, err := s.Create(ctx, model.PortfolioInput{Title: ptr("Old"), Description: ptr("desc"), Tags: []string{"x"}}, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := p.ID.String()

	upd, err := s.Update(ctx, id, model.PortfolioPatch{Title: model.Some("New"), Tags: model.Some([]string{})}, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if upd.Title != "New" || len(upd.Tags) != 0 || upd.Description == nil || *upd.Description != "desc" || !upd.CreatedAt.Equal(p.CreatedAt) {
		t.Fatalf("unexpected update: %+v", upd)
	}

	withFile, err := s.Update(ctx, id, model.PortfolioPatch{ImageURL: model.Some("https://cdn.test/x.png")}, file("new.jpg", "JPG"))
	if err != nil {
		t.Fatalf("Update with file: %v", err)
	}
	if withFile.ImageURL == nil || *withFile.ImageURL != "http://files.test/uploads/new.jpg" || withFile.Title != "New" {
		t.Fatalf("unexpected update with file: %+v", withFile)
	}

	if _, err := s.Update(ctx, id, model.PortfolioPatch{ImageURL: model.Some("bogus")}, nil); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("bad url: want ErrValidation, got %v", err)
	}

	same, err := s.Update(ctx, id, model.PortfolioPatch{}, nil)
	if err != nil || same.Title != "New" {
		t.Fatalf("empty patch: %+v err=%v", same, err)
	}
}

func TestPortfolio_UpdateMissingWritesNoFile(t *testing.T) {
	t.Parallel()
	files := &fakeFiles{}
	s, _ := newTestPortfolio(files)
	missing := uuid.Must(uuid.NewV4()).String()

	_, err := s.Update(context.Background(), missing, model.PortfolioPatch{}, file("a.png", "x"))
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if len(files.saved) != 0 {
		t.Fatalf("no file may be written for a missing item: %v", files.saved)
	}
	if err := s.Delete(context.Background(), "bad"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("Delete malformed: want ErrNotFound, got %v", err)
	}
}

func TestPortfolio_EmptyPatchDoesNotWrite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	coll := &countingCollection{Collection: memory.NewCollection()}
	s := NewPortfolioService(coll, &fakeFiles{}, WithClock(tickClock()))

	p, err := s.Create(ctx, model.PortfolioInput{Title: ptr("Deck"), Tags: []string{"wood"}}, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	same, err := s.Update(ctx, p.ID.String(), model.PortfolioPatch{}, nil)
	if err != nil || !reflect.DeepEqual(same, p) {
		t.Fatalf("empty patch: want %+v, got %+v err=%v", p, same, err)
	}
	if coll.sets != 0 {
		t.Fatalf("empty patch must not write, got %d Set calls", coll.sets)
	}
}
