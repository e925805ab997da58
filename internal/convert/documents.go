package convert

import (
	"time"

	"github.com/and161185/wefixit/internal/model"
	"github.com/and161185/wefixit/internal/repository"
)

// --- helpers over JSON-decoded values ---

func str(f repository.Fields, k string) string {
	s, _ := f[k].(string)
	return s
}

func strPtr(f repository.Fields, k string) *string {
	s, ok := f[k].(string)
	if !ok {
		return nil
	}
	return &s
}

func num(f repository.Fields, k string) float64 {
	switch v := f[k].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func boolOr(f repository.Fields, k string, def bool) bool {
	b, ok := f[k].(bool)
	if !ok {
		return def
	}
	return b
}

func strs(f repository.Fields, k string) []string {
	switch v := f[k].(type) {
	case []string:
		return append([]string{}, v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

func setIf[T any](f repository.Fields, k string, o model.Optional[T]) {
	if v, ok := o.Get(); ok {
		f[k] = v
	}
}

// --- Review ---

// ReviewFromDocument converts a stored review. Missing "published" reads as true.
func ReviewFromDocument(d repository.Document) model.Review {
	return model.Review{
		ID:        d.ID,
		Name:      str(d.Fields, "name"),
		Rating:    num(d.Fields, "rating"),
		Comment:   str(d.Fields, "comment"),
		Published: boolOr(d.Fields, "published", true),
		CreatedAt: d.CreatedAt,
	}
}

// ReviewToFields returns the stored fields of a review (excluding id and created_at).
func ReviewToFields(r model.Review) repository.Fields {
	return repository.Fields{
		"name":      r.Name,
		"rating":    r.Rating,
		"comment":   r.Comment,
		"published": r.Published,
	}
}

// ReviewPatchFields returns only the fields present in p.
func ReviewPatchFields(p model.ReviewPatch) repository.Fields {
	f := repository.Fields{}
	setIf(f, "name", p.Name)
	setIf(f, "rating", p.Rating)
	setIf(f, "comment", p.Comment)
	setIf(f, "published", p.Published)
	return f
}

// ReviewFilterFields builds the equality filter of a review listing.
func ReviewFilterFields(fl model.ReviewFilter) repository.Fields {
	f := repository.Fields{}
	if fl.Published != nil {
		f["published"] = *fl.Published
	}
	return f
}

// ReviewStored is the full stored view of a review, keyed by stored names.
func ReviewStored(r model.Review) map[string]any {
	m := map[string]any(ReviewToFields(r))
	m[KeyID] = r.ID.String()
	m[KeyCreatedAt] = r.CreatedAt.UTC().Format(time.RFC3339Nano)
	return m
}

// --- Portfolio ---

// PortfolioFromDocument converts a stored portfolio item.
// Missing flags read as is_featured=false, is_active=true.
func PortfolioFromDocument(d repository.Document) model.PortfolioItem {
	return model.PortfolioItem{
		ID:          d.ID,
		Title:       str(d.Fields, "title"),
		Description: strPtr(d.Fields, "description"),
		Category:    strPtr(d.Fields, "category"),
		ImageURL:    strPtr(d.Fields, "image_url"),
		Link:        strPtr(d.Fields, "link"),
		Tags:        strs(d.Fields, "tags"),
		IsFeatured:  boolOr(d.Fields, "is_featured", false),
		IsActive:    boolOr(d.Fields, "is_active", true),
		CreatedAt:   d.CreatedAt,
	}
}

// PortfolioToFields returns the stored fields of an item. Nil optional
// strings are stored as JSON null.
func PortfolioToFields(p model.PortfolioItem) repository.Fields {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return repository.Fields{
		"title":       p.Title,
		"description": p.Description,
		"category":    p.Category,
		"image_url":   p.ImageURL,
		"link":        p.Link,
		"tags":        tags,
		"is_featured": p.IsFeatured,
		"is_active":   p.IsActive,
	}
}

// PortfolioPatchFields returns only the fields present in p.
func PortfolioPatchFields(p model.PortfolioPatch) repository.Fields {
	f := repository.Fields{}
	setIf(f, "title", p.Title)
	setIf(f, "description", p.Description)
	setIf(f, "category", p.Category)
	setIf(f, "image_url", p.ImageURL)
	setIf(f, "link", p.Link)
	if tags, ok := p.Tags.Get(); ok {
		if tags == nil {
			tags = []string{}
		}
		f["tags"] = tags
	}
	setIf(f, "is_featured", p.IsFeatured)
	setIf(f, "is_active", p.IsActive)
	return f
}

// PortfolioFilterFields builds the equality filter of a portfolio listing.
func PortfolioFilterFields(fl model.PortfolioFilter) repository.Fields {
	f := repository.Fields{}
	if fl.IsActive != nil {
		f["is_active"] = *fl.IsActive
	}
	if fl.IsFeatured != nil {
		f["is_featured"] = *fl.IsFeatured
	}
	return f
}

// PortfolioStored is the full stored view of an item, keyed by stored names.
func PortfolioStored(p model.PortfolioItem) map[string]any {
	m := map[string]any(PortfolioToFields(p))
	m[KeyID] = p.ID.String()
	m[KeyCreatedAt] = p.CreatedAt.UTC().Format(time.RFC3339Nano)
	return m
}

// --- Project ---

// ProjectFromDocument converts a stored project.
func ProjectFromDocument(d repository.Document) model.Project {
	return model.Project{
		ID:          d.ID,
		Name:        str(d.Fields, "name"),
		Description: strPtr(d.Fields, "description"),
	}
}

// ProjectStored is the full stored view of a project, keyed by stored names.
func ProjectStored(p model.Project) map[string]any {
	return map[string]any{
		KeyID:         p.ID.String(),
		"name":        p.Name,
		"description": p.Description,
	}
}
