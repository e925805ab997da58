// Package model defines domain entities used by services and repositories.
package model

import (
	"io"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Tokens is the result of a successful login.
type Tokens struct {
	AccessToken string
	TokenType   string    // always "bearer"
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// Admin is an administrator identity. It is the subject of issued tokens.
type Admin struct {
	ID           uuid.UUID // PK
	Username     string    // unique, case-sensitive
	PasswordHash string    // bcrypt
	IsSuperuser  bool
	CreatedAt    time.Time
}

// Review is a customer review. Rating is expected within 1.0–5.0 but not enforced.
type Review struct {
	ID        uuid.UUID
	Name      string
	Rating    float64
	Comment   string
	Published bool
	CreatedAt time.Time
}

// ReviewInput is a review submission. Nil pointers are absent fields.
type ReviewInput struct {
	Name      *string  `json:"name" validate:"required"`
	Rating    *float64 `json:"rating" validate:"required"`
	Comment   *string  `json:"comment" validate:"required"`
	Published *bool    `json:"published"`
}

// ReviewPatch is a partial update; only set fields are written.
type ReviewPatch struct {
	Name      Optional[string]
	Rating    Optional[float64]
	Comment   Optional[string]
	Published Optional[bool]
}

// Input converts a patch-shaped request body into a create input.
func (p ReviewPatch) Input() ReviewInput {
	return ReviewInput{
		Name:      p.Name.Ptr(),
		Rating:    p.Rating.Ptr(),
		Comment:   p.Comment.Ptr(),
		Published: p.Published.Ptr(),
	}
}

// ReviewFilter narrows a review listing.
type ReviewFilter struct {
	Published *bool
	Page      PageRequest
}

// PortfolioItem is a gallery entry managed by admins.
type PortfolioItem struct {
	ID          uuid.UUID
	Title       string
	Description *string
	Category    *string
	ImageURL    *string
	Link        *string
	Tags        []string
	IsFeatured  bool
	IsActive    bool
	CreatedAt   time.Time
}

// PortfolioInput creates a portfolio item.
type PortfolioInput struct {
	Title       *string  `json:"title" validate:"required"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	ImageURL    *string  `json:"image_url" validate:"omitempty,url"`
	Link        *string  `json:"link"`
	Tags        []string `json:"tags" validate:"dive,required"`
	IsFeatured  *bool    `json:"is_featured"`
	IsActive    *bool    `json:"is_active"`
}

// PortfolioPatch is a partial update of a portfolio item.
type PortfolioPatch struct {
	Title       Optional[string]
	Description Optional[string]
	Category    Optional[string]
	ImageURL    Optional[string]
	Link        Optional[string]
	Tags        Optional[[]string]
	IsFeatured  Optional[bool]
	IsActive    Optional[bool]
}

// Input converts a patch-shaped request body into a create input.
func (p PortfolioPatch) Input() PortfolioInput {
	tags, _ := p.Tags.Get()
	return PortfolioInput{
		Title:       p.Title.Ptr(),
		Description: p.Description.Ptr(),
		Category:    p.Category.Ptr(),
		ImageURL:    p.ImageURL.Ptr(),
		Link:        p.Link.Ptr(),
		Tags:        tags,
		IsFeatured:  p.IsFeatured.Ptr(),
		IsActive:    p.IsActive.Ptr(),
	}
}

// PortfolioFilter narrows a portfolio listing.
type PortfolioFilter struct {
	IsActive   *bool
	IsFeatured *bool
	Page       PageRequest
}

// Upload is a single attached file. Filename is the client-supplied name.
type Upload struct {
	Filename string
	Body     io.Reader
}

// Project is a read-only showcase entry.
type Project struct {
	ID          uuid.UUID
	Name        string
	Description *string
}

// PageRequest is offset/limit pagination input.
type PageRequest struct {
	Limit  int
	Offset int
}

// Page is one window of a listing plus the total number of matches.
type Page[T any] struct {
	Total  int64
	Limit  int
	Offset int
	Items  []T
}
