package httpserver

import (
	"github.com/and161185/wefixit/internal/convert"
	"github.com/and161185/wefixit/internal/model"
)

type tokenOut struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type adminOut struct {
	ID          string `json:"_id"`
	Username    string `json:"username"`
	IsSuperuser bool   `json:"is_superuser"`
}

type portfolioPageOut struct {
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
	Items  []map[string]any `json:"items"`
}

type messageOut struct {
	Message string `json:"message"`
}

func reviewOut(r model.Review) map[string]any {
	return convert.ReviewFields.ToWire(convert.ReviewStored(r))
}

func portfolioOut(p model.PortfolioItem) map[string]any {
	return convert.PortfolioFields.ToWire(convert.PortfolioStored(p))
}

func projectOut(p model.Project) map[string]any {
	return convert.ProjectFields.ToWire(convert.ProjectStored(p))
}

func reviewPatch(in *input) model.ReviewPatch {
	return model.ReviewPatch{
		Name:      in.str("name"),
		Rating:    in.num("rating"),
		Comment:   in.str("comment"),
		Published: in.boolean("published"),
	}
}

func portfolioPatch(in *input) model.PortfolioPatch {
	return model.PortfolioPatch{
		Title:       in.str("title"),
		Description: in.str("description"),
		Category:    in.str("category"),
		ImageURL:    in.str("image_url"),
		Link:        in.str("link"),
		Tags:        in.strs("tags"),
		IsFeatured:  in.boolean("is_featured"),
		IsActive:    in.boolean("is_active"),
	}
}
