package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/and161185/wefixit/internal/convert"
	"github.com/and161185/wefixit/internal/errs"
	"github.com/and161185/wefixit/internal/model"
	"github.com/and161185/wefixit/internal/service"
)

// --- Auth ---

// login accepts form-encoded username and password and returns a bearer token.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := r.ParseForm(); err != nil {
		s.writeError(w, r, bodyError(err), "", nil)
		return
	}
	username, password := r.PostForm.Get("username"), r.PostForm.Get("password")
	ve := &errs.ValidationError{}
	if username == "" {
		ve.Add("username", "field required")
	}
	if password == "" {
		ve.Add("password", "field required")
	}
	if err := ve.OrNil(); err != nil {
		s.writeError(w, r, err, "", nil)
		return
	}

	tok, err := s.auth.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			writeDetail(w, http.StatusUnauthorized, msgBadLogin)
			return
		}
		s.writeError(w, r, err, "", nil)
		return
	}
	writeJSON(w, http.StatusOK, tokenOut{AccessToken: tok.AccessToken, TokenType: tok.TokenType})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	a, ok := AdminFromCtx(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, msgNotAuthenticated)
		return
	}
	writeJSON(w, http.StatusOK, adminOut{ID: a.ID.String(), Username: a.Username, IsSuperuser: a.IsSuperuser})
}

// --- Reviews ---

func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ve := &errs.ValidationError{}
	f := model.ReviewFilter{
		Published: queryBool(q.Get("published"), "published", ve),
		Page:      queryPage(q.Get("limit"), q.Get("offset"), service.DefaultReviewLimit, ve),
	}
	if err := ve.OrNil(); err != nil {
		s.writeError(w, r, err, "", nil)
		return
	}

	items, err := s.reviews.List(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err, msgReviewNotFound, convert.ReviewFields)
		return
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		out = append(out, reviewOut(it))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createReview(w http.ResponseWriter, r *http.Request) {
	in, _, closer, err := s.readInput(w, r, convert.ReviewFields)
	if err != nil {
		s.writeError(w, r, err, "", convert.ReviewFields)
		return
	}
	defer closeQuietly(closer)
	p := reviewPatch(in)
	if err := in.err(); err != nil {
		s.writeError(w, r, err, "", convert.ReviewFields)
		return
	}

	rv, err := s.reviews.Create(r.Context(), p.Input())
	if err != nil {
		s.writeError(w, r, err, msgReviewNotFound, convert.ReviewFields)
		return
	}
	writeJSON(w, http.StatusOK, reviewOut(rv))
}

func (s *Server) getReview(w http.ResponseWriter, r *http.Request) {
	rv, err := s.reviews.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err, msgReviewNotFound, convert.ReviewFields)
		return
	}
	writeJSON(w, http.StatusOK, reviewOut(rv))
}

func (s *Server) updateReview(w http.ResponseWriter, r *http.Request) {
	in, _, closer, err := s.readInput(w, r, convert.ReviewFields)
	if err != nil {
		s.writeError(w, r, err, "", convert.ReviewFields)
		return
	}
	defer closeQuietly(closer)
	p := reviewPatch(in)
	if err := in.err(); err != nil {
		s.writeError(w, r, err, "", convert.ReviewFields)
		return
	}

	rv, err := s.reviews.Update(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		s.writeError(w, r, err, msgReviewNotFound, convert.ReviewFields)
		return
	}
	writeJSON(w, http.StatusOK, reviewOut(rv))
}

func (s *Server) deleteReview(w http.ResponseWriter, r *http.Request) {
	if err := s.reviews.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err, msgReviewNotFound, convert.ReviewFields)
		return
	}
	writeJSON(w, http.StatusOK, messageOut{Message: "Review deleted successfully"})
}

// --- Portfolio ---

func (s *Server) listPortfolio(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ve := &errs.ValidationError{}
	f := model.PortfolioFilter{
		IsActive:   queryBool(q.Get("is_active"), "is_active", ve),
		IsFeatured: queryBool(q.Get("is_featured"), "is_featured", ve),
		Page:       queryPage(q.Get("limit"), q.Get("offset"), service.DefaultPortfolioLimit, ve),
	}
	if err := ve.OrNil(); err != nil {
		s.writeError(w, r, err, "", nil)
		return
	}

	page, err := s.portfolio.List(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err, msgItemNotFound, convert.PortfolioFields)
		return
	}
	out := portfolioPageOut{
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
		Items:  make([]map[string]any, 0, len(page.Items)),
	}
	for _, it := range page.Items {
		out.Items = append(out.Items, portfolioOut(it))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getPortfolio(w http.ResponseWriter, r *http.Request) {
	p, err := s.portfolio.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err, msgItemNotFound, convert.PortfolioFields)
		return
	}
	writeJSON(w, http.StatusOK, portfolioOut(p))
}

func (s *Server) createPortfolio(w http.ResponseWriter, r *http.Request) {
	in, file, closer, err := s.readInput(w, r, convert.PortfolioFields)
	if err != nil {
		s.writeError(w, r, err, "", convert.PortfolioFields)
		return
	}
	defer closeQuietly(closer)
	p := portfolioPatch(in)
	if err := in.err(); err != nil {
		s.writeError(w, r, err, "", convert.PortfolioFields)
		return
	}

	item, err := s.portfolio.Create(r.Context(), p.Input(), file)
	if err != nil {
		s.writeError(w, r, err, msgItemNotFound, convert.PortfolioFields)
		return
	}
	writeJSON(w, http.StatusOK, portfolioOut(item))
}

func (s *Server) updatePortfolio(w http.ResponseWriter, r *http.Request) {
	in, file, closer, err := s.readInput(w, r, convert.PortfolioFields)
	if err != nil {
		s.writeError(w, r, err, "", convert.PortfolioFields)
		return
	}
	defer closeQuietly(closer)
	p := portfolioPatch(in)
	if err := in.err(); err != nil {
		s.writeError(w, r, err, "", convert.PortfolioFields)
		return
	}

	item, err := s.portfolio.Update(r.Context(), chi.URLParam(r, "id"), p, file)
	if err != nil {
		s.writeError(w, r, err, msgItemNotFound, convert.PortfolioFields)
		return
	}
	writeJSON(w, http.StatusOK, portfolioOut(item))
}

func (s *Server) deletePortfolio(w http.ResponseWriter, r *http.Request) {
	if err := s.portfolio.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err, msgItemNotFound, convert.PortfolioFields)
		return
	}
	writeJSON(w, http.StatusOK, messageOut{Message: "Portfolio item deleted successfully"})
}

// --- Projects ---

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	ps, err := s.projects.List(r.Context())
	if err != nil {
		s.writeError(w, r, err, "", convert.ProjectFields)
		return
	}
	out := make([]map[string]any, 0, len(ps))
	for _, p := range ps {
		out = append(out, projectOut(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// --- Query helpers ---

func queryBool(raw, field string, ve *errs.ValidationError) *bool {
	if raw == "" {
		return nil
	}
	b, err := parseBool(raw)
	if err != nil {
		ve.Add(field, "must be a boolean")
		return nil
	}
	return &b
}

// queryPage parses limit and offset. Range checks are left to the services.
func queryPage(limit, offset string, defLimit int, ve *errs.ValidationError) model.PageRequest {
	p := model.PageRequest{Limit: defLimit}
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			ve.Add("limit", "must be an integer")
		}
		p.Limit = n
	}
	if offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil {
			ve.Add("offset", "must be an integer")
		}
		p.Offset = n
	}
	return p
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
