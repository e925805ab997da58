package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/wefixit/internal/repository/memory"
	"github.com/and161185/wefixit/internal/service"
	"github.com/and161185/wefixit/internal/token"
	"github.com/and161185/wefixit/internal/upload"
)

const (
	testUser = "admin"
	testPass = "admin123"
)

type harness struct {
	t        *testing.T
	srv      *httptest.Server
	admins   *memory.Admins
	projects *memory.Collection
	dir      string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	admins := memory.NewAdmins()
	tm, err := token.NewManager([]byte("test-secret"), "HS256", time.Hour)
	require.NoError(t, err)
	auth := service.NewAuthService(admins, tm)
	_, err = auth.Bootstrap(ctx, testUser, testPass)
	require.NoError(t, err)

	dir := t.TempDir()
	files, err := upload.NewDisk(dir, "http://files.test", "/uploads")
	require.NoError(t, err)

	projects := memory.NewCollection()
	s := New(zaptest.NewLogger(t), auth,
		service.NewReviewService(memory.NewCollection()),
		service.NewPortfolioService(memory.NewCollection(), files),
		service.NewProjectService(projects),
		Options{Name: "WeFixIt API", UploadDir: dir, MaxBody: 1 << 20},
	)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &harness{t: t, srv: srv, admins: admins, projects: projects, dir: dir}
}

func (h *harness) do(method, path, token, contentType string, body io.Reader) (int, http.Header, []byte) {
	h.t.Helper()
	req, err := http.NewRequest(method, h.srv.URL+path, body)
	require.NoError(h.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.srv.Client().Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return resp.StatusCode, resp.Header, b
}

func (h *harness) json(method, path, token string, v any) (int, []byte) {
	h.t.Helper()
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		require.NoError(h.t, err)
		body = bytes.NewReader(b)
	}
	code, _, out := h.do(method, path, token, "application/json", body)
	return code, out
}

func (h *harness) form(method, path, token string, vals url.Values) (int, []byte) {
	h.t.Helper()
	code, _, out := h.do(method, path, token, "application/x-www-form-urlencoded", strings.NewReader(vals.Encode()))
	return code, out
}

// multipart sends vals and, when fileName is set, one image part.
func (h *harness) multipart(method, path, token string, vals url.Values, fileName, fileBody string) (int, []byte) {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range vals {
		for _, v := range vs {
			require.NoError(h.t, mw.WriteField(k, v))
		}
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("image", fileName)
		require.NoError(h.t, err)
		_, err = io.WriteString(fw, fileBody)
		require.NoError(h.t, err)
	}
	require.NoError(h.t, mw.Close())
	code, _, out := h.do(method, path, token, mw.FormDataContentType(), &buf)
	return code, out
}

func (h *harness) login() string {
	h.t.Helper()
	code, body := h.form(http.MethodPost, "/api/v1/auth/login", "", url.Values{"username": {testUser}, "password": {testPass}})
	require.Equal(h.t, http.StatusOK, code, string(body))
	var out map[string]string
	require.NoError(h.t, json.Unmarshal(body, &out))
	require.Equal(h.t, "bearer", out["token_type"])
	require.NotEmpty(h.t, out["access_token"])
	return out["access_token"]
}

func decodeMap(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m), string(b))
	return m
}

func decodeList(t *testing.T, b []byte) []map[string]any {
	t.Helper()
	var l []map[string]any
	require.NoError(t, json.Unmarshal(b, &l), string(b))
	return l
}

func stringsReader(s string) io.Reader { return strings.NewReader(s) }

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
