package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/and161185/wefixit/internal/convert"
	"github.com/and161185/wefixit/internal/errs"
	"github.com/and161185/wefixit/internal/model"
)

// imageField is the multipart part carrying an uploaded image.
const imageField = "image"

// input holds request fields keyed by stored name. Values come either from
// a JSON object or from form values; the wire alias wins over the stored
// name when a request carries both.
type input struct {
	table convert.FieldTable
	json  map[string]json.RawMessage
	form  url.Values
	errs  errs.ValidationError
}

func newJSONInput(table convert.FieldTable, body io.Reader) (*input, error) {
	raw := map[string]json.RawMessage{}
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		var mbe *http.MaxBytesError
		switch {
		case errors.As(err, &mbe):
			return nil, bodyError(err)
		case errors.Is(err, io.EOF):
			return nil, errs.Invalid("body", "field required")
		}
		return nil, errs.Invalid("body", "must be a JSON object")
	}
	in := &input{table: table, json: map[string]json.RawMessage{}}
	for _, k := range orderKeys(table, raw) {
		stored, _ := table.StoredName(k)
		in.json[stored] = raw[k]
	}
	return in, nil
}

func newFormInput(table convert.FieldTable, values url.Values) *input {
	in := &input{table: table, form: url.Values{}}
	for _, k := range orderKeys(table, values) {
		stored, _ := table.StoredName(k)
		in.form[stored] = values[k]
	}
	return in
}

// orderKeys returns the accepted keys of m with stored names before wire
// aliases, so that an alias overwrites its stored name. Unknown keys and
// server-assigned fields are dropped.
func orderKeys[V any](table convert.FieldTable, m map[string]V) []string {
	var stored, aliases []string
	for k := range m {
		name, ok := table.StoredName(k)
		if !ok || name == convert.KeyID || name == convert.KeyCreatedAt {
			continue
		}
		if k == name {
			stored = append(stored, k)
		} else {
			aliases = append(aliases, k)
		}
	}
	return append(stored, aliases...)
}

func (in *input) wire(stored string) string {
	if w, ok := in.table.WireName(stored); ok {
		return w
	}
	return stored
}

func (in *input) bad(stored, msg string) {
	in.errs.Add(in.wire(stored), msg)
}

// raw returns the JSON value or form values of a field.
func (in *input) raw(stored string) (json.RawMessage, []string, bool) {
	if in.json != nil {
		v, ok := in.json[stored]
		if ok && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			in.bad(stored, "must not be null")
			return nil, nil, false
		}
		return v, nil, ok
	}
	vs, ok := in.form[stored]
	return nil, vs, ok && len(vs) > 0
}

func (in *input) str(stored string) model.Optional[string] {
	j, vs, ok := in.raw(stored)
	if !ok {
		return model.Optional[string]{}
	}
	if j == nil {
		return model.Some(vs[0])
	}
	var s string
	if err := json.Unmarshal(j, &s); err != nil {
		in.bad(stored, "must be a string")
		return model.Optional[string]{}
	}
	return model.Some(s)
}

func (in *input) num(stored string) model.Optional[float64] {
	j, vs, ok := in.raw(stored)
	if !ok {
		return model.Optional[float64]{}
	}
	var f float64
	var err error
	if j == nil {
		f, err = strconv.ParseFloat(strings.TrimSpace(vs[0]), 64)
	} else {
		err = json.Unmarshal(j, &f)
	}
	if err != nil {
		in.bad(stored, "must be a number")
		return model.Optional[float64]{}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		in.bad(stored, "must be a finite number")
		return model.Optional[float64]{}
	}
	return model.Some(f)
}

func (in *input) boolean(stored string) model.Optional[bool] {
	j, vs, ok := in.raw(stored)
	if !ok {
		return model.Optional[bool]{}
	}
	var b bool
	var err error
	if j == nil {
		b, err = parseBool(vs[0])
	} else {
		err = json.Unmarshal(j, &b)
	}
	if err != nil {
		in.bad(stored, "must be a boolean")
		return model.Optional[bool]{}
	}
	return model.Some(b)
}

// strs reads a list. Form input takes repeated values; a single value is
// split on commas.
func (in *input) strs(stored string) model.Optional[[]string] {
	j, vs, ok := in.raw(stored)
	if !ok {
		return model.Optional[[]string]{}
	}
	if j != nil {
		var out []string
		if err := json.Unmarshal(j, &out); err != nil {
			in.bad(stored, "must be a list of strings")
			return model.Optional[[]string]{}
		}
		if out == nil {
			out = []string{}
		}
		return model.Some(out)
	}
	if len(vs) == 1 {
		vs = strings.Split(vs[0], ",")
	}
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return model.Some(out)
}

func (in *input) err() error {
	return in.errs.OrNil()
}

// parseBool accepts true/false, 1/0, yes/no and on/off in any case.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

func mediaType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}

// readInput decodes a JSON, urlencoded or multipart body. For multipart
// requests the attached image, if any, is returned alongside; the caller
// must close it.
func (s *Server) readInput(w http.ResponseWriter, r *http.Request, table convert.FieldTable) (*input, *model.Upload, io.Closer, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

	switch mediaType(r) {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(s.maxBody); err != nil {
			return nil, nil, nil, bodyError(err)
		}
		in := newFormInput(table, r.MultipartForm.Value)
		fhs := r.MultipartForm.File[imageField]
		if len(fhs) == 0 || fhs[0].Filename == "" {
			return in, nil, nil, nil
		}
		f, err := fhs[0].Open()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%w: open upload: %w", errs.ErrInternal, err)
		}
		return in, &model.Upload{Filename: fhs[0].Filename, Body: f}, f, nil
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, nil, nil, bodyError(err)
		}
		return newFormInput(table, r.PostForm), nil, nil, nil
	default:
		in, err := newJSONInput(table, r.Body)
		if err != nil {
			return nil, nil, nil, err
		}
		return in, nil, nil, nil
	}
}

func bodyError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return errs.Invalid("body", fmt.Sprintf("request body exceeds %d bytes", mbe.Limit))
	}
	return errs.Invalid("body", "malformed request body")
}
