// Package upload stores attached files on local disk and builds their public URLs.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Store persists one uploaded file and returns its public URL.
type Store interface {
	Save(ctx context.Context, filename string, body io.Reader) (string, error)
}

// ErrBadFilename is returned for names that reduce to nothing usable.
var ErrBadFilename = errors.New("upload: bad filename")

// Disk writes files into Dir under their base name; an existing file with
// the same name is overwritten.
type Disk struct {
	Dir     string // server-local directory, also mounted at Prefix
	BaseURL string // e.g. http://localhost:5000
	Prefix  string // URL path of the static mount, e.g. /uploads
}

// NewDisk constructs a disk store and makes sure dir exists.
func NewDisk(dir, baseURL, prefix string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload dir: %w", err)
	}
	return &Disk{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/"), Prefix: "/" + strings.Trim(prefix, "/")}, nil
}

// Save copies body to Dir/<base name> and returns the file's absolute URL.
func (d *Disk) Save(ctx context.Context, filename string, body io.Reader) (string, error) {
	name, err := CleanName(filename)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(d.Dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(dst, body); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return d.URL(name), nil
}

// URL returns the public URL of a stored file name.
func (d *Disk) URL(name string) string {
	return d.BaseURL + d.Prefix + "/" + url.PathEscape(name)
}

// CleanName strips directory components from a client-supplied filename.
func CleanName(filename string) (string, error) {
	name := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	switch name {
	case "", ".", "..", "/":
		return "", ErrBadFilename
	}
	return name, nil
}
