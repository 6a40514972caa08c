package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/FocuswithJustin/JuniperTorah/core/errors"
	"github.com/FocuswithJustin/JuniperTorah/internal/validation"
)

// MaxDocumentSize bounds a single fetched document.
const MaxDocumentSize = 64 << 20

// Source retrieves raw documents by path relative to the data root.
// Missing documents are reported as *errors.NotFoundError.
type Source interface {
	Fetch(ctx context.Context, rel string) (body []byte, status int, err error)
	String() string
}

// HTTPSource reads documents over plain HTTP GET.
type HTTPSource struct {
	client *http.Client
	base   *url.URL
}

// NewHTTPSource builds a source for dataRoot (an http(s) URL) prefixed by
// the deployment basePath. For dataRoot "https://host/data" and basePath
// "/torah-v2/" documents are read from "https://host/torah-v2/data/".
func NewHTTPSource(dataRoot, basePath string, timeout time.Duration) (*HTTPSource, error) {
	u, err := url.Parse(dataRoot)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid data root URL %q", dataRoot)
	}

	segments := []string{}
	for _, p := range []string{basePath, u.Path} {
		if p = strings.Trim(p, "/"); p != "" {
			segments = append(segments, p)
		}
	}
	u.Path = "/"
	if len(segments) > 0 {
		u.Path = "/" + strings.Join(segments, "/") + "/"
	}
	u.RawQuery = ""
	u.Fragment = ""

	return &HTTPSource{
		client: &http.Client{Timeout: timeout},
		base:   u,
	}, nil
}

// URL returns the absolute URL of rel.
func (s *HTTPSource) URL(rel string) string {
	return s.base.ResolveReference(&url.URL{Path: rel}).String()
}

func (s *HTTPSource) String() string { return s.base.String() }

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context, rel string) ([]byte, int, error) {
	if err := validation.ValidateResourcePath(rel); err != nil {
		return nil, 0, &errors.ValidationError{Field: "path", Value: rel, Message: err.Error(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(rel), nil)
	if err != nil {
		return nil, 0, errors.NewIO("fetch", rel, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, errors.NewIO("fetch", rel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, resp.StatusCode, &errors.NotFoundError{Resource: "document", ID: rel, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentSize+1))
	if err != nil {
		return nil, resp.StatusCode, errors.NewIO("read", rel, err)
	}
	if len(body) > MaxDocumentSize {
		return nil, resp.StatusCode, errors.NewIO("read", rel, fmt.Errorf("document exceeds %d bytes", MaxDocumentSize))
	}
	return body, resp.StatusCode, nil
}

// DirSource reads documents from a local directory tree.
type DirSource struct {
	Root string
}

// NewDirSource returns a source rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{Root: dir}
}

func (s *DirSource) String() string { return s.Root }

// Fetch implements Source. The status is always 0.
func (s *DirSource) Fetch(ctx context.Context, rel string) ([]byte, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if err := validation.ValidateResourcePath(rel); err != nil {
		return nil, 0, &errors.ValidationError{Field: "path", Value: rel, Message: err.Error(), Err: err}
	}
	clean, err := validation.SanitizePath(s.Root, filepath.FromSlash(rel))
	if err != nil {
		return nil, 0, &errors.ValidationError{Field: "path", Value: rel, Message: err.Error(), Err: err}
	}

	data, err := os.ReadFile(filepath.Join(s.Root, clean))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, &errors.NotFoundError{Resource: "document", ID: rel, Err: err}
		}
		return nil, 0, errors.NewIO("read", rel, err)
	}
	return data, 0, nil
}

// NewSource picks an HTTPSource for URL data roots and a DirSource otherwise.
// basePath applies to URLs only.
func NewSource(dataRoot, basePath string, timeout time.Duration) (Source, error) {
	if strings.HasPrefix(dataRoot, "http://") || strings.HasPrefix(dataRoot, "https://") {
		return NewHTTPSource(dataRoot, basePath, timeout)
	}
	return NewDirSource(dataRoot), nil
}
