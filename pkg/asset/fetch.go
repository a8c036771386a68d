package asset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/philipparndt/arview/pkg/scene"
)

// ResolveURL resolves p against the directory of the page at base. Absolute
// URLs are returned unchanged.
func ResolveURL(base, p string) (string, error) {
	ref, err := url.Parse(p)
	if err != nil {
		return "", fmt.Errorf("parse asset path %q: %w", p, err)
	}
	if base == "" || ref.IsAbs() {
		return ref.String(), nil
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base %q: %w", base, err)
	}
	if i := strings.LastIndex(baseURL.Path, "/"); i >= 0 {
		baseURL.Path = baseURL.Path[:i+1]
	}
	baseURL.RawQuery = ""
	baseURL.Fragment = ""
	return baseURL.ResolveReference(ref).String(), nil
}

// Prober checks whether an asset is reachable
type Prober struct {
	Client *http.Client
}

// NewProber creates a prober using client, or http.DefaultClient when nil
func NewProber(client *http.Client) *Prober {
	if client == nil {
		client = http.DefaultClient
	}
	return &Prober{Client: client}
}

// Exists sends HEAD. Servers that refuse HEAD with 403 or 405 get a one-byte
// ranged GET; a transport error falls back to a plain GET.
func (p *Prober) Exists(ctx context.Context, rawURL string) bool {
	status, err := p.do(ctx, http.MethodHead, rawURL, "")
	if err != nil {
		status, err = p.do(ctx, http.MethodGet, rawURL, "")
		return err == nil && ok(status)
	}
	if ok(status) {
		return true
	}
	if status == http.StatusMethodNotAllowed || status == http.StatusForbidden {
		status, err = p.do(ctx, http.MethodGet, rawURL, "bytes=0-0")
		return err == nil && ok(status)
	}
	return false
}

func (p *Prober) do(ctx context.Context, method, rawURL, byteRange string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, err
	}
	if byteRange != "" {
		req.Header.Set("Range", byteRange)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

func ok(status int) bool {
	return status >= 200 && status < 300
}

// Loader fetches assets over HTTP or from the local filesystem and decodes
// them. It implements scene.Loader.
type Loader struct {
	Client *http.Client
}

// NewLoader creates a loader using client, or http.DefaultClient when nil
func NewLoader(client *http.Client) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{Client: client}
}

// Load fetches and decodes the asset at location
func (l *Loader) Load(ctx context.Context, location string) (*scene.Payload, error) {
	data, err := l.fetch(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", scene.ErrAssetLoad, err)
	}
	p, err := Decode(location, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", scene.ErrAssetLoad, err)
	}
	return p, nil
}

func (l *Loader) fetch(ctx context.Context, location string) ([]byte, error) {
	u, err := url.Parse(location)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return l.fetchHTTP(ctx, location)
	}

	filename := location
	if err == nil && u.Scheme == "file" {
		filename = u.Path
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(filename)
}

func (l *Loader) fetchHTTP(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !ok(resp.StatusCode) {
		return nil, fmt.Errorf("fetch %s: HTTP %d", location, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
