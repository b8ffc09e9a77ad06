package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"jobboard-engine/internal/scrape/util"
)

const maxPageBytes = 2 << 20

type Importer struct {
	Client    *http.Client
	Limiter   *util.HostLimiter
	UserAgent string
}

func NewImporter(reqPerSec float64, burst int) *Importer {
	return &Importer{
		Client:    &http.Client{Timeout: 20 * time.Second},
		Limiter:   util.NewHostLimiter(reqPerSec, burst),
		UserAgent: "JobBoard/1.0 (+local)",
	}
}

// Page is a downloaded posting.
type Page struct {
	URL         string
	ContentType string
	Body        []byte
}

// FetchPage downloads a posting, waiting on the per-host limiter first.
func (im *Importer) FetchPage(ctx context.Context, raw string) (Page, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Page{}, fmt.Errorf("import: %q is not an http(s) URL", raw)
	}
	if err := im.Limiter.WaitURL(ctx, u.String()); err != nil {
		return Page{}, err
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	req.Header.Set("User-Agent", im.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	res, err := im.Client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("import get %s: %w", u.Host, err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return Page{}, fmt.Errorf("import %s: status %d", u.Host, res.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(res.Body, maxPageBytes))
	if err != nil {
		return Page{}, fmt.Errorf("import read %s: %w", u.Host, err)
	}
	final := u.String()
	if res.Request != nil && res.Request.URL != nil {
		final = res.Request.URL.String()
	}
	return Page{URL: final, ContentType: res.Header.Get("Content-Type"), Body: b}, nil
}

// Fetch downloads and parses a posting.
func (im *Importer) Fetch(ctx context.Context, raw string) (Prefill, error) {
	pg, err := im.FetchPage(ctx, raw)
	if err != nil {
		return Prefill{}, err
	}
	return ParsePage(bytes.NewReader(pg.Body), pg.URL)
}
