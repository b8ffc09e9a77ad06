package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"strings"
	"time"
)

// MaxPageBytes caps a cached page (protect DB).
const MaxPageBytes = 2 << 20

func PageKey(u string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(u)))
	return hex.EncodeToString(h[:])
}

// CachedPage returns a page body fetched within maxAge.
func CachedPage(ctx context.Context, db *sql.DB, rawURL string, maxAge time.Duration) ([]byte, bool, error) {
	var body []byte
	var fetched string
	err := db.QueryRowContext(ctx,
		`SELECT bytes, fetched_at FROM pages WHERE key = ? LIMIT 1;`, PageKey(rawURL),
	).Scan(&body, &fetched)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	at, err := time.Parse(time.RFC3339, fetched)
	if err != nil || time.Since(at) > maxAge {
		return nil, false, nil
	}
	return body, true, nil
}

// CachePage stores an HTML page body. Oversized or non-HTML bodies are
// skipped.
func CachePage(ctx context.Context, db *sql.DB, rawURL, contentType string, body []byte) error {
	if len(body) == 0 || len(body) > MaxPageBytes {
		return nil
	}
	if ct := strings.ToLower(contentType); ct != "" && !strings.Contains(ct, "html") {
		return nil
	}
	_, err := db.ExecContext(ctx, `
INSERT OR REPLACE INTO pages(key, url, content_type, bytes, fetched_at)
VALUES(?,?,?,?,?);`,
		PageKey(rawURL),
		strings.TrimSpace(rawURL),
		contentType,
		body,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}
