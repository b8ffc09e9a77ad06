package store

import (
	"context"
	"database/sql"
	"net/url"
	"strings"
	"time"
)

// CompanyForDomain returns the company name last saved for a job posted
// on domain, or "" if none.
func CompanyForDomain(ctx context.Context, db *sql.DB, domain string) (string, error) {
	domain = normalizeDomain(domain)
	if domain == "" {
		return "", nil
	}

	var company string
	err := db.QueryRowContext(ctx,
		`SELECT company FROM company_domains WHERE domain = ? LIMIT 1;`,
		domain,
	).Scan(&company)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(company), nil
}

// RememberCompany records which company a posting URL belongs to so the
// next import from the same host is pre-filled with it.
func RememberCompany(ctx context.Context, db *sql.DB, company, rawURL string) error {
	company = strings.Join(strings.Fields(company), " ")
	domain := DomainOf(rawURL)
	if company == "" || domain == "" {
		return nil
	}

	_, err := db.ExecContext(ctx, `
INSERT INTO company_domains(domain, company, fetched_at)
VALUES(?,?,?)
ON CONFLICT(domain) DO UPDATE SET
  company = excluded.company,
  fetched_at = excluded.fetched_at;
`, domain, company, time.Now().UTC().Format(time.RFC3339))

	return err
}

// DomainOf extracts the normalized host of a URL.
func DomainOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return normalizeDomain(u.Hostname())
}

func normalizeDomain(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "www.")
	return strings.Trim(s, "./")
}
