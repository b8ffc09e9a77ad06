package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"jobboard-engine/internal/domain"
	"jobboard-engine/internal/test"
)

const greenhousePage = `<html><head>
<title>Job Application for Senior Go Engineer at Acme Labs</title>
<meta property="og:site_name" content="Greenhouse">
</head><body>
<h1 class="app-title">Senior Go Engineer</h1>
<div class="location">Jakarta, Indonesia (Hybrid)</div>
<div id="content">We build things.</div>
</body></html>`

func TestParseGreenhousePosting(t *testing.T) {
	t.Parallel()

	p, err := ParsePage(strings.NewReader(greenhousePage), "https://boards.greenhouse.io/acme-labs/jobs/123?gh_src=abc#app")
	test.AssertNotError(t, err, "parse")
	test.AssertEquals(t, p.Company, "Acme Labs")
	test.AssertEquals(t, p.Source, "greenhouse")
	test.AssertEquals(t, p.Position, "Senior Go Engineer")
	test.AssertEquals(t, p.Location, "Jakarta, Indonesia (Hybrid)")
	test.AssertEquals(t, p.WorkType, domain.WorkHybrid)
	test.AssertEquals(t, p.URL, "https://boards.greenhouse.io/acme-labs/jobs/123")
}

func TestParseCompanySite(t *testing.T) {
	t.Parallel()

	page := `<html><head>
<meta property="og:site_name" content="Acme Corp">
<meta property="og:title" content="Backend Engineer - Acme Corp">
<meta property="og:description" content="Fully remote role. Salary: Rp 15jt - 20jt per month">
</head><body><p>Join us</p></body></html>`

	p, err := ParsePage(strings.NewReader(page), "https://careers.acme.co.id/jobs/42")
	test.AssertNotError(t, err, "parse")
	test.AssertEquals(t, p.Company, "Acme Corp")
	test.AssertEquals(t, p.Source, "")
	test.AssertEquals(t, p.Position, "Backend Engineer")
	test.AssertEquals(t, p.Salary, "Rp 15jt - 20jt per month")
	test.AssertEquals(t, p.WorkType, domain.WorkRemote)
	test.AssertEquals(t, p.Location, "")
}

func TestParseFallsBackToHostAndTitle(t *testing.T) {
	t.Parallel()

	page := `<html><head><title>Product Designer</title></head>
<body><h1>Apply now</h1><span class="salary">$90k - $110k</span></body></html>`

	p, err := ParsePage(strings.NewReader(page), "https://www.acme.com/careers/designer")
	test.AssertNotError(t, err, "parse")
	test.AssertEquals(t, p.Company, "Acme")
	test.AssertEquals(t, p.Position, "Product Designer")
	test.AssertEquals(t, p.Salary, "$90k - $110k")
	test.AssertEquals(t, p.WorkType, domain.WorkType(""))
}

func TestCompanyFromURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw, company, source string
	}{
		{"https://jobs.lever.co/brightwave/abc-123", "Brightwave", "lever"},
		{"https://acme.wd5.myworkdayjobs.com/en-US/careers/job/1", "Acme", "workday"},
		{"https://www.linkedin.com/jobs/view/99", "", "linkedin"},
		{"https://id.jobstreet.com/job/77", "", "jobstreet"},
		{"https://careers.tokopedia.com/jobs/1", "Tokopedia", ""},
		{"https://karir.bank-nusantara.co.id/lowongan", "Bank Nusantara", ""},
		{"http://127.0.0.1:8080/job", "", ""},
	}
	for _, c := range cases {
		u, err := url.Parse(c.raw)
		test.AssertNotError(t, err, c.raw)
		company, source := companyFromURL(u)
		test.AssertEquals(t, company, c.company)
		test.AssertEquals(t, source, c.source)
	}
}

func TestStripCompany(t *testing.T) {
	t.Parallel()

	test.AssertEquals(t, stripCompany("Data Analyst at Acme", "Acme"), "Data Analyst")
	test.AssertEquals(t, stripCompany("Data Analyst | ACME", "Acme"), "Data Analyst")
	test.AssertEquals(t, stripCompany("Acme - Data Analyst", "Acme"), "Data Analyst")
	test.AssertEquals(t, stripCompany("Data Analyst", ""), "Data Analyst")
	test.AssertEquals(t, stripCompany("Acme", "Acme"), "Acme")
}

func TestImporterFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jobs/1" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("User-Agent") == "" {
			http.Error(w, "no user agent", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head><meta property="og:site_name" content="Globex">
<title>QA Engineer at Globex</title></head><body>
<div class="location">Remote</div></body></html>`))
	}))
	defer srv.Close()

	im := NewImporter(100, 5)
	p, err := im.Fetch(context.Background(), srv.URL+"/jobs/1")
	test.AssertNotError(t, err, "fetch")
	test.AssertEquals(t, p.Company, "Globex")
	test.AssertEquals(t, p.Position, "QA Engineer")
	test.AssertEquals(t, p.Location, "Remote")
	test.AssertEquals(t, p.WorkType, domain.WorkRemote)
	test.AssertEquals(t, p.URL, srv.URL+"/jobs/1")
	test.AssertEquals(t, im.Limiter.Hosts(), 1)

	_, err = im.Fetch(context.Background(), srv.URL+"/missing")
	test.AssertError(t, err, "404 is an error")
	test.AssertContains(t, err.Error(), "404")

	_, err = im.Fetch(context.Background(), "ftp://example.com/job")
	test.AssertError(t, err, "non-http URL rejected")
}
