// Package scrape turns a job-posting page into a pre-filled job form.
package scrape

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobboard-engine/internal/domain"
	"jobboard-engine/internal/scrape/util"
)

// Prefill is what an import suggests for a new job. Nothing is saved
// until the user submits it through AddJob.
type Prefill struct {
	domain.JobInput
	// Source names the applicant tracking system or board, if recognised.
	Source string `json:"source,omitempty"`
}

// ParsePage extracts company, position, location, work type and salary
// from posting HTML. pageURL is used for the company fallback and is
// stored canonicalized as the job URL.
func ParsePage(r io.Reader, pageURL string) (Prefill, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Prefill{}, fmt.Errorf("parse html: %w", err)
	}
	var p Prefill
	var u *url.URL
	if pageURL != "" {
		u, _ = url.Parse(pageURL)
		p.URL = util.CanonicalURL(pageURL)
	}

	fromURL, source := companyFromURL(u)
	p.Source = source
	p.Company = firstNonEmpty(
		atsCompany(source, fromURL),
		meta(doc, `meta[property="og:site_name"]`),
		meta(doc, `meta[name="application-name"]`),
		util.CleanText(doc.Find(".company-name").First().Text()),
		fromURL,
	)
	p.Company = strings.TrimPrefix(p.Company, "at ")

	title := firstNonEmpty(
		util.CleanText(doc.Find(".posting-headline h2").First().Text()),
		util.CleanText(doc.Find(".app-title").First().Text()),
		h1(doc),
		meta(doc, `meta[property="og:title"]`),
		util.CleanText(doc.Find("title").First().Text()),
	)
	p.Position = stripCompany(title, p.Company)

	desc := meta(doc, `meta[property="og:description"]`)
	if desc == "" {
		desc = meta(doc, `meta[name="description"]`)
	}
	p.Location = util.FindLocation(doc)
	p.WorkType = util.InferWorkType(p.Location, p.Position, desc)

	body := util.CleanText(doc.Find("body").Text())
	p.Salary = firstNonEmpty(
		util.CleanText(doc.Find(".salary, [data-testid='salary'], .compensation").First().Text()),
		util.ExtractLabeledText(desc, util.SalaryLabels...),
		util.ExtractLabeledText(body, util.SalaryLabels...),
	)
	return p, nil
}

// atsCompany trusts the URL slug only for tracking systems, where the
// page's own site name is the vendor's.
func atsCompany(source, fromURL string) string {
	if source == "" {
		return ""
	}
	return fromURL
}

func h1(doc *goquery.Document) string {
	t := util.CleanText(doc.Find("h1").First().Text())
	if util.LooksLikeJunkTitle(t) {
		return ""
	}
	return t
}

func meta(doc *goquery.Document, sel string) string {
	v, _ := doc.Find(sel).First().Attr("content")
	return util.CleanText(v)
}

func firstNonEmpty(xs ...string) string {
	for _, x := range xs {
		if x != "" {
			return x
		}
	}
	return ""
}

// stripCompany removes "at Acme", "- Acme" or "| Acme" decorations from
// a page title.
func stripCompany(title, company string) string {
	if company == "" {
		return title
	}
	low := strings.ToLower(title)
	lc := strings.ToLower(company)
	for _, sep := range []string{" at ", " - ", " | ", " – ", " @ "} {
		if i := strings.LastIndex(low, sep+lc); i > 0 {
			return strings.TrimSpace(title[:i])
		}
	}
	if strings.HasPrefix(low, lc+" - ") || strings.HasPrefix(low, lc+" | ") {
		return strings.TrimSpace(title[len(company)+3:])
	}
	return title
}
