package util

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

func LooksLikeJunkTitle(t string) bool {
	l := strings.ToLower(t)
	return strings.Contains(l, "view") || strings.Contains(l, "apply")
}

func FindLocation(doc *goquery.Document) string {
	candidates := []string{
		".location",
		".opening .location",
		".opening .location--small",
		".job__location",
		".app-title + .location", // some boards
		".posting-categories .location",
		"[data-automation-id='locations']",
		"[data-testid='job-location']",
		"[data-testid='location']",
	}

	for _, sel := range candidates {
		if t := CleanText(doc.Find(sel).First().Text()); t != "" {
			return NormalizeLocation(t)
		}
	}

	if v, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		if loc := ExtractLabeledText(v, LocationLabels...); loc != "" {
			return NormalizeLocation(loc)
		}
	}

	body := CleanText(doc.Find("body").Text())
	if loc := ExtractLabeledText(body, LocationLabels...); loc != "" {
		return NormalizeLocation(loc)
	}

	return ""
}

var (
	LocationLabels = []string{"job location:", "locations:", "location:", "lokasi:"}
	SalaryLabels   = []string{"salary range:", "salary:", "compensation:", "pay range:", "gaji:"}
)

// ExtractLabeledText returns the text after the first "Label:" found in s.
func ExtractLabeledText(s string, labels ...string) string {
	low := strings.ToLower(s)

	for _, lab := range labels {
		if i := strings.Index(low, lab); i >= 0 {
			// take a reasonable slice after the label
			start := i + len(lab)
			rest := strings.TrimSpace(s[start:])

			// stop at newline-ish boundaries if present
			for _, cut := range []string{"\n", "\r", " | ", " · ", ". "} {
				if j := strings.Index(rest, cut); j >= 0 {
					rest = rest[:j]
				}
			}

			rest = CleanText(rest)
			if len(rest) > 80 {
				rest = cutAtWord(rest, 80)
			}
			if rest != "" {
				return rest
			}
		}
	}
	return ""
}

func cutAtWord(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	if i := strings.LastIndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	return strings.TrimRight(s, ",;: ")
}
