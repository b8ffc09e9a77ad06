package scrape

import (
	"net"
	"net/url"
	"strings"
)

// atsHosts are posting hosts whose domain says nothing about the
// employer; the company comes from the first path segment or subdomain.
var atsHosts = []struct {
	suffix string
	name   string
	// tenantInHost means the company is the leftmost host label.
	tenantInHost bool
}{
	{"boards.greenhouse.io", "greenhouse", false},
	{"job-boards.greenhouse.io", "greenhouse", false},
	{"jobs.lever.co", "lever", false},
	{"jobs.smartrecruiters.com", "smartrecruiters", false},
	{"apply.workable.com", "workable", false},
	{"jobs.ashbyhq.com", "ashby", false},
	{"myworkdayjobs.com", "workday", true},
	{"bamboohr.com", "bamboohr", true},
}

// jobBoards aggregate many employers; neither host nor path names one.
var jobBoards = []string{
	"linkedin.com",
	"indeed.com",
	"glassdoor.com",
	"ziprecruiter.com",
	"jobstreet.co.id",
	"jobstreet.com",
	"glints.com",
	"kalibrr.com",
}

// companyFromURL derives an employer name and the posting source from a
// URL. source is "" for ordinary company sites.
func companyFromURL(u *url.URL) (company, source string) {
	if u == nil {
		return "", ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, b := range jobBoards {
		if host == b || strings.HasSuffix(host, "."+b) {
			return "", strings.SplitN(b, ".", 2)[0]
		}
	}
	for _, a := range atsHosts {
		if host != a.suffix && !strings.HasSuffix(host, "."+a.suffix) {
			continue
		}
		if a.tenantInHost {
			tenant := strings.SplitN(host, ".", 2)[0]
			return titleSlug(tenant), a.name
		}
		seg := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)[0]
		return titleSlug(seg), a.name
	}
	return companyFromHost(host), ""
}

// companyFromHost turns careers.acme.co.id into Acme.
func companyFromHost(host string) string {
	if host == "" || net.ParseIP(host) != nil {
		return ""
	}
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return titleSlug(host)
	}
	labels = labels[:len(labels)-1]
	for len(labels) > 1 && isSecondLevel(labels[len(labels)-1]) {
		labels = labels[:len(labels)-1]
	}
	return titleSlug(labels[len(labels)-1])
}

func isSecondLevel(l string) bool {
	switch l {
	case "co", "com", "ac", "or", "go", "net", "org":
		return true
	}
	return false
}

func titleSlug(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(strings.TrimSpace(s))
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
