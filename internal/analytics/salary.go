package analytics

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"jobboard-engine/internal/domain"
)

type Currency string

const (
	IDR Currency = "IDR"
	USD Currency = "USD"
)

// Salary is a parsed free-text salary. Amount is the largest token, so a
// range is represented by its upper bound.
type Salary struct {
	Currency Currency  `json:"currency"`
	Amount   float64   `json:"amount"`
	Tokens   []float64 `json:"tokens"`
}

var (
	salaryToken = regexp.MustCompile(`(?i)(\d[\d.,]*)\s?([a-z]*)`)

	magnitudes = map[string]float64{
		"k":    1e3,
		"rb":   1e3,
		"ribu": 1e3,
		"jt":   1e6,
		"juta": 1e6,
		"m":    1e6,
		"b":    1e9,
		"t":    1e12,
	}
)

// ParseSalary reads amounts like "Rp 15jt - 20jt", "$80k - $120k" or
// "IDR 10.000.000". A string mentioning USD or "$" is USD, anything else
// is IDR. It reports false when no positive amount is found.
func ParseSalary(s string) (Salary, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Salary{}, false
	}
	out := Salary{Currency: IDR}
	upper := strings.ToUpper(s)
	if strings.Contains(upper, "USD") || strings.Contains(upper, "$") {
		out.Currency = USD
	}
	for _, m := range salaryToken.FindAllStringSubmatch(s, -1) {
		mult, known := magnitudes[strings.ToLower(m[2])]
		if !known {
			mult = 1
		}
		n, ok := parseNumber(m[1], known)
		if !ok {
			continue
		}
		v := n * mult
		if v <= 0 || math.IsInf(v, 0) {
			continue
		}
		out.Tokens = append(out.Tokens, v)
		if v > out.Amount {
			out.Amount = v
		}
	}
	if len(out.Tokens) == 0 {
		return Salary{}, false
	}
	return out, true
}

// parseNumber resolves "." and "," as thousands or decimal separators.
// With both present the later one is the decimal point. A lone separator
// followed by exactly three digits groups thousands unless a magnitude
// suffix follows ("1.500" is 1500, "1.5jt" is 1.5).
func parseNumber(raw string, suffixed bool) (float64, bool) {
	raw = strings.TrimRight(raw, ".,")
	if raw == "" {
		return 0, false
	}
	dots := strings.Count(raw, ".")
	commas := strings.Count(raw, ",")
	var norm string
	switch {
	case dots > 0 && commas > 0:
		if strings.LastIndex(raw, ".") > strings.LastIndex(raw, ",") {
			norm = strings.ReplaceAll(raw, ",", "")
		} else {
			norm = strings.ReplaceAll(strings.ReplaceAll(raw, ".", ""), ",", ".")
		}
	case dots+commas == 0:
		norm = raw
	default:
		sep := "."
		if commas > 0 {
			sep = ","
		}
		frac := raw[strings.LastIndex(raw, sep)+1:]
		if dots+commas > 1 || (len(frac) == 3 && !suffixed) {
			norm = strings.ReplaceAll(raw, sep, "")
		} else {
			norm = strings.Replace(raw, sep, ".", 1)
		}
	}
	n, err := strconv.ParseFloat(norm, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

type SalaryStats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
}

type SalarySummary struct {
	IDR SalaryStats `json:"idr"`
	USD SalaryStats `json:"usd"`
}

func (s *SalarySummary) add(c Currency, v float64) {
	st := &s.IDR
	if c == USD {
		st = &s.USD
	}
	if st.Count == 0 || v < st.Min {
		st.Min = v
	}
	if v > st.Max {
		st.Max = v
	}
	st.Avg = (st.Avg*float64(st.Count) + v) / float64(st.Count+1)
	st.Count++
}

// Salaries aggregates representative amounts per currency. Jobs whose
// salary does not parse are skipped, not counted as zero.
func Salaries(jobs []domain.Job) SalarySummary {
	var sum SalarySummary
	for _, j := range jobs {
		if sal, ok := ParseSalary(j.Salary); ok {
			sum.add(sal.Currency, sal.Amount)
		}
	}
	return sum
}

type Lost struct {
	IDR float64 `json:"idr"`
	USD float64 `json:"usd"`
}

// OpportunityLost sums the representative salary of every job in a
// rejected-role stage.
func OpportunityLost(jobs []domain.Job, stages domain.StageSet) Lost {
	var l Lost
	for _, j := range jobs {
		if stages.RoleOf(j.Status) != domain.RoleRejected {
			continue
		}
		sal, ok := ParseSalary(j.Salary)
		if !ok {
			continue
		}
		if sal.Currency == USD {
			l.USD += sal.Amount
		} else {
			l.IDR += sal.Amount
		}
	}
	return l
}
