package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"jobboard-engine/internal/domain"
)

const Version = "1.0"

var defaultTimeout = 10 * time.Second

// HTTPGateway implements Gateway against the REST job store.
type HTTPGateway struct {
	Base    string
	Tokens  TokenSource
	Client  *http.Client
	limiter *rate.Limiter
}

type HTTPOptions struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// NewHTTPGateway returns a gateway for base, e.g. "http://localhost:3000/api".
// A zero RequestsPerSecond disables client-side throttling.
func NewHTTPGateway(base string, tokens TokenSource, opts HTTPOptions) *HTTPGateway {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	lim := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		if opts.Burst <= 0 {
			opts.Burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst)
	}
	return &HTTPGateway{
		Base:    strings.TrimRight(base, "/"),
		Tokens:  tokens,
		Client:  &http.Client{Timeout: opts.Timeout},
		limiter: lim,
	}
}

type statusBody struct {
	Status   domain.Stage `json:"status"`
	Position *int         `json:"position,omitempty"`
}

func (g *HTTPGateway) ListJobs(ctx context.Context) ([]domain.Job, error) {
	var jobs []domain.Job
	if err := g.call(ctx, "list jobs", http.MethodGet, "/jobs", nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (g *HTTPGateway) CreateJob(ctx context.Context, in domain.JobInput) (domain.Job, error) {
	var j domain.Job
	if err := g.call(ctx, "create job", http.MethodPost, "/jobs", in, &j); err != nil {
		return domain.Job{}, err
	}
	if j.ID == "" {
		return domain.Job{}, &NetworkError{Op: "create job", Status: http.StatusOK, Err: fmt.Errorf("response has no id")}
	}
	return j, nil
}

func (g *HTTPGateway) UpdateJobStatus(ctx context.Context, id string, status domain.Stage, position *int) error {
	return g.call(ctx, "update status", http.MethodPatch, "/jobs/"+url.PathEscape(id)+"/status",
		statusBody{Status: status, Position: position}, nil)
}

func (g *HTTPGateway) UpdateJobFields(ctx context.Context, id string, patch domain.JobPatch) error {
	return g.call(ctx, "update fields", http.MethodPatch, "/jobs/"+url.PathEscape(id), patch.Fields(), nil)
}

func (g *HTTPGateway) DeleteJob(ctx context.Context, id string) error {
	return g.call(ctx, "delete job", http.MethodDelete, "/jobs/"+url.PathEscape(id), nil, nil)
}

func (g *HTTPGateway) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.Base+path, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "jobboard-engine/v"+Version)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	if g.Tokens != nil {
		tok, err := g.Tokens.Token()
		if err != nil {
			return nil, &AuthError{Message: err.Error()}
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	return req, nil
}

// call performs one request. 2xx bodies are decoded into v (unwrapping a
// {"data": ...} envelope); 401/403 become AuthError and everything else
// a NetworkError.
func (g *HTTPGateway) call(ctx context.Context, op, method, path string, body, v any) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	req, err := g.newRequest(ctx, method, path, body)
	if err != nil {
		if IsAuth(err) {
			return err
		}
		return &NetworkError{Op: op, Err: err}
	}
	debug := new(bytes.Buffer)
	if os.Getenv("DEBUG_HTTP_TRAFFIC") == "true" {
		if bits, err := httputil.DumpRequestOut(req, true); err == nil {
			debug.Write(bits)
		}
	}
	res, err := g.Client.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer res.Body.Close()
	if os.Getenv("DEBUG_HTTP_TRAFFIC") == "true" {
		if bits, err := httputil.DumpResponse(res, true); err == nil {
			debug.Write(bits)
		}
	}
	if debug.Len() > 0 {
		_, _ = debug.WriteTo(os.Stderr)
	}
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return &NetworkError{Op: op, Status: res.StatusCode, Err: err}
	}

	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		p := decodeProblem(resBody)
		msg := ""
		if p != nil {
			msg = p.Title
		}
		return &AuthError{Status: res.StatusCode, Message: msg}
	}
	if res.StatusCode >= 400 {
		p := decodeProblem(resBody)
		if p == nil {
			return &NetworkError{Op: op, Status: res.StatusCode, Err: fmt.Errorf("invalid response body: %q", truncate(resBody, 256))}
		}
		return &NetworkError{Op: op, Status: res.StatusCode, Problem: p}
	}
	if v == nil || len(bytes.TrimSpace(resBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(unwrapData(resBody), v); err != nil {
		return &NetworkError{Op: op, Status: res.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func decodeProblem(b []byte) *Problem {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	// some deployments nest the document: {"error": {...}}
	if inner, ok := raw["error"]; ok {
		var nested map[string]json.RawMessage
		if json.Unmarshal(inner, &nested) == nil {
			raw = nested
		} else {
			var msg string
			if json.Unmarshal(inner, &msg) == nil {
				return &Problem{Title: msg}
			}
		}
	}
	var p Problem
	for _, k := range []string{"title", "message"} {
		if v, ok := raw[k]; ok {
			_ = json.Unmarshal(v, &p.Title)
			break
		}
	}
	if p.Title == "" {
		return nil
	}
	for k, dst := range map[string]*string{"id": &p.ID, "code": &p.ID, "detail": &p.Detail, "instance": &p.Instance, "type": &p.Type} {
		if v, ok := raw[k]; ok && *dst == "" {
			_ = json.Unmarshal(v, dst)
		}
	}
	return &p
}

// unwrapData returns the "data" member of an envelope object, or b.
func unwrapData(b []byte) []byte {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return b
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return b
	}
	if d, ok := env["data"]; ok && len(env) <= 3 {
		if _, hasID := env["id"]; !hasID {
			return d
		}
	}
	return b
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
