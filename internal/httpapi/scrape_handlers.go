package httpapi

import (
	"bytes"
	"database/sql"
	"log"
	"net/http"
	"strings"
	"time"

	"jobboard-engine/internal/scrape"
	"jobboard-engine/internal/store"
)

const pageCacheTTL = 24 * time.Hour

// ImportHandler turns a posting URL (or pasted HTML) into a pre-filled
// job form. It never changes tracker state.
type ImportHandler struct {
	Importer *scrape.Importer
	DB       *sql.DB
}

func (h ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req importReq
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" && req.HTML == "" {
		writeAPIError(w, r, http.StatusBadRequest, CodeValidation, "url", "url or html is required")
		return
	}

	body := []byte(req.HTML)
	pageURL := req.URL
	if len(body) == 0 {
		var err error
		body, pageURL, err = h.page(r, req.URL)
		if err != nil {
			WriteError(w, r, http.StatusBadGateway, CodeUpstream, err.Error())
			return
		}
	}

	p, err := scrape.ParsePage(bytes.NewReader(body), pageURL)
	if err != nil {
		WriteError(w, r, http.StatusUnprocessableEntity, CodeBadRequest, err.Error())
		return
	}

	if h.DB != nil && p.Source == "" && p.URL != "" {
		known, err := store.CompanyForDomain(r.Context(), h.DB, store.DomainOf(p.URL))
		if err != nil {
			log.Printf("[import] company lookup failed url=%s err=%v", p.URL, err)
		} else if known != "" {
			p.Company = known
		}
	}
	writeJSON(w, p)
}

// page returns posting HTML from the cache or the network.
func (h ImportHandler) page(r *http.Request, rawURL string) ([]byte, string, error) {
	ctx := r.Context()
	if h.DB != nil {
		if b, ok, err := store.CachedPage(ctx, h.DB, rawURL, pageCacheTTL); err != nil {
			log.Printf("[import] cache read failed url=%s err=%v", rawURL, err)
		} else if ok {
			return b, rawURL, nil
		}
	}

	pg, err := h.Importer.FetchPage(ctx, rawURL)
	if err != nil {
		return nil, "", err
	}
	if h.DB != nil {
		if err := store.CachePage(ctx, h.DB, rawURL, pg.ContentType, pg.Body); err != nil {
			log.Printf("[import] cache write failed url=%s err=%v", rawURL, err)
		}
	}
	return pg.Body, pg.URL, nil
}
