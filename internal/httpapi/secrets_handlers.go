package httpapi

import (
	"net/http"
	"strings"
	"time"

	"jobboard-engine/internal/secrets"
)

// SessionHandler stores the credential pair the UI obtained at sign-in.
// Tokens go to the OS keychain and are never echoed back.
type SessionHandler struct {
	Sessions SessionStore
	Now      func() time.Time
}

func (h SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Sessions.Session()
	if !ok {
		writeJSON(w, sessionResp{})
		return
	}
	writeJSON(w, sessionResp{SignedIn: true, Name: s.Name, Email: s.Email})
}

func (h SessionHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req sessionReq
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		writeAPIError(w, r, http.StatusBadRequest, CodeValidation, "token", "is required")
		return
	}
	err := h.Sessions.SetSession(secrets.Session{
		Name:         req.Name,
		Email:        req.Email,
		Token:        req.Token,
		RefreshToken: req.RefreshToken,
		CreatedAt:    h.Now(),
	})
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, CodeInternal, "failed to store session: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Logout(); err != nil {
		WriteError(w, r, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
