package secrets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type Notifier interface {
	Emit(reqID, typ string, data any)
}

// Manager owns the session on behalf of the engine: it hands the bearer
// token to the gateway and renews it when the remote store rejects it.
type Manager struct {
	Account string
	// BaseURL is the job store API; renewals post to BaseURL/auth/refresh.
	BaseURL string
	Client  *http.Client
	Notify  Notifier
	// EventType is emitted after a forced logout.
	EventType string

	mu   sync.Mutex
	sess *Session
	sf   singleflight.Group
}

func NewManager(account, baseURL string, notify Notifier) *Manager {
	return &Manager{
		Account:   account,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Client:    &http.Client{Timeout: 15 * time.Second},
		Notify:    notify,
		EventType: "session_expired",
	}
}

// Token returns the current bearer token, reading the keychain on first
// use.
func (m *Manager) Token() (string, error) {
	s, err := m.current()
	if err != nil {
		return "", err
	}
	return s.Token, nil
}

func (m *Manager) current() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess != nil {
		return *m.sess, nil
	}
	s, err := LoadSession(m.Account)
	if err != nil {
		return Session{}, err
	}
	m.sess = &s
	return s, nil
}

// Session reports the signed-in user, if any.
func (m *Manager) Session() (Session, bool) {
	s, err := m.current()
	return s, err == nil
}

// SetSession stores a session handed over by the sign-in screen.
func (m *Manager) SetSession(s Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if err := SaveSession(m.Account, s); err != nil {
		return err
	}
	m.mu.Lock()
	m.sess = &s
	m.mu.Unlock()
	return nil
}

// Logout forgets the session locally and in the keychain.
func (m *Manager) Logout() error {
	m.mu.Lock()
	m.sess = nil
	m.mu.Unlock()
	return DeleteSession(m.Account)
}

type refreshResponse struct {
	Data struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
		User         struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"user"`
	} `json:"data"`
}

// Renew trades the refresh token for a new session. Concurrent callers
// share one request.
func (m *Manager) Renew(ctx context.Context) error {
	_, err, _ := m.sf.Do("renew", func() (any, error) {
		return nil, m.renew(ctx)
	})
	return err
}

func (m *Manager) renew(ctx context.Context) error {
	cur, err := m.current()
	if err != nil {
		return err
	}
	if cur.RefreshToken == "" {
		return errors.New("session has no refresh token")
	}
	if m.BaseURL == "" {
		return errors.New("no auth endpoint configured")
	}

	body, _ := json.Marshal(map[string]string{"refreshToken": cur.RefreshToken})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+"/auth/refresh", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.Client.Do(req)
	if err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("refresh session: %s", resp.Status)
	}

	var rr refreshResponse
	if err := json.Unmarshal(b, &rr); err != nil {
		return fmt.Errorf("decode refresh response: %w", err)
	}
	if rr.Data.Token == "" {
		return errors.New("refresh response has no token")
	}
	next := cur
	next.Token = rr.Data.Token
	if rr.Data.RefreshToken != "" {
		next.RefreshToken = rr.Data.RefreshToken
	}
	if rr.Data.User.Name != "" {
		next.Name = rr.Data.User.Name
	}
	if rr.Data.User.Email != "" {
		next.Email = rr.Data.User.Email
	}
	return m.SetSession(next)
}

// HandleAuthError is the tracker's auth hook. It renews once; when that
// fails the session is dropped and listeners are told to sign in again.
func (m *Manager) HandleAuthError(cause error) {
	if _, ok := m.Session(); !ok {
		log.Printf("[auth] no session to renew, ignoring: %v", cause)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err := m.Renew(ctx)
	if err == nil {
		log.Printf("[auth] session renewed after: %v", cause)
		return
	}
	log.Printf("[auth] renewal failed, signing out: %v (cause: %v)", err, cause)
	if derr := m.Logout(); derr != nil {
		log.Printf("[auth] delete session: %v", derr)
	}
	if m.Notify != nil {
		m.Notify.Emit("", m.EventType, map[string]string{"reason": err.Error()})
	}
}
