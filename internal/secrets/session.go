package secrets

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	// “Service” groups your app’s secrets in the OS keychain.
	KeyringService = "jobboard"
)

var ErrNoSession = errors.New("no stored session (sign in first)")

// Session is the signed-in user's credential pair.
type Session struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
	CreatedAt    time.Time `json:"createdAt"`
}

func LoadSession(keyringAccount string) (Session, error) {
	var s Session
	if strings.TrimSpace(keyringAccount) == "" {
		return s, errors.New("keyring account name is empty")
	}
	raw, err := keyring.Get(KeyringService, keyringAccount)
	if errors.Is(err, keyring.ErrNotFound) {
		return s, ErrNoSession
	}
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return s, fmt.Errorf("decode stored session: %w", err)
	}
	if strings.TrimSpace(s.Token) == "" {
		return s, ErrNoSession
	}
	return s, nil
}

func SaveSession(keyringAccount string, s Session) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(s.Token) == "" {
		return errors.New("token is empty")
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return keyring.Set(KeyringService, keyringAccount, string(b))
}

func DeleteSession(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	err := keyring.Delete(KeyringService, keyringAccount)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// KeyringAccount namespaces the configured account name.
func KeyringAccount(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "default"
	}
	return "jobboard:session:" + name
}
