// Package credentials holds the bearer credential of the signed-in user.
package credentials

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/kbchat/internal/models"
)

// Fixed keys in the persistent key-value store.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// KV is the persistent key-value mechanism behind the store.
type KV interface {
	Get(key string) (string, bool)
	SetMany(values map[string]string) error
	Remove(keys ...string) error
}

// Store exclusively owns the credential. Consumers get read-only snapshots.
type Store struct {
	kv     KV
	logger *slog.Logger
}

// NewStore wraps kv. A nil logger uses slog.Default().
func NewStore(kv KV, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, logger: logger}
}

// Get returns the stored credential. Both keys must be present and the profile must decode.
func (s *Store) Get() (models.Credential, bool) {
	token, ok := s.kv.Get(KeyToken)
	if !ok || token == "" {
		return models.Credential{}, false
	}
	raw, ok := s.kv.Get(KeyUser)
	if !ok {
		return models.Credential{}, false
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.logger.Warn("stored user profile is unreadable", "error", err)
		return models.Credential{}, false
	}
	return models.Credential{Token: token, User: user}, true
}

// Token returns the bearer token, or "" when signed out.
func (s *Store) Token() string {
	cred, ok := s.Get()
	if !ok {
		return ""
	}
	return cred.Token
}

// Set replaces the stored credential.
func (s *Store) Set(cred models.Credential) error {
	if !cred.Valid() {
		return fmt.Errorf("set credential: empty token")
	}
	user, err := json.Marshal(cred.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.kv.SetMany(map[string]string{
		KeyToken: cred.Token,
		KeyUser:  string(user),
	}); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

// Clear removes the credential.
func (s *Store) Clear() error {
	if err := s.kv.Remove(KeyToken, KeyUser); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}
