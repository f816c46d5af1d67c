package keys

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// DefaultAccount is the keyring account holding the GitHub API token.
const DefaultAccount = "github"

// TokenStore provides access to stored API tokens.
type TokenStore interface {
	Get(account string) (string, error)
	Put(account, token string) error
	Delete(account string) error
}

var ErrTokenNotFound = errors.New("token not found")

// ConfigStore keeps tokens in memory, keyed by account. It backs tests and
// hosts without a keyring.
type ConfigStore struct {
	Tokens map[string]string
}

func (s *ConfigStore) Get(account string) (string, error) {
	if s == nil || s.Tokens == nil {
		return "", ErrTokenNotFound
	}
	val, ok := s.Tokens[account]
	if !ok || val == "" {
		return "", ErrTokenNotFound
	}
	return val, nil
}

func (s *ConfigStore) Put(account, token string) error {
	if s.Tokens == nil {
		s.Tokens = map[string]string{}
	}
	s.Tokens[account] = token
	return nil
}

func (s *ConfigStore) Delete(account string) error {
	if s == nil || s.Tokens == nil {
		return nil
	}
	delete(s.Tokens, account)
	return nil
}

// ResolveToken returns github.token from config or env, falling back to the
// store. An empty result means requests go out unauthenticated.
func ResolveToken(v *viper.Viper, store TokenStore) string {
	if tok := strings.TrimSpace(v.GetString("github.token")); tok != "" {
		return tok
	}
	if store == nil {
		return ""
	}
	tok, err := store.Get(DefaultAccount)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(tok)
}
