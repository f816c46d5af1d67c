package keys

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const DefaultKeyringService = "changelog"

// KeyringStore keeps tokens in the system keyring.
type KeyringStore struct {
	Service string
}

func (s *KeyringStore) Get(account string) (string, error) {
	val, err := keyring.Get(s.service(), account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrTokenNotFound
		}
		return "", err
	}
	return val, nil
}

func (s *KeyringStore) Put(account, token string) error {
	return keyring.Set(s.service(), account, token)
}

func (s *KeyringStore) Delete(account string) error {
	err := keyring.Delete(s.service(), account)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

func (s *KeyringStore) service() string {
	if s != nil && s.Service != "" {
		return s.Service
	}
	return DefaultKeyringService
}
