package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
)

var (
	ErrMissingKey = errors.New("authorization required")
	ErrInvalidKey = errors.New("invalid api key")
)

// Service checks requests against a single static service key.
type Service struct {
	key        []byte
	headerName string
	keyHeader  string
}

// NewService returns a service for key. An empty key disables the check.
func NewService(key string) *Service {
	return &Service{
		key:        []byte(strings.TrimSpace(key)),
		headerName: "Authorization",
		keyHeader:  "X-API-Key",
	}
}

// Enabled reports whether a key is configured.
func (s *Service) Enabled() bool {
	return len(s.key) > 0
}

// Validate compares presented against the configured key in constant time.
func (s *Service) Validate(presented string) error {
	if !s.Enabled() {
		return nil
	}
	if presented == "" {
		return ErrMissingKey
	}
	if subtle.ConstantTimeCompare([]byte(presented), s.key) != 1 {
		return ErrInvalidKey
	}
	return nil
}
