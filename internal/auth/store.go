package auth

import (
	"fmt"
	"sync"

	"github.com/waabox/sitedeck/internal/config"
)

// Tokens is the persisted session.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	Email        string
}

// TokenStore persists the session between runs.
type TokenStore interface {
	Load() (Tokens, error)
	Save(Tokens) error
	Clear() error
}

// ConfigStore keeps tokens in the [auth] section of the TOML config file.
type ConfigStore struct {
	mu   sync.Mutex
	cfg  *config.Config
	path string
}

// NewConfigStore creates a ConfigStore. An empty path keeps tokens in memory only.
func NewConfigStore(cfg *config.Config, path string) *ConfigStore {
	return &ConfigStore{cfg: cfg, path: path}
}

func (s *ConfigStore) Load() (Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Tokens{
		AccessToken:  s.cfg.Auth.Token,
		RefreshToken: s.cfg.Auth.RefreshToken,
		IDToken:      s.cfg.Auth.IDToken,
		Email:        s.cfg.Auth.Email,
	}, nil
}

func (s *ConfigStore) Save(t Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Auth.Token = t.AccessToken
	s.cfg.Auth.RefreshToken = t.RefreshToken
	s.cfg.Auth.IDToken = t.IDToken
	s.cfg.Auth.Email = t.Email
	return s.persist()
}

func (s *ConfigStore) Clear() error {
	return s.Save(Tokens{})
}

// persist writes the session fields into the file as it is on disk, so
// environment overrides merged into s.cfg are never saved.
func (s *ConfigStore) persist() error {
	if s.path == "" {
		return nil
	}
	onDisk, err := config.LoadFile(s.path)
	if err != nil {
		return fmt.Errorf("reading config before saving session: %w", err)
	}
	onDisk.Auth.Token = s.cfg.Auth.Token
	onDisk.Auth.RefreshToken = s.cfg.Auth.RefreshToken
	onDisk.Auth.IDToken = s.cfg.Auth.IDToken
	onDisk.Auth.Email = s.cfg.Auth.Email
	return config.Save(s.path, onDisk)
}

// MemoryStore is a TokenStore that lives only as long as the process.
type MemoryStore struct {
	mu     sync.Mutex
	tokens Tokens
}

func NewMemoryStore(initial Tokens) *MemoryStore {
	return &MemoryStore{tokens: initial}
}

func (s *MemoryStore) Load() (Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens, nil
}

func (s *MemoryStore) Save(t Tokens) error {
	s.mu.Lock()
	s.tokens = t
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear() error {
	return s.Save(Tokens{})
}
