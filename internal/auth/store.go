package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/renameio/v2"
)

// Store persists the token pair across restarts.
type Store interface {
	// Load returns ErrNoStoredToken when nothing has been saved yet.
	Load() (Token, error)
	Save(tok Token) error
}

type storedToken struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	ClientID     string     `json:"client_id,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// FileStore keeps the token pair in a JSON file written atomically.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the token file.
func (s *FileStore) Load() (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Token{}, ErrNoStoredToken
	}
	if err != nil {
		return Token{}, fmt.Errorf("reading token file %s: %w", s.path, err)
	}

	var st storedToken
	if err := json.Unmarshal(data, &st); err != nil {
		return Token{}, fmt.Errorf("parsing token file %s: %w", s.path, err)
	}
	if st.AccessToken == "" {
		return Token{}, ErrNoStoredToken
	}

	tok := Token{
		AccessToken:  st.AccessToken,
		RefreshToken: st.RefreshToken,
		ClientID:     st.ClientID,
	}
	if st.ExpiresAt != nil {
		tok.ExpiresAt = *st.ExpiresAt
	}
	return tok, nil
}

// Save writes tok, replacing the file only once the new content is on disk.
func (s *FileStore) Save(tok Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating token directory %s: %w", dir, err)
	}

	st := storedToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ClientID:     tok.ClientID,
	}
	if !tok.ExpiresAt.IsZero() {
		st.ExpiresAt = &tok.ExpiresAt
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling token: %w", err)
	}

	if err := renameio.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing token file %s: %w", s.path, err)
	}
	return nil
}
