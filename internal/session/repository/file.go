package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mrseck/AQ54-fe/internal/session/domain"
)

// FileStore persists the credential pair as a single JSON file. Writing the
// pair as one document through a temp-file rename keeps Put atomic: either
// the new pair replaces the old one completely or the old one survives.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the file at path. The file and its
// directory are created on first Put.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// credentialsFile is the on-disk shape: the token and the serialized profile,
// the same two entries the web client kept in localStorage.
type credentialsFile struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Get reads and validates the persisted session. On a missing file it returns
// (nil, nil). On an undecodable file or an invalid role it self-heals by
// clearing the store and returns (nil, nil) so corrupt state never reaches the
// session manager.
func (s *FileStore) Get() (*domain.Session, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	var c credentialsFile
	if err := json.Unmarshal(raw, &c); err != nil {
		_ = s.Clear()
		return nil, nil
	}
	if c.Token == "" || c.User.Username == "" {
		_ = s.Clear()
		return nil, nil
	}
	if _, err := domain.ParseRole(string(c.User.Role)); err != nil {
		_ = s.Clear()
		return nil, nil
	}
	return &domain.Session{Token: c.Token, User: c.User}, nil
}

// Put persists the pair. The document is written to a temp file in the same
// directory and renamed over the target, so a failure at any point leaves the
// previous pair readable.
func (s *FileStore) Put(token string, user domain.User) error {
	if token == "" {
		return fmt.Errorf("%w: empty token", ErrPersistence)
	}
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	payload, err := json.MarshalIndent(credentialsFile{Token: token, User: user}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// Clear removes the credentials file. A missing file is treated as already
// cleared.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
