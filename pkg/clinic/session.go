package clinic

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const credentialsFileName = "credentials.json"

// credentials is the on-disk shape of the token store. Exactly one entry
// per role; nothing else is persisted client-side.
type credentials struct {
	AdminToken  string `json:"admin_token,omitempty"`
	DoctorToken string `json:"doctor_token,omitempty"`
}

// SessionStore is the single source of truth for role authentication,
// surviving process restarts. The durable write happens before the
// in-memory one: a failed file write leaves memory unchanged, so a reload
// can never observe state the disk does not have.
//
// Set and Clear are the only writers of the credentials file.
type SessionStore struct {
	mu     sync.Mutex
	path   string
	loaded bool
	tokens map[Role]string
}

// NewSessionStore creates a store backed by the given credentials file.
// The file is read lazily on first access, restoring sessions from a
// previous run.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path, tokens: make(map[Role]string)}
}

// DefaultCredentialsPath returns ~/.clinicli/credentials.json.
func DefaultCredentialsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".clinicli", credentialsFileName), nil
}

// Get returns the stored token for role, or "" when none is held.
func (s *SessionStore) Get(role Role) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	return s.tokens[role]
}

// Set stores the token for role. Durable storage is written first; on
// failure the in-memory token is left untouched and the call fails.
func (s *SessionStore) Set(role Role, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	next := s.snapshot()
	next[role] = token
	if err := s.persist(next); err != nil {
		return err
	}
	s.tokens = next
	return nil
}

// Clear removes the token for role from memory and durable storage.
// Clearing an already-empty role is a no-op, not an error.
func (s *SessionStore) Clear(role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load()
	if s.tokens[role] == "" {
		return nil
	}
	next := s.snapshot()
	delete(next, role)
	if err := s.persist(next); err != nil {
		return err
	}
	s.tokens = next
	return nil
}

func (s *SessionStore) snapshot() map[Role]string {
	next := make(map[Role]string, len(s.tokens))
	for r, t := range s.tokens {
		next[r] = t
	}
	return next
}

// load reads the credentials file once. A missing or unreadable file
// leaves the store empty.
func (s *SessionStore) load() {
	if s.loaded {
		return
	}
	s.loaded = true
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var creds credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return
	}
	if creds.AdminToken != "" {
		s.tokens[RoleAdmin] = creds.AdminToken
	}
	if creds.DoctorToken != "" {
		s.tokens[RoleDoctor] = creds.DoctorToken
	}
}

func (s *SessionStore) persist(tokens map[Role]string) error {
	creds := credentials{
		AdminToken:  tokens[RoleAdmin],
		DoctorToken: tokens[RoleDoctor],
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}
