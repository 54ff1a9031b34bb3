// Package store persists each identity's transactions as a single JSON
// file under the data directory.
//
// Every write is a whole-file rewrite (load, modify, save), which is fine
// at personal-finance scale and keeps the format trivially inspectable.
// A per-identity mutex serializes the load-modify-save cycle within this
// process; concurrent writers from other processes are not synchronized.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/arifhasan/khata/internal/domain"
	"github.com/rs/zerolog"
)

// DefaultIdentity is the reserved identity used when the caller supplies
// none, or when sanitization strips every character.
const DefaultIdentity = "default_user"

// Store is the persistence contract consumed by the HTTP handlers and the
// CLI.
type Store interface {
	// Load returns all transactions for the identity in persisted order.
	Load(identity string) ([]domain.Transaction, error)

	// Save overwrites the identity's entire collection.
	Save(txs []domain.Transaction, identity string) error

	// Add appends one transaction to the identity's collection.
	Add(tx domain.Transaction, identity string) error

	// Delete removes the transaction with the given id. Unknown ids are a
	// silent no-op.
	Delete(id, identity string) error
}

// FileStore implements Store on top of one JSON file per identity.
type FileStore struct {
	dir string
	log zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string, log zerolog.Logger) *FileStore {
	return &FileStore{
		dir:   dir,
		log:   log,
		locks: make(map[string]*sync.Mutex),
	}
}

// SanitizeIdentity reduces a caller-supplied identity to characters safe
// for use in a file name. Everything outside [A-Za-z0-9_-] is dropped; an
// empty result collapses to DefaultIdentity.
func SanitizeIdentity(identity string) string {
	var b strings.Builder
	for _, r := range identity {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return DefaultIdentity
	}
	return b.String()
}

// Load implements Store. A missing file is initialized to an empty
// collection; an unparseable file is treated as empty (fail open) and
// heals on the next save.
func (s *FileStore) Load(identity string) ([]domain.Transaction, error) {
	safe := SanitizeIdentity(identity)
	lock := s.identityLock(safe)
	lock.Lock()
	defer lock.Unlock()

	return s.loadLocked(safe)
}

// Save implements Store.
func (s *FileStore) Save(txs []domain.Transaction, identity string) error {
	safe := SanitizeIdentity(identity)
	lock := s.identityLock(safe)
	lock.Lock()
	defer lock.Unlock()

	return s.saveLocked(txs, safe)
}

// Add implements Store.
func (s *FileStore) Add(tx domain.Transaction, identity string) error {
	safe := SanitizeIdentity(identity)
	lock := s.identityLock(safe)
	lock.Lock()
	defer lock.Unlock()

	txs, err := s.loadLocked(safe)
	if err != nil {
		return fmt.Errorf("Add: %w", err)
	}
	txs = append(txs, tx)
	if err := s.saveLocked(txs, safe); err != nil {
		return fmt.Errorf("Add: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *FileStore) Delete(id, identity string) error {
	safe := SanitizeIdentity(identity)
	lock := s.identityLock(safe)
	lock.Lock()
	defer lock.Unlock()

	txs, err := s.loadLocked(safe)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	kept := txs[:0]
	for _, tx := range txs {
		if tx.ID != id {
			kept = append(kept, tx)
		}
	}
	if err := s.saveLocked(kept, safe); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

func (s *FileStore) loadLocked(safe string) ([]domain.Transaction, error) {
	path, err := s.ensureFile(safe)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loadLocked: read %s: %w", path, err)
	}

	var txs []domain.Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		// Corrupt storage: fail open with an empty collection. The next
		// successful save overwrites the damaged file.
		s.log.Warn().
			Err(err).
			Str("identity", safe).
			Str("path", path).
			Msg("Unparseable transaction file, treating as empty")
		return []domain.Transaction{}, nil
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	return txs, nil
}

func (s *FileStore) saveLocked(txs []domain.Transaction, safe string) error {
	path, err := s.ensureFile(safe)
	if err != nil {
		return err
	}

	if txs == nil {
		txs = []domain.Transaction{}
	}
	data, err := json.MarshalIndent(txs, "", "  ")
	if err != nil {
		return fmt.Errorf("saveLocked: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("saveLocked: write %s: %w", path, err)
	}
	return nil
}

// ensureFile creates the data directory and an empty collection file for
// this identity if either is missing, and returns the file path.
func (s *FileStore) ensureFile(safe string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("ensureFile: create dir %s: %w", s.dir, err)
	}
	path := filepath.Join(s.dir, safe+".json")
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("ensureFile: stat %s: %w", path, err)
		}
		if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
			return "", fmt.Errorf("ensureFile: init %s: %w", path, err)
		}
	}
	return path, nil
}

func (s *FileStore) identityLock(safe string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[safe]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[safe] = lock
	}
	return lock
}

var _ Store = (*FileStore)(nil)
