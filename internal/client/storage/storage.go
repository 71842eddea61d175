// Package storage persists the command-line client's state in a local JSON
// file.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/atinyakov/FloraFacts/internal/client/session"
)

const stateFile = "state.json"

// DefaultPath returns the state file location under the user's config dir.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return stateFile
	}
	return filepath.Join(dir, "florafacts", stateFile)
}

// LocalStorage is a State bound to a file.
type LocalStorage struct {
	mu    sync.Mutex
	path  string
	state State
}

// Open loads the state at path. A missing file yields an empty state.
func Open(path string) (*LocalStorage, error) {
	ls := &LocalStorage{path: path}
	if err := ls.Load(); err != nil {
		return nil, err
	}
	return ls, nil
}

// Load reads the file again, replacing the in-memory state.
func (ls *LocalStorage) Load() error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	data, err := os.ReadFile(ls.path)
	if errors.Is(err, os.ErrNotExist) {
		ls.state = State{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read state: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("decode state %s: %w", ls.path, err)
	}
	ls.state = st
	return nil
}

// Save writes the state. The file is readable by its owner only since it
// holds the bearer token.
func (ls *LocalStorage) Save() error {
	ls.mu.Lock()
	data, err := json.MarshalIndent(ls.state, "", "  ")
	ls.mu.Unlock()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(ls.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	tmp := ls.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return os.Rename(tmp, ls.path)
}

// State returns a copy of the current state.
func (ls *LocalStorage) State() State {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.state
}

// SetServer records the API base URL and optional CA bundle.
func (ls *LocalStorage) SetServer(server, caFile string) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.state.Server = server
	ls.state.CAFile = caFile
}

// SetToken signs in with token, or signs out when it is empty. The last
// result belongs to the previous identity's session and is dropped.
func (ls *LocalStorage) SetToken(token string) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if token != ls.state.Token {
		ls.state.LastResult = nil
	}
	ls.state.Token = token
}

// SetLastResult remembers r. A nil r forgets the previous result.
func (ls *LocalStorage) SetLastResult(r *session.Result) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.state.LastResult = r
}
