package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/artpar/reqtree/internal/core"
	"github.com/artpar/reqtree/internal/interfaces"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const treeFileExt = ".yaml"

var _ interfaces.TreeStore = (*TreeStore)(nil)

// TreeStore keeps one YAML file per user under basePath.
type TreeStore struct {
	mu       sync.RWMutex
	fs       afero.Fs
	basePath string
	closed   bool
}

// NewTreeStore creates a store rooted at basePath on fs, creating the
// directory if needed.
func NewTreeStore(fs afero.Fs, basePath string) (*TreeStore, error) {
	if err := fs.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create tree directory: %w", err)
	}

	return &TreeStore{
		fs:       fs,
		basePath: basePath,
	}, nil
}

// NewOsTreeStore creates a store on the local filesystem.
func NewOsTreeStore(basePath string) (*TreeStore, error) {
	return NewTreeStore(afero.NewOsFs(), basePath)
}

// LoadTree reads the stored tree for a user.
func (s *TreeStore) LoadTree(ctx context.Context, userID string) ([]core.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, interfaces.ErrStoreClosed
	}
	path, err := s.treePath(userID)
	if err != nil {
		return nil, err
	}

	content, err := afero.ReadFile(s.fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return []core.Collection{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tree file: %w", err)
	}

	var data treeData
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tree: %w", err)
	}

	collections := make([]core.Collection, 0, len(data.Collections))
	for _, c := range data.Collections {
		collections = append(collections, c.Normalize())
	}
	return collections, nil
}

// SaveTree writes the tree after m to the user's file. The file is written
// to a temporary name first and renamed into place.
func (s *TreeStore) SaveTree(ctx context.Context, userID string, m interfaces.Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return interfaces.ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.treePath(userID)
	if err != nil {
		return err
	}

	at := m.At
	if at.IsZero() {
		at = time.Now()
	}
	content, err := yaml.Marshal(treeData{
		Version:     core.DocumentVersion,
		LastAction:  m.Action,
		UpdatedAt:   at.UTC(),
		Collections: m.Collections,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal tree: %w", err)
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, content, 0644); err != nil {
		return fmt.Errorf("failed to write tree file: %w", err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace tree file: %w", err)
	}
	return nil
}

// Users returns the IDs of users with a stored tree, sorted.
func (s *TreeStore) Users(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, interfaces.ErrStoreClosed
	}

	entries, err := afero.ReadDir(s.fs, s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read tree directory: %w", err)
	}

	var users []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), treeFileExt) {
			continue
		}
		users = append(users, strings.TrimSuffix(entry.Name(), treeFileExt))
	}
	sort.Strings(users)
	return users, nil
}

// Delete removes a user's stored tree.
func (s *TreeStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return interfaces.ErrStoreClosed
	}
	path, err := s.treePath(userID)
	if err != nil {
		return err
	}

	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete tree: %w", err)
	}
	return nil
}

// Close marks the store closed.
func (s *TreeStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *TreeStore) treePath(userID string) (string, error) {
	if userID == "" || userID == "." || userID == ".." ||
		strings.ContainsAny(userID, `/\`) {
		return "", fmt.Errorf("%w: %q", interfaces.ErrInvalidUser, userID)
	}
	return filepath.Join(s.basePath, userID+treeFileExt), nil
}

type treeData struct {
	Version     int               `yaml:"version"`
	LastAction  string            `yaml:"last_action,omitempty"`
	UpdatedAt   time.Time         `yaml:"updated_at"`
	Collections []core.Collection `yaml:"collections"`
}
