package logstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// DirStore keeps logs on the local filesystem, one subdirectory per
// tournament: <root>/<tournamentID>/<filename>.
type DirStore struct {
	root string
}

// NewDirStore returns a filesystem store rooted at dir.
func NewDirStore(dir string) *DirStore {
	return &DirStore{root: dir}
}

func (s *DirStore) tournamentDir(tournamentID int64) string {
	return filepath.Join(s.root, strconv.FormatInt(tournamentID, 10))
}

// List returns the log filenames stored for a tournament, sorted.
func (s *DirStore) List(_ context.Context, tournamentID int64) ([]string, error) {
	entries, err := os.ReadDir(s.tournamentDir(tournamentID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Fetch reads one stored log.
func (s *DirStore) Fetch(_ context.Context, tournamentID int64, filename string) ([]byte, error) {
	path, err := s.safePath(tournamentID, filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &NotFoundError{TournamentID: tournamentID, Filename: filename}
	}
	return data, err
}

// Put writes a log to disk, creating the tournament directory as needed.
func (s *DirStore) Put(_ context.Context, tournamentID int64, filename string, data []byte) error {
	path, err := s.safePath(tournamentID, filename)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// safePath rejects filenames that would escape the tournament directory.
func (s *DirStore) safePath(tournamentID int64, filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) {
		return "", fmt.Errorf("invalid log filename %q", filename)
	}
	return filepath.Join(s.tournamentDir(tournamentID), filename), nil
}
