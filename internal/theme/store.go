package theme

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/ini.v1"

	"github.com/instantshare/instantshare/internal/constants"
)

// Store persists the theme preference.
type Store interface {
	// Load returns the stored mode and whether one was stored.
	Load() (Mode, bool, error)
	Save(Mode) error
}

// FileStore keeps the preference in an INI file on an afero filesystem.
type FileStore struct {
	fs   afero.Fs
	path string
}

// NewFileStore returns a store backed by path on fs.
func NewFileStore(fs afero.Fs, path string) *FileStore {
	return &FileStore{fs: fs, path: path}
}

// DefaultPath returns the preferences file under stateDir.
func DefaultPath(stateDir string) string {
	return filepath.Join(stateDir, constants.PreferencesFileName)
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the preference. A missing file or an unrecognized value reads
// as "not stored".
func (s *FileStore) Load() (Mode, bool, error) {
	f, err := s.read()
	if err != nil || f == nil {
		return "", false, err
	}
	mode, ok := ParseMode(f.Section(constants.ThemeSection).Key(constants.ThemeKey).String())
	return mode, ok, nil
}

// Save writes mode, keeping any other keys in the file.
func (s *FileStore) Save(mode Mode) error {
	f, err := s.read()
	if err != nil {
		return err
	}
	if f == nil {
		f = ini.Empty()
	}
	f.Section(constants.ThemeSection).Key(constants.ThemeKey).SetValue(string(mode))

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}
	tmpPath := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmpPath, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	if err := s.fs.Rename(tmpPath, s.path); err != nil {
		_ = s.fs.Remove(tmpPath)
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

func (s *FileStore) read() (*ini.File, error) {
	exists, err := afero.Exists(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat preferences: %w", err)
	}
	if !exists {
		return nil, nil
	}
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}
	f, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse preferences: %w", err)
	}
	return f, nil
}
