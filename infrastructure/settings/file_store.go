package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"collocation-backend/application/ports"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// GeminiAPIKey is the key under which the generator credential is stored
const GeminiAPIKey = ports.GeneratorAPIKeySetting

// FileStore keeps runtime secrets in a .env style file and an in-process
// copy. Writes are serialized and replace the file atomically.
type FileStore struct {
	path   string
	logger *zap.Logger

	mu     sync.RWMutex
	values map[string]string

	// writeMu serializes the read-modify-write of the file
	writeMu sync.Mutex
}

var _ ports.SecretStore = (*FileStore)(nil)

// NewFileStore seeds the store with defaults (typically the environment)
// and overlays whatever the file at path already holds. A missing file is
// not an error; it is created on the first Set.
func NewFileStore(path string, defaults map[string]string, logger *zap.Logger) (*FileStore, error) {
	s := &FileStore{
		path:   path,
		logger: logger,
		values: make(map[string]string, len(defaults)),
	}
	for k, v := range defaults {
		if v != "" {
			s.values[k] = v
		}
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the current in-process value of key
func (s *FileStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set writes key=value into the file, replacing any existing line for the
// key, and updates the in-process copy.
func (s *FileStore) Set(key, value string) error {
	if key == "" || strings.ContainsAny(key, "= \t\r\n") {
		return fmt.Errorf("invalid settings key %q", key)
	}
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("value for %s must be a single line", key)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	line, err := godotenv.Marshal(map[string]string{key: value})
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	if err := writeAtomic(s.path, rewrite(string(current), key, line)); err != nil {
		return err
	}

	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()

	s.logger.Info("Saved setting", zap.String("key", key), zap.String("file", s.path))
	return nil
}

// Reload re-reads the file and overlays its values on the in-process copy
func (s *FileStore) Reload() error {
	fileValues, err := godotenv.Read(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to parse %s: %w", s.path, err)
	}

	s.mu.Lock()
	for k, v := range fileValues {
		s.values[k] = v
	}
	s.mu.Unlock()
	return nil
}

// rewrite replaces every assignment of key in content with line, or
// appends line when the key is absent. Other lines are kept as they are.
func rewrite(content, key, line string) string {
	if content == "" {
		return line + "\n"
	}

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	out := make([]string, 0, len(lines)+1)
	replaced := false
	for _, l := range lines {
		if assigns(l, key) {
			if !replaced {
				out = append(out, line)
				replaced = true
			}
			continue
		}
		out = append(out, l)
	}
	if !replaced {
		out = append(out, line)
	}
	return strings.Join(out, "\n") + "\n"
}

// assigns reports whether an env line assigns key
func assigns(line, key string) bool {
	l := strings.TrimSpace(line)
	l = strings.TrimPrefix(l, "export ")
	l = strings.TrimLeft(l, " \t")
	if !strings.HasPrefix(l, key) {
		return false
	}
	rest := strings.TrimLeft(l[len(key):], " \t")
	return strings.HasPrefix(rest, "=") || strings.HasPrefix(rest, ":")
}

// writeAtomic writes data to a temp file next to path and renames it over path
func writeAtomic(path, data string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
