package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// JSONFile persists a single value of type T as an indented JSON file.
// Writes go through a temp file and a rename.
type JSONFile[T any] struct {
	mu       sync.Mutex
	filePath string
}

// NewJSONFile creates dataDir when needed and returns a handle on dataDir/filename.
func NewJSONFile[T any](dataDir, filename string) (*JSONFile[T], error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}
	return &JSONFile[T]{filePath: filepath.Join(dataDir, filename)}, nil
}

func (f *JSONFile[T]) Path() string {
	return f.filePath
}

// Load returns the stored value, or the zero value when the file does not exist yet.
func (f *JSONFile[T]) Load() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadLocked()
}

// Update loads the value, applies fn and saves the result atomically with respect
// to other callers of this handle. Nothing is written when fn returns an error.
func (f *JSONFile[T]) Update(fn func(*T) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, err := f.loadLocked()
	if err != nil {
		return err
	}
	if err := fn(&v); err != nil {
		return err
	}
	return f.saveLocked(v)
}

func (f *JSONFile[T]) loadLocked() (T, error) {
	var v T
	file, err := os.Open(f.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return v, nil
	}
	if err != nil {
		return v, err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&v); err != nil {
		return v, err
	}
	return v, nil
}

func (f *JSONFile[T]) saveLocked(v T) error {
	tempFile := f.filePath + ".tmp"
	file, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		file.Close()
		os.Remove(tempFile)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}
	return os.Rename(tempFile, f.filePath)
}
