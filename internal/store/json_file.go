// Package store persists whole record collections as JSON files.
package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONFile stores a collection of T as one indented JSON array. Every write replaces
// the whole file. Update serializes load-mutate-save cycles within the process.
type JSONFile[T any] struct {
	path string
	mu   sync.Mutex
}

func NewJSONFile[T any](path string) *JSONFile[T] {
	return &JSONFile[T]{path: path}
}

func (f *JSONFile[T]) Path() string {
	return f.path
}

// Load returns the stored collection. A missing file is an empty collection.
func (f *JSONFile[T]) Load(ctx context.Context) ([]T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load(ctx)
}

// View loads the collection and runs fn before any other caller can write it.
// Whatever fn derives from records is consistent with the file.
func (f *JSONFile[T]) View(ctx context.Context, fn func([]T) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.load(ctx)
	if err != nil {
		return err
	}
	return fn(records)
}

// Save overwrites the file with records.
func (f *JSONFile[T]) Save(ctx context.Context, records []T) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.save(ctx, records)
}

// Update loads the collection, hands it to fn and saves what fn returns. When fn
// fails the file is left untouched.
func (f *JSONFile[T]) Update(ctx context.Context, fn func([]T) ([]T, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.load(ctx)
	if err != nil {
		return err
	}
	updated, err := fn(records)
	if err != nil {
		return err
	}
	return f.save(ctx, updated)
}

func (f *JSONFile[T]) load(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []T{}, nil
		}
		return nil, errors.Wrapf(err, "read %s", f.path)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrapf(err, "decode %s", f.path)
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

func (f *JSONFile[T]) save(ctx context.Context, records []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if records == nil {
		records = []T{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encode %s", f.path)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*")
	if err != nil {
		return errors.Wrapf(err, "write %s", f.path)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %s", f.path)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "sync %s", f.path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "write %s", f.path)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return errors.Wrapf(err, "chmod %s", f.path)
	}
	return errors.Wrapf(os.Rename(tmpName, f.path), "replace %s", f.path)
}
