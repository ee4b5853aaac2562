package ratetable

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
)

// Source provides the raw CSV rate schedule.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	// Name identifies the source in logs and cache keys.
	Name() string
}

// FileSource reads the schedule from a local file.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open rate schedule: %w", err)
	}
	return f, nil
}

func (s *FileSource) Name() string {
	return "file:" + s.Path
}

// ObjectReader downloads objects from remote storage.
type ObjectReader interface {
	ReadObject(ctx context.Context, key string) ([]byte, error)
}

// ObjectSource reads the schedule from an object in remote storage (R2).
type ObjectSource struct {
	store ObjectReader
	key   string
}

func NewObjectSource(store ObjectReader, key string) *ObjectSource {
	return &ObjectSource{store: store, key: key}
}

func (s *ObjectSource) Open(ctx context.Context) (io.ReadCloser, error) {
	data, err := s.store.ReadObject(ctx, s.key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *ObjectSource) Name() string {
	return "object:" + s.key
}
