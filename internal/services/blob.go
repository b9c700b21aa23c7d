package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// BlobStorage stores uploaded photo and signature bytes and returns the URL
// the job record keeps. The job record never holds the bytes themselves.
type BlobStorage interface {
	Upload(filename string, r io.Reader) (string, error)
}

// DiskStorage writes uploads under a local directory and serves them from
// baseURL.
type DiskStorage struct {
	dir     string
	baseURL string
}

func NewDiskStorage(dir, baseURL string) *DiskStorage {
	return &DiskStorage{dir: dir, baseURL: baseURL}
}

func (d *DiskStorage) Upload(filename string, r io.Reader) (string, error) {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	stored := fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(filename))
	path := filepath.Join(d.dir, stored)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	return d.baseURL + "/" + stored, nil
}

// MemoryStorage keeps uploads in memory; used by tests.
type MemoryStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte
	seq   int
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{blobs: make(map[string][]byte)}
}

func (m *MemoryStorage) Upload(filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	url := fmt.Sprintf("mem://%d_%s", m.seq, filename)
	m.blobs[url] = data
	return url, nil
}
