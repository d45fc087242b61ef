// Package storage reads attachments from, and writes exports to, a local
// directory or an S3-compatible bucket.
//
// References name the disk with a scheme; anything else is a local path:
//
//	m := storage.Open()
//	logo, err := m.Read(ctx, "s3://brand/logo.png")
//	img, err := m.Read(ctx, "./photos/mouse.jpg")
//	err = m.Write(ctx, "s3://exports/products.json", data)
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shashiranjanraj/shopdesk/config"
	"github.com/shashiranjanraj/shopdesk/pkg/logger"
)

// ErrNoDisk is returned for a reference to a disk that is not configured.
var ErrNoDisk = errors.New("storage: disk is not configured")

// Disk is one storage driver.
type Disk interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Put(ctx context.Context, path string, content []byte) error
	Exists(ctx context.Context, path string) bool
}

// Manager routes references to disks.
type Manager struct {
	mu    sync.RWMutex
	disks map[string]Disk
}

// Open builds a manager with the local disk and, when S3_BUCKET is set, the
// s3 disk.
func Open() *Manager {
	m := &Manager{disks: map[string]Disk{"local": NewLocal(config.StorageLocalRoot())}}

	if config.StorageS3Bucket() != "" {
		d, err := NewS3(S3Options{
			Bucket:   config.StorageS3Bucket(),
			Region:   config.StorageS3Region(),
			Key:      config.StorageS3Key(),
			Secret:   config.StorageS3Secret(),
			Endpoint: config.StorageS3Endpoint(),
		})
		if err != nil {
			logger.Warn("storage: s3 disk disabled", "error", err)
		} else {
			m.disks["s3"] = d
		}
	}
	return m
}

// Register plugs in a disk under name.
func (m *Manager) Register(name string, d Disk) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disks == nil {
		m.disks = map[string]Disk{}
	}
	m.disks[name] = d
}

// Use returns the named disk.
func (m *Manager) Use(name string) (Disk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.disks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoDisk, name)
	}
	return d, nil
}

// Resolve splits ref into a disk and a path on it.
func (m *Manager) Resolve(ref string) (Disk, string, error) {
	name, path := "local", ref
	if scheme, rest, ok := strings.Cut(ref, "://"); ok {
		name, path = scheme, rest
	}
	d, err := m.Use(name)
	if err != nil {
		return nil, "", err
	}
	return d, path, nil
}

// Read returns the content behind ref.
func (m *Manager) Read(ctx context.Context, ref string) ([]byte, error) {
	d, path, err := m.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return d.Get(ctx, path)
}

// Write stores content at ref.
func (m *Manager) Write(ctx context.Context, ref string, content []byte) error {
	d, path, err := m.Resolve(ref)
	if err != nil {
		return err
	}
	return d.Put(ctx, path, content)
}
