// Package storage implements the storage lifecycle manager: it owns the
// mapping from stored-object handles to backend locations and creation
// times, and enforces the retention policy through sweeps.
package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/code19m/errx"
	"github.com/google/uuid"
	"github.com/rise-and-shine/quote3d/internal/filestore"
	"github.com/rise-and-shine/quote3d/internal/fingerprint"
)

const (
	// CodeHandleNotFound is returned when a handle is unknown, expired or deleted.
	CodeHandleNotFound = "HANDLE_NOT_FOUND"

	handleTimeLayout = "20060102_150405"
)

// StoredObject describes one stored file. It is owned exclusively by the
// Manager; the session registry references uploads by fingerprint only and
// never owns storage bytes.
type StoredObject struct {
	Handle           string                  `json:"handle"`
	OriginalFilename string                  `json:"filename"`
	Fingerprint      fingerprint.Fingerprint `json:"fingerprint"`
	Size             int64                   `json:"size"`
	Format           string                  `json:"format"`
	ContentType      string                  `json:"content_type"`
	CreatedAt        time.Time               `json:"created_at"`
}

// Info is a read-only status snapshot for operational visibility.
type Info struct {
	BackendKind string        `json:"backend_kind"`
	Retention   time.Duration `json:"retention"`
	ObjectCount int           `json:"object_count"`
}

// Manager owns stored objects from creation to expiry. Puts run fully in
// parallel; the handle index is the only shared state and is guarded by a
// single RWMutex. Backends are interchangeable behind filestore.FileStore.
type Manager struct {
	backend   filestore.FileStore
	retention time.Duration

	mu      sync.RWMutex
	objects map[string]StoredObject

	// now is replaceable in tests.
	now func() time.Time
}

// NewManager creates a Manager over the given backend with the configured
// retention threshold.
func NewManager(backend filestore.FileStore, retention time.Duration) *Manager {
	return &Manager{
		backend:   backend,
		retention: retention,
		objects:   make(map[string]StoredObject),
		now:       time.Now,
	}
}

// Put persists the file bytes under a freshly generated unique handle and
// records the creation time. Backend write failures surface with code
// filestore.CodeStorageWrite; the bytes are not retained on failure.
func (m *Manager) Put(ctx context.Context, r io.Reader, originalFilename string, fp fingerprint.Fingerprint) (*StoredObject, error) {
	format := filestore.NormalizeFormat(originalFilename)

	handle, err := m.newHandle(ctx, format)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	info, err := m.backend.Upload(ctx, handle, r)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	obj := StoredObject{
		Handle:           handle,
		OriginalFilename: originalFilename,
		Fingerprint:      fp,
		Size:             info.Size,
		Format:           format,
		ContentType:      filestore.FormatContentType(format),
		CreatedAt:        m.now(),
	}

	m.mu.Lock()
	m.objects[handle] = obj
	m.mu.Unlock()

	return &obj, nil
}

// Get retrieves the stored bytes and metadata for a handle. Unknown,
// deleted or expired handles yield CodeHandleNotFound. A get that loses a
// race with a sweep simply observes not-found; that is a documented
// outcome, not a corruption.
func (m *Manager) Get(ctx context.Context, handle string) (*filestore.File, *StoredObject, error) {
	m.mu.RLock()
	obj, ok := m.objects[handle]
	m.mu.RUnlock()

	if !ok {
		return nil, nil, errx.New(
			"unknown or expired handle",
			errx.WithCode(CodeHandleNotFound),
			errx.WithType(errx.T_NotFound),
			errx.WithDetails(errx.D{"handle": handle}),
		)
	}

	f, err := m.backend.Get(ctx, handle)
	if err != nil {
		return nil, nil, errx.Wrap(err)
	}

	return f, &obj, nil
}

// Delete removes the object and invalidates its handle. Deleting an
// already-absent handle is not an error.
func (m *Manager) Delete(ctx context.Context, handle string) error {
	if err := m.backend.Delete(ctx, handle); err != nil {
		return errx.Wrap(err)
	}

	m.mu.Lock()
	delete(m.objects, handle)
	m.mu.Unlock()

	return nil
}

// Sweep deletes every object whose age exceeds olderThan and returns the
// count removed. Failures on individual objects are skipped, never aborting
// the sweep of the remaining ones. Safe to run concurrently and repeatedly:
// a second run under a stable clock removes nothing further.
//
// Besides indexed objects, the sweep also removes backend orphans — files
// past the threshold that are not in the index, typically left behind by a
// previous process run.
func (m *Manager) Sweep(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := m.now().Add(-olderThan)

	m.mu.RLock()
	expired := make([]string, 0)
	for handle, obj := range m.objects {
		if obj.CreatedAt.Before(cutoff) {
			expired = append(expired, handle)
		}
	}
	m.mu.RUnlock()

	removed := 0
	for _, handle := range expired {
		if err := m.Delete(ctx, handle); err != nil {
			continue
		}
		removed++
	}

	orphans, err := m.backend.ListOlderThan(ctx, olderThan)
	if err != nil {
		// The indexed pass already ran; report what was removed.
		return removed, errx.Wrap(err)
	}

	for _, path := range orphans {
		m.mu.RLock()
		_, indexed := m.objects[path]
		m.mu.RUnlock()
		if indexed {
			// Still tracked: either removed above or not yet expired by CreatedAt.
			continue
		}
		if err := m.backend.Delete(ctx, path); err != nil {
			continue
		}
		removed++
	}

	return removed, nil
}

// Retention returns the configured retention threshold.
func (m *Manager) Retention() time.Duration {
	return m.retention
}

// Info returns a read-only status snapshot.
func (m *Manager) Info() Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Info{
		BackendKind: m.backend.Kind(),
		Retention:   m.retention,
		ObjectCount: len(m.objects),
	}
}

// newHandle generates a unique handle combining a timestamp with a random
// component, regenerating in the unlikely event of a backend collision.
func (m *Manager) newHandle(ctx context.Context, format string) (string, error) {
	for {
		handle := fmt.Sprintf("%s_%s%s", m.now().Format(handleTimeLayout), uuid.NewString(), format)

		exists, err := m.backend.Exists(ctx, handle)
		if err != nil {
			return "", errx.Wrap(err)
		}
		if !exists {
			return handle, nil
		}
	}
}
