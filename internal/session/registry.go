// Package session tracks which files have already been uploaded within an
// upload session (a shopping cart), detecting duplicate content and filename
// conflicts before any bytes reach storage.
//
// State is process-local and not persisted: it lives until explicitly
// cleared or until the process restarts. This is a deliberate
// simplification, not a bug; storage retention is handled independently
// by the storage sweep.
package session

import (
	"sync"
	"time"

	"github.com/rise-and-shine/quote3d/internal/fingerprint"
)

// Outcome is the result of a duplicate check for one uploaded file.
type Outcome int

const (
	// Accepted means no prior entry matched; the file is now registered.
	Accepted Outcome = iota

	// DuplicateContent means an entry with the identical fingerprint already
	// exists in the session, regardless of filename. Nothing was mutated.
	// Callers should treat this as "already uploaded", not as an error.
	DuplicateContent

	// NameConflict means an entry with the same filename but different
	// content already exists in the session. Nothing was mutated. Callers
	// must surface a keep/replace/rename choice to the user.
	NameConflict
)

// String returns the snake_case name of the outcome, as used in API responses.
func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case DuplicateContent:
		return "duplicate"
	case NameConflict:
		return "name_conflict"
	default:
		return "unknown"
	}
}

// entry records one registered file in a session.
type entry struct {
	fp           fingerprint.Fingerprint
	registeredAt time.Time
}

// record holds the per-session state. Each record carries its own mutex so
// operations on distinct sessions never contend with each other.
type record struct {
	mu sync.Mutex

	// byName maps filename to its registered entry.
	byName map[string]entry

	// byFP indexes registered fingerprints; the value is the filename the
	// fingerprint was first registered under.
	byFP map[fingerprint.Fingerprint]string
}

// Registry maps session identifiers to the set of fingerprints and filenames
// already seen in that session. It is safe for concurrent use and is meant to
// be constructed once at process startup and injected into request handlers.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*record
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*record),
	}
}

// CheckAndRegister atomically checks the session for duplicates and, only
// when neither the fingerprint nor the filename collides, registers the file.
//
// The fingerprint check takes precedence over the filename check: re-uploading
// identical content under a new name reports DuplicateContent, not a conflict.
// Two concurrent uploads of identical content to the same session resolve to
// exactly one Accepted.
func (r *Registry) CheckAndRegister(sessionID, filename string, fp fingerprint.Fingerprint) Outcome {
	rec := r.getOrCreate(sessionID)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if _, ok := rec.byFP[fp]; ok {
		return DuplicateContent
	}

	if existing, ok := rec.byName[filename]; ok && existing.fp != fp {
		return NameConflict
	}

	rec.byName[filename] = entry{fp: fp, registeredAt: time.Now()}
	rec.byFP[fp] = filename

	return Accepted
}

// FileCount returns the number of distinct files registered in the session.
// Unknown session ids report 0; the call never fails.
func (r *Registry) FileCount(sessionID string) int {
	r.mu.RLock()
	rec, ok := r.sessions[sessionID]
	r.mu.RUnlock()

	if !ok {
		return 0
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return len(rec.byFP)
}

// Clear removes all entries for the session. Clearing a nonexistent or
// already-empty session succeeds silently.
func (r *Registry) Clear(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// RemoveEntry removes one filename's entry from the session, used when a
// cart item is deleted. It reports whether an entry was removed.
func (r *Registry) RemoveEntry(sessionID, filename string) bool {
	r.mu.RLock()
	rec, ok := r.sessions[sessionID]
	r.mu.RUnlock()

	if !ok {
		return false
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	e, ok := rec.byName[filename]
	if !ok {
		return false
	}

	delete(rec.byName, filename)
	delete(rec.byFP, e.fp)
	return true
}

// Sessions returns the number of live sessions, for operational visibility.
func (r *Registry) Sessions() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// getOrCreate returns the record for the session, creating it on first use.
func (r *Registry) getOrCreate(sessionID string) *record {
	r.mu.RLock()
	rec, ok := r.sessions[sessionID]
	r.mu.RUnlock()

	if ok {
		return rec
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok = r.sessions[sessionID]; ok {
		return rec
	}

	rec = &record{
		byName: make(map[string]entry),
		byFP:   make(map[fingerprint.Fingerprint]string),
	}
	r.sessions[sessionID] = rec
	return rec
}
