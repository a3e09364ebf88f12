package api

import (
	"github.com/rise-and-shine/quote3d/internal/geometry"
	"github.com/rise-and-shine/quote3d/internal/storage"
)

// Upload outcome statuses. Duplicate and name-conflict are normal,
// successful outcomes communicated as data, never as HTTP errors.
const (
	statusAccepted     = "accepted"
	statusDuplicate    = "duplicate"
	statusNameConflict = "name_conflict"
)

// fileSchema describes a stored file to the caller.
type fileSchema struct {
	Filename    string `json:"filename"`
	Handle      string `json:"handle"`
	Size        int64  `json:"size"`
	Format      string `json:"format"`
	Fingerprint string `json:"fingerprint"`
	DownloadURL string `json:"download_url"`
}

// uploadSchema is the tagged upload response. Status determines which of
// the optional fields are present.
type uploadSchema struct {
	Status           string             `json:"status"`
	SessionID        string             `json:"session_id"`
	SessionFileCount int                `json:"session_file_count"`
	Fingerprint      string             `json:"fingerprint"`
	Filename         string             `json:"filename,omitempty"`
	File             *fileSchema        `json:"file,omitempty"`
	Geometry         *geometry.Analysis `json:"geometry_analysis,omitempty"`
	ConvertedFileURL string             `json:"converted_file_url,omitempty"`
}

// sessionSchema reports session tracking state.
type sessionSchema struct {
	SessionID string `json:"session_id"`
	FileCount int    `json:"file_count"`
}

// removeEntrySchema reports the result of removing one session entry.
type removeEntrySchema struct {
	SessionID string `json:"session_id"`
	Filename  string `json:"filename"`
	Removed   bool   `json:"removed"`
	FileCount int    `json:"file_count"`
}

// storageInfoSchema reports the storage backend status.
type storageInfoSchema struct {
	BackendKind string `json:"backend_kind"`
	Retention   string `json:"retention"`
	ObjectCount int    `json:"object_count"`
}

func newStorageInfoSchema(info storage.Info) storageInfoSchema {
	return storageInfoSchema{
		BackendKind: info.BackendKind,
		Retention:   info.Retention.String(),
		ObjectCount: info.ObjectCount,
	}
}

// sweepSchema reports the result of a sweep run.
type sweepSchema struct {
	Removed int `json:"removed"`
}
