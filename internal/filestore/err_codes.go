package filestore

// Error codes for filestore operations.
const (
	// CodeFileNotFound is returned when a file does not exist at the specified path.
	CodeFileNotFound = "FILE_NOT_FOUND"

	// CodeStorageWrite is returned when the backend rejects a write
	// (quota, permissions, connectivity).
	CodeStorageWrite = "STORAGE_WRITE_ERROR"

	// CodeUnsupportedFormat is returned when the uploaded file's format is not supported.
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"

	// CodeFileTooLarge is returned when the file exceeds the maximum allowed size.
	CodeFileTooLarge = "FILE_TOO_LARGE"
)
