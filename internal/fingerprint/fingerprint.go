// Package fingerprint computes content fingerprints for uploaded files.
//
// A fingerprint is the hex-encoded SHA-256 digest of the file bytes and is
// independent of the filename: two files with identical content always map
// to the same fingerprint. It is the sole identity key for duplicate
// detection within an upload session.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/code19m/errx"
)

// Fingerprint is a hex-encoded SHA-256 content digest (64 characters).
type Fingerprint string

// Compute streams the reader through SHA-256 and returns the fingerprint
// together with the number of bytes consumed. Read errors are propagated.
func Compute(r io.Reader) (Fingerprint, int64, error) {
	h := sha256.New()

	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, errx.Wrap(err)
	}

	return Fingerprint(hex.EncodeToString(h.Sum(nil))), n, nil
}

// FromBytes computes the fingerprint of an in-memory byte slice.
func FromBytes(b []byte) Fingerprint {
	sum := sha256.Sum256(b)
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// String returns the fingerprint as a plain string.
func (f Fingerprint) String() string {
	return string(f)
}
