package filestore

import (
	"path/filepath"
	"strings"
)

// Format tags are normalized file extensions for the supported 3D model formats.
const (
	FormatSTL  = ".stl"
	FormatOBJ  = ".obj"
	FormatPLY  = ".ply"
	FormatSTEP = ".step"
	FormatSTP  = ".stp"
	FormatIGES = ".iges"
	FormatIGS  = ".igs"
	Format3MF  = ".3mf"
)

// MIME content types for 3D model formats. Most browsers and tools still
// upload these as application/octet-stream; the model/* types are used
// when serving files back for the viewer.
const (
	ContentTypeSTL         = "model/stl"
	ContentTypeOBJ         = "model/obj"
	ContentTypePLY         = "application/x-ply"
	ContentTypeSTEP        = "model/step"
	ContentTypeIGES        = "model/iges"
	ContentType3MF         = "model/3mf"
	ContentTypeGLTF        = "model/gltf+json"
	ContentTypeGLB         = "model/gltf-binary"
	ContentTypeOctetStream = "application/octet-stream"
)

// formatContentTypes maps format tags to the content type used when serving them.
var formatContentTypes = map[string]string{
	FormatSTL:  ContentTypeSTL,
	FormatOBJ:  ContentTypeOBJ,
	FormatPLY:  ContentTypePLY,
	FormatSTEP: ContentTypeSTEP,
	FormatSTP:  ContentTypeSTEP,
	FormatIGES: ContentTypeIGES,
	FormatIGS:  ContentTypeIGES,
	Format3MF:  ContentType3MF,
}

// NormalizeFormat extracts the lowercased extension of a filename as a format tag.
func NormalizeFormat(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// FormatAllowed reports whether the format tag is one of the supported 3D model formats.
func FormatAllowed(format string) bool {
	_, ok := formatContentTypes[format]
	return ok
}

// FormatContentType returns the content type to serve for a format tag.
// Unknown formats fall back to application/octet-stream.
func FormatContentType(format string) string {
	if ct, ok := formatContentTypes[format]; ok {
		return ct
	}
	return ContentTypeOctetStream
}

// ConvertibleFormat reports whether the format needs conversion to STL
// before the in-browser viewer can display it.
func ConvertibleFormat(format string) bool {
	switch format {
	case FormatSTEP, FormatSTP, FormatIGES, FormatIGS, Format3MF:
		return true
	default:
		return false
	}
}
