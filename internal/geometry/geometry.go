// Package geometry defines the interfaces to the external mesh analysis and
// format conversion services. All actual geometry work (volume, surface
// area, bounding box, CAD conversion) happens outside this process; this
// package only carries the contracts and the wire types.
package geometry

import (
	"context"
	"io"
)

// Error codes for geometry operations. Analysis failures are distinct from
// storage failures: the file may have been stored successfully but could
// not be analyzed.
const (
	CodeAnalysisFailed   = "GEOMETRY_ANALYSIS_FAILED"
	CodeConversionFailed = "FILE_CONVERSION_FAILED"
)

// BoundingBox is the axis-aligned bounding box of a mesh, in millimeters.
type BoundingBox struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MinZ float64 `json:"min_z"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
	MaxZ float64 `json:"max_z"`

	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
}

// Analysis is the geometry report produced by the external analyzer.
type Analysis struct {
	Volume        float64     `json:"volume"`       // cm³
	SurfaceArea   float64     `json:"surface_area"` // cm²
	BoundingBox   BoundingBox `json:"bounding_box"`
	TriangleCount int         `json:"triangle_count"`
	VertexCount   int         `json:"vertex_count"`
	IsWatertight  bool        `json:"is_watertight"`
	HasHoles      bool        `json:"has_holes"`
	Units         string      `json:"units"`
}

// Analyzer produces a geometry report for a 3D model file, or fails with a
// CodeAnalysisFailed error.
type Analyzer interface {
	Analyze(ctx context.Context, r io.Reader, filename string) (*Analysis, error)
}

// Converter converts CAD formats (STEP/IGES/3MF) to STL for the in-browser
// viewer, or fails with a CodeConversionFailed error.
type Converter interface {
	ConvertToSTL(ctx context.Context, r io.Reader, filename string) (io.ReadCloser, error)
}
