package storage

import (
	"time"

	"github.com/rise-and-shine/quote3d/internal/filestore/localwr"
	"github.com/rise-and-shine/quote3d/internal/filestore/miniowr"
)

// Backend kinds selectable via configuration.
const (
	BackendLocal = "local"
	BackendMinio = "minio"
)

// Config defines configuration options for the storage subsystem.
type Config struct {
	// Backend selects the storage backend implementation.
	Backend string `yaml:"backend" validate:"oneof=local minio" default:"local"`

	// Retention is the maximum age of a stored object before it becomes
	// eligible for automatic deletion by the sweep. Default is 24 hours.
	Retention time.Duration `yaml:"retention" validate:"required" default:"24h"`

	// SweepInterval is how often the background sweeper runs. Default is 1 hour.
	SweepInterval time.Duration `yaml:"sweep_interval" validate:"required" default:"1h"`

	// Local configures the local-disk backend. Used when Backend is "local".
	Local localwr.Config `yaml:"local"`

	// Minio configures the MinIO backend. Required when Backend is "minio";
	// left nil (and not validated) otherwise.
	Minio *miniowr.Config `yaml:"minio" validate:"required_if=Backend minio,omitempty"`
}
