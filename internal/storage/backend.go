package storage

import (
	"github.com/code19m/errx"
	"github.com/rise-and-shine/quote3d/internal/filestore"
	"github.com/rise-and-shine/quote3d/internal/filestore/localwr"
	"github.com/rise-and-shine/quote3d/internal/filestore/miniowr"
)

// NewBackend constructs the filestore backend selected by the configuration.
func NewBackend(cfg Config) (filestore.FileStore, error) {
	switch cfg.Backend {
	case BackendLocal:
		backend, err := localwr.New(cfg.Local)
		if err != nil {
			return nil, errx.Wrap(err)
		}
		return backend, nil

	case BackendMinio:
		if cfg.Minio == nil {
			return nil, errx.New("minio backend selected but minio config is missing")
		}
		backend, err := miniowr.New(*cfg.Minio)
		if err != nil {
			return nil, errx.Wrap(err)
		}
		return backend, nil

	default:
		return nil, errx.New(
			"unknown storage backend",
			errx.WithDetails(errx.D{"backend": cfg.Backend}),
		)
	}
}
