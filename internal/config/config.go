// Package config defines the top-level service configuration, loaded once at
// startup by pkg/cfgloader from ./config/${ENVIRONMENT}.yaml.
package config

import (
	"github.com/rise-and-shine/quote3d/internal/geometry"
	"github.com/rise-and-shine/quote3d/internal/storage"
	"github.com/rise-and-shine/quote3d/pkg/http/server"
	"github.com/rise-and-shine/quote3d/pkg/logger"
)

// Config is the root configuration for the quote3d service.
type Config struct {
	Service  Service         `yaml:"service"`
	Server   server.Config   `yaml:"server"`
	Logger   logger.Config   `yaml:"logger"`
	Storage  storage.Config  `yaml:"storage"`
	Geometry geometry.Config `yaml:"geometry"`
}

// Service identifies the running service.
type Service struct {
	Name    string `yaml:"name" validate:"required"`
	Version string `yaml:"version" default:"0.0.0"`
}
