package geometry

import "time"

// Config defines configuration options for the remote geometry service client.
type Config struct {
	// Enabled turns geometry analysis on. When false, uploads skip
	// analysis and return a null geometry report.
	Enabled bool `yaml:"enabled" default:"false"`

	// BaseURL is the base URL of the geometry service. Required when enabled.
	BaseURL string `yaml:"base_url" validate:"required_if=Enabled true,omitempty,url"`

	// Timeout bounds each call to the geometry service. Default is 60 seconds;
	// analyzing a large mesh is slow.
	Timeout time.Duration `yaml:"timeout" validate:"required" default:"60s"`

	// MaxRetries is the number of attempts per call. Default is 3.
	MaxRetries uint `yaml:"max_retries" validate:"required" default:"3"`
}
