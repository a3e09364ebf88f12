package localwr

// Config defines the configuration options for the local-disk backend.
type Config struct {
	// Dir is the directory where uploaded files are stored.
	// Created on startup if it does not exist.
	Dir string `yaml:"dir" default:"uploads"`
}
