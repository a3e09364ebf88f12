// Package cfgloader provides a simple way to load and validate configuration at the start of an application.
package cfgloader

import (
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvProduction = "production"
	EnvStaging    = "staging"
	EnvDev        = "dev"
	EnvLocal      = "local"
	EnvTest       = "test"
)

// MustLoad loads and validates configuration from a YAML file based on the ENVIRONMENT variable.
// The files must be named in the format ${ENVIRONMENT}.yaml and located in the config directory
// at the root of the project.
//
// The configuration struct should use `yaml` struct tags to map fields to the YAML file structure.
// Environment variable references in the file (e.g. ${MINIO_SECRET_KEY}) are expanded before
// unmarshaling, so secrets can stay out of the file itself.
//
// Default values can be set using the `default` struct tag; they are applied before validation
// for fields the YAML file leaves unset. Validations use the go-playground/validator package.
//
// Example:
//
//	type Config struct {
//	    Host     string `yaml:"host" validate:"required"`
//	    Port     int    `yaml:"port" default:"8080"`
//	    LogLevel string `yaml:"log_level" default:"info"`
//	}
//
// On any failure MustLoad logs the reason and exits the process: a service with a broken
// configuration must not come up.
func MustLoad[T any](opts ...Option) T {
	var config T

	options := Options{}
	for _, opt := range opts {
		opt(&options)
	}

	if reflect.ValueOf(config).Kind() == reflect.Ptr {
		fail("arg config must not be a pointer")
	}

	_ = godotenv.Load()

	env := os.Getenv("ENVIRONMENT")
	if !slices.Contains([]string{EnvProduction, EnvStaging, EnvDev, EnvLocal, EnvTest}, env) {
		fail("ENVIRONMENT env variable is not set or invalid. Choices are: production, staging, dev, local, test")
	}

	path := fmt.Sprintf("./config/%s.yaml", env)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		fail(fmt.Sprintf("config file not found in the path %s - make sure the yaml file exists for each environment", path))
	}
	if err != nil {
		fail(fmt.Sprintf("failed to read config file %s: %v", path, err))
	}

	data = []byte(os.ExpandEnv(string(data)))

	if err := yaml.Unmarshal(data, &config); err != nil {
		fail(fmt.Sprintf("failed to unmarshal %s config file: %v", env, err))
	}

	if err := defaults.Set(&config); err != nil {
		fail(fmt.Sprintf("failed to set default values for config: %v", err))
	}

	validateConfig(&config, env)

	if !options.Silent {
		printConfig(config)
	}

	return config
}

func validateConfig(config any, env string) {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(config)

	failedFields := make([]string, 0)
	if errs, ok := err.(validator.ValidationErrors); ok { //nolint:errorlint // type assertion for validator errors handling
		for _, err := range errs {
			tagErr := err.Tag()
			if err.Param() != "" {
				tagErr += fmt.Sprintf("=%s", err.Param())
			}
			failedFields = append(failedFields, fmt.Sprintf("%s: %s", err.Namespace(), tagErr))
		}
	}

	if len(failedFields) > 0 {
		fail(fmt.Sprintf("invalid fields in %s config -> %s", env, strings.Join(failedFields, ",  ")))
	}
}

func fail(msg string) {
	slog.Error("[cfgloader]: " + msg)
	os.Exit(1)
}
