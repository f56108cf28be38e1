// FILE: config.go
package mongolog

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lixenwraith/config"
)

// Config holds all manager configuration values
type Config struct {
	// Base directory for log files
	Directory string `toml:"directory" validate:"required"`
	// Write <id>_log.gz files, sync-flushed after every record
	Gzip bool `toml:"gzip"`

	// Retention
	RetentionDays       float64 `toml:"retention_days" validate:"gt=0"`         // Age after which files are deleted
	MaxLogFileCount     int64   `toml:"max_log_file_count" validate:"gte=0"`    // Newest files kept (0=unlimited)
	CleanupIntervalMins float64 `toml:"cleanup_interval_mins" validate:"gte=0"` // Periodic cleanup interval for RunCleanup

	// Writer queue size
	BufferSize int64 `toml:"buffer_size" validate:"gt=0"`

	// Internal error handling
	InternalErrorsToStderr bool `toml:"internal_errors_to_stderr"` // Report unhandled errors to stderr
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	Directory: "./logs",
	Gzip:      false,

	RetentionDays:       30,
	MaxLogFileCount:     0,
	CleanupIntervalMins: 60,

	BufferSize: defaultBufferSize,

	InternalErrorsToStderr: false,
}

// configPrefix is the key prefix used for TOML configuration
const configPrefix = "mongolog."

// validate is shared; validator caches struct metadata
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report toml key names instead of Go field names
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	// Create a copy to prevent modifications to the original
	copiedConfig := defaultConfig
	return &copiedConfig
}

// NewConfigFromFile loads configuration from a TOML file and returns a validated Config.
// Keys live under the [mongolog] table; a missing file yields the defaults.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Use lixenwraith/config as a loader
	loader := config.New()

	// Register the struct to enable proper unmarshaling
	if err := loader.RegisterStruct(configPrefix, *cfg); err != nil {
		return nil, fmtErrorf("failed to register config struct: %w", err)
	}

	// Load from file (handles file not found gracefully)
	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmtErrorf("failed to load config from %s: %w", path, err)
	}

	// Extract values into our Config struct
	if err := extractConfig(loader, configPrefix, cfg); err != nil {
		return nil, fmtErrorf("failed to extract config values: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewConfigFromDefaults creates a Config with default values and applies overrides
func NewConfigFromDefaults(overrides map[string]any) (*Config, error) {
	cfg := DefaultConfig()

	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, fmtErrorf("failed to apply overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// extractConfig extracts values from lixenwraith/config into our Config struct
func extractConfig(loader *config.Config, prefix string, cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}

		val, found := loader.Get(prefix + tomlTag)
		if !found {
			continue // Use default value
		}

		if err := setFieldValue(v.Field(i), val); err != nil {
			return fmt.Errorf("failed to set field %s: %w", field.Name, err)
		}
	}

	return nil
}

// applyOverrides applies a map of overrides keyed by toml name
func applyOverrides(cfg *Config, overrides map[string]any) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	fieldMap := make(map[string]reflect.Value)
	for i := 0; i < t.NumField(); i++ {
		if tomlTag := t.Field(i).Tag.Get("toml"); tomlTag != "" {
			fieldMap[tomlTag] = v.Field(i)
		}
	}

	for key, value := range overrides {
		fieldValue, exists := fieldMap[key]
		if !exists {
			return fmt.Errorf("unknown config key: %s", key)
		}

		if err := setFieldValue(fieldValue, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	return nil
}

// setFieldValue sets a reflect.Value with proper type conversion
func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		field.SetString(strVal)

	case reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("expected int64, got %T", value)
		}

	case reflect.Float64:
		// TOML integers are accepted for float fields
		switch v := value.(type) {
		case float64:
			field.SetFloat(v)
		case int64:
			field.SetFloat(float64(v))
		case int:
			field.SetFloat(float64(v))
		default:
			return fmt.Errorf("expected float64, got %T", value)
		}

	case reflect.Bool:
		boolVal, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

// Validate checks field constraints and cross-field rules
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmtErrorf("invalid configuration: %w", err)
		}
		errs := make([]error, 0, len(verrs))
		for _, fe := range verrs {
			errs = append(errs, fmtErrorf("invalid %s: failed '%s' constraint (value %v)", fe.Field(), fe.ActualTag(), fe.Value()))
		}
		return combineConfigErrors(errs)
	}

	if strings.TrimSpace(c.Directory) == "" {
		return fmtErrorf("directory cannot be blank")
	}

	if math.IsInf(c.RetentionDays, 0) || math.IsNaN(c.RetentionDays) {
		return fmtErrorf("retention_days must be finite: %v", c.RetentionDays)
	}

	if math.IsInf(c.CleanupIntervalMins, 0) || math.IsNaN(c.CleanupIntervalMins) {
		return fmtErrorf("cleanup_interval_mins must be finite: %v", c.CleanupIntervalMins)
	}

	return nil
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}
