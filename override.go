// FILE: override.go
package mongolog

import (
	"fmt"
	"strconv"
	"strings"
)

// ApplyOverride applies "key=value" overrides to a copy of the configuration and returns
// the validated result. The receiver is left unchanged.
//
// Example:
//
//	cfg, err := mongolog.DefaultConfig().ApplyOverride(
//	    "directory=/var/log/app",
//	    "gzip=true",
//	    "max_log_file_count=50",
//	)
func (c *Config) ApplyOverride(overrides ...string) (*Config, error) {
	cfg := c.Clone()

	var errors []error

	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err != nil {
			errors = append(errors, err)
			continue
		}

		if err := applyConfigField(cfg, key, value); err != nil {
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return nil, combineConfigErrors(errors)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// combineConfigErrors combines multiple configuration errors into a single error.
func combineConfigErrors(errors []error) error {
	if len(errors) == 0 {
		return nil
	}
	if len(errors) == 1 {
		return errors[0]
	}

	var sb strings.Builder
	sb.WriteString(errPrefix + "multiple configuration errors:")
	for i, err := range errors {
		// Remove prefix from individual errors to avoid duplication
		errMsg := strings.TrimPrefix(err.Error(), errPrefix)
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, errMsg))
	}
	return fmt.Errorf("%s", sb.String())
}

// applyConfigField applies a single key-value override to a Config.
func applyConfigField(cfg *Config, key, value string) error {
	switch key {
	case "directory":
		cfg.Directory = value

	case "gzip":
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid boolean value for gzip '%s': %w", value, err)
		}
		cfg.Gzip = boolVal

	case "retention_days":
		floatVal, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmtErrorf("invalid float value for retention_days '%s': %w", value, err)
		}
		cfg.RetentionDays = floatVal

	case "max_log_file_count":
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for max_log_file_count '%s': %w", value, err)
		}
		cfg.MaxLogFileCount = intVal

	case "cleanup_interval_mins":
		floatVal, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmtErrorf("invalid float value for cleanup_interval_mins '%s': %w", value, err)
		}
		cfg.CleanupIntervalMins = floatVal

	case "buffer_size":
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for buffer_size '%s': %w", value, err)
		}
		cfg.BufferSize = intVal

	case "internal_errors_to_stderr":
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid boolean value for internal_errors_to_stderr '%s': %w", value, err)
		}
		cfg.InternalErrorsToStderr = boolVal

	default:
		return fmtErrorf("unknown config key in override: %s", key)
	}

	return nil
}
