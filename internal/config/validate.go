package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOrganize(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateOrganize() error {
	if c.Organize.DecodeTimeoutSeconds < 0 {
		return errors.New("organize.decode_timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

// ValidatePipelineDirs checks that the three pipeline directories are set
// and that the output and duplicate roots are distinct.
func (c *Config) ValidatePipelineDirs() error {
	if c.Paths.InputDir == "" {
		return errors.New("paths.input_dir must be set (or pass --input)")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set (or pass --output)")
	}
	if c.Paths.DuplicateDir == "" {
		return errors.New("paths.duplicate_dir must be set (or pass --duplicates)")
	}
	if c.Paths.OutputDir == c.Paths.DuplicateDir {
		return errors.New("paths.output_dir and paths.duplicate_dir must differ")
	}
	return nil
}
