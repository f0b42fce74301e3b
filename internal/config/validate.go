package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateHashing(); err != nil {
		return err
	}
	if err := c.validateVault(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateHashing() error {
	if c.Hashing.Workers < 0 {
		return errors.New("hashing.workers must be zero (auto) or positive")
	}
	return nil
}

func (c *Config) validateVault() error {
	if c.Vault.MinFreeMiB < 0 {
		return errors.New("vault.min_free_mib must not be negative")
	}
	return nil
}

func (c *Config) validateExport() error {
	if c.Export.Quality < 1 || c.Export.Quality > 100 {
		return fmt.Errorf("export.quality must be between 1 and 100, got %d", c.Export.Quality)
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
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
