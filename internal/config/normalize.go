package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.applyEnv()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExport()
	c.normalizeLogging()
	return nil
}

func (c *Config) applyEnv() {
	if value, ok := os.LookupEnv("LSVAULT_CATALOG"); ok && strings.TrimSpace(value) != "" {
		c.Paths.Catalog = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("LSVAULT_VAULT_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.VaultDir = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("LSVAULT_EXPORT_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.ExportDir = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("LSVAULT_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = strings.TrimSpace(value)
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.Catalog) == "" {
		c.Paths.Catalog = defaultCatalogPath
	}
	if c.Paths.Catalog, err = expandPath(c.Paths.Catalog); err != nil {
		return fmt.Errorf("paths.catalog: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.VaultDir, err = expandPath(strings.TrimSpace(c.Paths.VaultDir)); err != nil {
		return fmt.Errorf("paths.vault_dir: %w", err)
	}
	if c.Paths.ExportDir, err = expandPath(strings.TrimSpace(c.Paths.ExportDir)); err != nil {
		return fmt.Errorf("paths.export_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeExport() {
	c.Export.Converter = strings.TrimSpace(c.Export.Converter)
	if c.Export.Converter == "" {
		c.Export.Converter = defaultExportConverter
	}
	if c.Export.TimeoutSeconds <= 0 {
		c.Export.TimeoutSeconds = defaultConverterTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
