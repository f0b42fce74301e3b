package preflight

import (
	"path/filepath"

	"losslessvault/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Catalog directory", filepath.Dir(cfg.Paths.Catalog)))

	if cfg.Paths.VaultDir != "" {
		vault := CheckDirectoryAccess("Vault directory", cfg.Paths.VaultDir)
		results = append(results, vault)
		if vault.Passed {
			results = append(results, CheckFreeSpace("Vault free space", cfg.Paths.VaultDir, cfg.MinFreeBytes()))
		}
	}

	if cfg.Paths.ExportDir != "" {
		results = append(results, CheckDirectoryAccess("Export directory", cfg.Paths.ExportDir))
	}

	if cfg.Hashing.ExifTool {
		results = append(results, CheckBinary("ExifTool", "exiftool", true))
	}

	if cfg.Export.Converter != "" {
		results = append(results, CheckBinary("HEIC converter", cfg.Export.Converter, true))
	}

	return results
}
