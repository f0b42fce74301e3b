package engine

import (
	"context"
	"fmt"
	"os"
	"strings"

	"losslessvault/internal/catalog"
	"losslessvault/internal/config"
)

// VaultPath resolves the vault root: the catalog setting first, then the
// configured default. An empty result means no vault is configured.
func VaultPath(ctx context.Context, cat *catalog.Catalog, cfg *config.Config) (string, error) {
	return resolvePath(ctx, cat, catalog.SettingVaultPath, cfg.Paths.VaultDir)
}

// ExportPath resolves the export root the same way as VaultPath.
func ExportPath(ctx context.Context, cat *catalog.Catalog, cfg *config.Config) (string, error) {
	return resolvePath(ctx, cat, catalog.SettingExportPath, cfg.Paths.ExportDir)
}

func resolvePath(ctx context.Context, cat *catalog.Catalog, key, fallback string) (string, error) {
	value, ok, err := cat.Setting(ctx, key)
	if err != nil {
		return "", err
	}
	if ok && strings.TrimSpace(value) != "" {
		return value, nil
	}
	return fallback, nil
}

// SetVaultPath creates dir if needed and records it as the vault root.
func (e *Engine) SetVaultPath(ctx context.Context, dir string) (string, error) {
	return e.setPath(ctx, catalog.SettingVaultPath, dir)
}

// SetExportPath creates dir if needed and records it as the export root.
func (e *Engine) SetExportPath(ctx context.Context, dir string) (string, error) {
	return e.setPath(ctx, catalog.SettingExportPath, dir)
}

func (e *Engine) setPath(ctx context.Context, key, dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("%s requires a directory", key)
	}
	resolved, err := config.ExpandPath(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(resolved, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", resolved, err)
	}
	if err := e.catalog.SetSetting(ctx, key, resolved); err != nil {
		return "", err
	}
	return resolved, nil
}
