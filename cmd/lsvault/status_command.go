package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"losslessvault/internal/catalog"
	"losslessvault/internal/config"
	"losslessvault/internal/engine"
	"losslessvault/internal/manifest"
	"losslessvault/internal/photo"
	"losslessvault/internal/preflight"
)

type checkJSON struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional"`
	Detail   string `json:"detail"`
}

type photoJSON struct {
	ID          int64  `json:"id"`
	Path        string `json:"path"`
	Format      string `json:"format"`
	Size        int64  `json:"size"`
	ContentHash string `json:"content_hash"`
	CaptureDate string `json:"capture_date,omitempty"`
}

type statusJSON struct {
	Catalog    string      `json:"catalog"`
	Sources    int         `json:"sources"`
	Photos     int         `json:"photos"`
	Groups     int         `json:"groups"`
	Duplicates int         `json:"duplicates"`
	TotalBytes int64       `json:"total_bytes"`
	VaultPath  string      `json:"vault_path,omitempty"`
	VaultFiles *int        `json:"vault_files,omitempty"`
	ExportPath string      `json:"export_path,omitempty"`
	Checks     []checkJSON `json:"checks"`
	Files      []photoJSON `json:"files,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var showFiles bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show catalog, vault and environment status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withCatalog(cmd, func(c context.Context, cat *catalog.Catalog) error {
				status, err := collectStatus(c, cat, cfg, showFiles)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, status)
				}
				printStatus(cmd, status)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&showFiles, "files", false, "List every catalogued photo")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func collectStatus(ctx context.Context, cat *catalog.Catalog, cfg *config.Config, withFiles bool) (statusJSON, error) {
	stats, err := cat.Stats(ctx)
	if err != nil {
		return statusJSON{}, err
	}
	vaultPath, err := engine.VaultPath(ctx, cat, cfg)
	if err != nil {
		return statusJSON{}, err
	}
	exportPath, err := engine.ExportPath(ctx, cat, cfg)
	if err != nil {
		return statusJSON{}, err
	}

	status := statusJSON{
		Catalog:    cat.Path(),
		Sources:    stats.Sources,
		Photos:     stats.Photos,
		Groups:     stats.Groups,
		Duplicates: stats.Duplicates,
		TotalBytes: stats.TotalBytes,
		VaultPath:  vaultPath,
		ExportPath: exportPath,
	}

	if vaultPath != "" {
		if _, err := os.Stat(manifest.PathFor(vaultPath)); err == nil {
			m, err := manifest.Open(ctx, vaultPath)
			if err != nil {
				return statusJSON{}, err
			}
			n, err := m.Count(ctx)
			_ = m.Close()
			if err != nil {
				return statusJSON{}, err
			}
			status.VaultFiles = &n
		}
	}

	effective := *cfg
	effective.Paths.VaultDir = vaultPath
	effective.Paths.ExportDir = exportPath
	for _, r := range preflight.RunAll(&effective) {
		status.Checks = append(status.Checks, checkJSON{Name: r.Name, Passed: r.Passed, Optional: r.Optional, Detail: r.Detail})
	}

	if withFiles {
		photos, err := cat.ListPhotos(ctx, nil)
		if err != nil {
			return statusJSON{}, err
		}
		status.Files = make([]photoJSON, 0, len(photos))
		for _, p := range photos {
			status.Files = append(status.Files, toPhotoJSON(p))
		}
	}
	return status, nil
}

func toPhotoJSON(p photo.Photo) photoJSON {
	out := photoJSON{
		ID:          p.ID,
		Path:        p.Path,
		Format:      p.Format.String(),
		Size:        p.Size,
		ContentHash: p.ContentHash,
	}
	if p.Metadata != nil {
		out.CaptureDate = p.Metadata.CaptureDate
	}
	return out
}

func printStatus(cmd *cobra.Command, status statusJSON) {
	out := cmd.OutOrStdout()
	r := newReport(out)

	r.section("Catalog")
	r.value("Catalog", status.Catalog)
	r.value("Sources", formatCount(status.Sources))
	r.value("Photos", fmt.Sprintf("%s (%s)", formatCount(status.Photos), formatBytes(status.TotalBytes)))
	r.value("Duplicate groups", formatCount(status.Groups))
	r.value("Redundant copies", formatCount(status.Duplicates))

	r.section("Vault")
	if status.VaultPath == "" {
		r.check("Vault", checkWarn, "not configured (lsvault vault set <path>)")
	} else {
		r.value("Vault", status.VaultPath)
		files := "never saved"
		if status.VaultFiles != nil {
			files = formatCount(*status.VaultFiles)
		}
		r.value("Vault files", files)
	}
	if status.ExportPath == "" {
		r.check("Export", checkInfo, "not configured")
	} else {
		r.value("Export", status.ExportPath)
	}

	r.section("Checks")
	for _, c := range status.Checks {
		kind := checkOK
		if !c.Passed {
			kind = checkFailed
			if c.Optional {
				kind = checkWarn
			}
		}
		r.check(c.Name, kind, c.Detail)
	}
	r.flush()

	if len(status.Files) > 0 {
		fmt.Fprintln(out)
		rows := make([][]string, 0, len(status.Files))
		for _, f := range status.Files {
			rows = append(rows, []string{strconv.FormatInt(f.ID, 10), f.Format, formatBytes(f.Size), f.Path})
		}
		fmt.Fprintln(out, renderTable([]column{{"ID", true}, {"Format", false}, {"Size", true}, {"Path", false}}, rows))
	}
}
