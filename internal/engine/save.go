package engine

import (
	"context"

	"losslessvault/internal/export"
	"losslessvault/internal/manifest"
	"losslessvault/internal/progress"
	"losslessvault/internal/vault"
)

// Save synchronizes the vault with the export set of the recorded groups.
func (e *Engine) Save(ctx context.Context, observer progress.Observer) (vault.SaveReport, error) {
	ctx, runID, _ := e.begin(ctx, "save")

	root, err := VaultPath(ctx, e.catalog, e.cfg)
	if err != nil {
		return vault.SaveReport{}, err
	}
	if root == "" {
		return vault.SaveReport{}, vault.ErrNoVault
	}

	photos, err := e.catalog.ListPhotos(ctx, nil)
	if err != nil {
		return vault.SaveReport{}, err
	}
	groups, err := e.catalog.ListGroups(ctx)
	if err != nil {
		return vault.SaveReport{}, err
	}

	m, err := manifest.Open(ctx, root)
	if err != nil {
		return vault.SaveReport{}, err
	}
	defer m.Close()

	syncer := vault.NewSyncer(vault.Options{
		Root:         root,
		Verify:       e.cfg.Vault.VerifyCopies,
		MinFreeBytes: e.cfg.MinFreeBytes(),
		Logger:       e.logger,
	})
	return syncer.Save(ctx, runID, photos, groups, m, observer)
}

// Export converts the export set of the recorded groups to HEIC. A zero
// quality uses the configured default.
func (e *Engine) Export(ctx context.Context, quality int, observer progress.Observer) (export.Report, error) {
	ctx, runID, _ := e.begin(ctx, "export")

	root, err := ExportPath(ctx, e.catalog, e.cfg)
	if err != nil {
		return export.Report{}, err
	}
	if root == "" {
		return export.Report{}, export.ErrNoExportDir
	}
	if quality == 0 {
		quality = e.cfg.Export.Quality
	}

	photos, err := e.catalog.ListPhotos(ctx, nil)
	if err != nil {
		return export.Report{}, err
	}
	groups, err := e.catalog.ListGroups(ctx)
	if err != nil {
		return export.Report{}, err
	}

	exporter := export.New(export.Options{
		Root:      root,
		Quality:   quality,
		Converter: e.converter,
		Logger:    e.logger,
	})
	return exporter.Run(ctx, runID, photos, groups, observer)
}
