package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"losslessvault/internal/catalog"
	"losslessvault/internal/engine"
	"losslessvault/internal/export"
	"losslessvault/internal/progress"
	"losslessvault/internal/vault"
)

func newVaultCommand(ctx *commandContext) *cobra.Command {
	vaultCmd := &cobra.Command{
		Use:   "vault",
		Short: "Manage the lossless vault and HEIC export",
	}

	vaultCmd.AddCommand(newVaultSetCommand(ctx))
	vaultCmd.AddCommand(newVaultShowCommand(ctx))
	vaultCmd.AddCommand(newVaultSaveCommand(ctx))
	vaultCmd.AddCommand(newExportSetCommand(ctx))
	vaultCmd.AddCommand(newExportShowCommand(ctx))
	vaultCmd.AddCommand(newExportCommand(ctx))

	return vaultCmd
}

func newVaultSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <path>",
		Short: "Set the vault directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(c context.Context, eng *engine.Engine) error {
				resolved, err := eng.SetVaultPath(c, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Vault path set to: %s\n", resolved)
				return nil
			})
		},
	}
}

func newVaultShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the vault directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withCatalog(cmd, func(c context.Context, cat *catalog.Catalog) error {
				path, err := engine.VaultPath(c, cat, cfg)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if path == "" {
					fmt.Fprintln(out, "No vault path configured. Use `lsvault vault set <path>` to set one.")
					return nil
				}
				fmt.Fprintf(out, "Vault path: %s\n", path)
				return nil
			})
		},
	}
}

func newVaultSaveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Copy the best copy of every photo into the vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(c context.Context, eng *engine.Engine) error {
				report, err := withProgress(cmd.ErrOrStderr(), func(obs progress.Observer) (vault.SaveReport, error) {
					return eng.Save(c, obs)
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, printer.Sprintf("Vault save: %d copied (%s), %d already present, %d removed",
					report.Copied, formatBytes(report.CopiedBytes), report.Skipped, report.Removed))
				if report.Failed > 0 {
					fmt.Fprintln(out, printer.Sprintf("%d files failed; see the log for details", report.Failed))
				}
				return nil
			})
		},
	}
}

func newExportSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export-set <path>",
		Short: "Set the HEIC export directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(c context.Context, eng *engine.Engine) error {
				resolved, err := eng.SetExportPath(c, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Export path set to: %s\n", resolved)
				return nil
			})
		},
	}
}

func newExportShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export-show",
		Short: "Show the HEIC export directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withCatalog(cmd, func(c context.Context, cat *catalog.Catalog) error {
				path, err := engine.ExportPath(c, cat, cfg)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if path == "" {
					fmt.Fprintln(out, "No export path configured. Use `lsvault vault export-set <path>` to set one.")
					return nil
				}
				fmt.Fprintf(out, "Export path: %s\n", path)
				return nil
			})
		},
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var quality int

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Convert the best copy of every photo to HEIC",
		RunE: func(cmd *cobra.Command, args []string) error {
			if quality < 0 || quality > 100 {
				return fmt.Errorf("--quality must be between 1 and 100, got %d", quality)
			}
			return ctx.withEngine(cmd, func(c context.Context, eng *engine.Engine) error {
				report, err := withProgress(cmd.ErrOrStderr(), func(obs progress.Observer) (export.Report, error) {
					return eng.Export(c, quality, obs)
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, printer.Sprintf("Export: %d converted, %d already present, %d failed",
					report.Converted, report.Skipped, report.Failed))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&quality, "quality", "q", 0, "HEIC quality 1-100 (default from config)")
	return cmd
}
