package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"losslessvault/internal/engine"
	"losslessvault/internal/progress"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var skipGroups bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan sources, hash photos and rebuild duplicate groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(c context.Context, eng *engine.Engine) error {
				out := cmd.OutOrStdout()

				scan, err := withProgress(cmd.ErrOrStderr(), func(obs progress.Observer) (engine.ScanReport, error) {
					return eng.Scan(c, obs)
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(out, printer.Sprintf("Scanned %d files in %d sources: %d hashed, %d unchanged, %d failed, %d removed",
					scan.Files, scan.Sources, scan.Hashed, scan.Unchanged, scan.Failed, scan.Removed))
				if scan.Missing > 0 {
					fmt.Fprintln(out, printer.Sprintf("%d sources could not be read and were left unchanged", scan.Missing))
				}
				if skipGroups {
					return nil
				}

				groups, err := withProgress(cmd.ErrOrStderr(), func(obs progress.Observer) (engine.GroupReport, error) {
					return eng.Group(c, obs)
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(out, printer.Sprintf("Found %d duplicate groups (%d redundant copies) among %d photos",
					groups.Groups, groups.Duplicates, groups.Photos))
				fmt.Fprintln(out, "Scan complete.")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&skipGroups, "no-group", false, "Skip rebuilding duplicate groups")
	return cmd
}
