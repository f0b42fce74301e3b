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
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>",
		Short: "Register a source directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			info, err := os.Stat(dir)
			if err != nil {
				return fmt.Errorf("inspect source %q: %w", dir, err)
			}
			if !info.IsDir() {
				return fmt.Errorf("source %s is not a directory", dir)
			}

			return ctx.withEngine(cmd, func(c context.Context, eng *engine.Engine) error {
				src, added, err := eng.Catalog().AddSource(c, dir)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !added {
					fmt.Fprintf(out, "Source already registered: %s\n", src.Path)
					return nil
				}
				fmt.Fprintf(out, "Added source: %s\n", src.Path)
				return nil
			})
		},
	}
}

func newSourcesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List registered source directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(cmd, func(c context.Context, cat *catalog.Catalog) error {
				sources, err := cat.ListSources(c)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(sources) == 0 {
					fmt.Fprintln(out, "No sources registered. Use `lsvault add <path>` to add one.")
					return nil
				}
				rows := make([][]string, 0, len(sources))
				for _, src := range sources {
					rows = append(rows, []string{strconv.FormatInt(src.ID, 10), src.Path, formatScanned(src.LastScanned)})
				}
				fmt.Fprintln(out, renderTable([]column{{"ID", true}, {"Path", false}, {"Last Scanned", false}}, rows))
				return nil
			})
		},
	}
}
