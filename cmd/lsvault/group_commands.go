package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"losslessvault/internal/catalog"
	"losslessvault/internal/photo"
)

type groupJSON struct {
	ID            int64       `json:"id"`
	Confidence    string      `json:"confidence"`
	SourceOfTruth int64       `json:"source_of_truth"`
	Members       []photoJSON `json:"members"`
}

func toGroupJSON(g photo.DuplicateGroup) groupJSON {
	out := groupJSON{
		ID:            g.ID,
		Confidence:    g.Confidence.String(),
		SourceOfTruth: g.SourceOfTruth,
		Members:       make([]photoJSON, 0, len(g.Members)),
	}
	for _, m := range g.Members {
		out.Members = append(out.Members, toPhotoJSON(m))
	}
	return out
}

func newGroupsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List duplicate groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(cmd, func(c context.Context, cat *catalog.Catalog) error {
				groups, err := cat.ListGroups(c)
				if err != nil {
					return err
				}
				if jsonOut {
					payload := make([]groupJSON, 0, len(groups))
					for _, g := range groups {
						payload = append(payload, toGroupJSON(g))
					}
					return writeJSON(cmd, payload)
				}

				out := cmd.OutOrStdout()
				if len(groups) == 0 {
					fmt.Fprintln(out, "No duplicate groups found. Run `lsvault scan` first.")
					return nil
				}
				rows := make([][]string, 0, len(groups))
				for _, g := range groups {
					sot := "?"
					if p, ok := g.SourceOfTruthPhoto(); ok {
						sot = p.Path
					}
					rows = append(rows, []string{
						strconv.FormatInt(g.ID, 10),
						g.Confidence.String(),
						strconv.Itoa(len(g.Members)),
						sot,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]column{{"ID", true}, {"Confidence", false}, {"Members", true}, {"Source of Truth", false}},
					rows,
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newGroupCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "group <id>",
		Short: "Show the members of a duplicate group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id < 1 {
				return fmt.Errorf("invalid group id %q", args[0])
			}
			return ctx.withCatalog(cmd, func(c context.Context, cat *catalog.Catalog) error {
				g, err := cat.GetGroup(c, id)
				if errors.Is(err, catalog.ErrNotFound) {
					return fmt.Errorf("group %d not found", id)
				}
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, toGroupJSON(g))
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Group #%d (%s)\n", g.ID, g.Confidence)
				rows := make([][]string, 0, len(g.Members))
				for _, m := range g.Members {
					marker := ""
					if m.ID == g.SourceOfTruth {
						marker = "SOURCE"
					}
					rows = append(rows, []string{
						strconv.FormatInt(m.ID, 10),
						m.Format.String(),
						formatBytes(m.Size),
						m.Path,
						marker,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]column{{"ID", true}, {"Format", false}, {"Size", true}, {"Path", false}, {"", false}},
					rows,
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
