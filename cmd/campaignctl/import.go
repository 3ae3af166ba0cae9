package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"adsimport/internal/domain"
	"adsimport/internal/usecase"
)

type importOutcome struct {
	File   string               `json:"file"`
	Result *domain.ImportResult `json:"result,omitempty"`
	Error  string               `json:"error,omitempty"`
}

func newImportCmd(c *cli) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import campaign reports into the store",
		Long: `Parses each report and replaces the stored campaigns of its period.
Files are parsed concurrently and merged in the order given, so a later
file for the same month wins.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uploads := make([]usecase.Upload, 0, len(args))
			for _, path := range args {
				data, err := readUpload(path)
				if err != nil {
					return err
				}
				uploads = append(uploads, usecase.Upload{Filename: filepath.Base(path), Data: data})
			}

			outcomes := c.services.Imports.ImportAll(cmd.Context(), uploads, workers)

			out := make([]importOutcome, len(outcomes))
			failed := 0
			for i, o := range outcomes {
				out[i] = importOutcome{File: args[i], Result: o.Result}
				if o.Err != nil {
					out[i].Error = o.Err.Error()
					failed++
				}
			}
			if err := printJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d imports failed", failed, len(outcomes))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 4, "number of files parsed concurrently")
	return cmd
}

func newParseCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "parse FILE",
		Short: "Parse a report and print the campaigns without storing them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readUpload(args[0])
			if err != nil {
				return err
			}

			res, source, err := c.services.Imports.Parse(cmd.Context(), usecase.Upload{
				Filename: filepath.Base(args[0]),
				Data:     data,
			})
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), map[string]any{
				"recognized": res.Recognized(),
				"source":     source,
				"campaigns":  res.Campaigns,
				"report":     res.Report,
			})
		},
	}
}
