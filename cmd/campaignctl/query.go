package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"adsimport/internal/domain"
)

func parsePeriodFlag(raw string) (*domain.PeriodKey, error) {
	if raw == "" {
		return nil, nil
	}
	key, err := domain.ParsePeriodKey(raw)
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func newListCmd(c *cli) *cobra.Command {
	var (
		period string
		filter domain.CampaignFilter
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored campaigns",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parsePeriodFlag(period)
			if err != nil {
				return err
			}
			filter.Period = key

			page, err := c.services.Reports.ListCampaigns(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}

	cmd.Flags().StringVar(&period, "period", "", "reporting month (YYYY-MM)")
	cmd.Flags().StringVar(&filter.Status, "status", "", "campaign status")
	cmd.Flags().StringVar(&filter.Type, "type", "", "campaign type")
	cmd.Flags().StringVar(&filter.Name, "name", "", "name substring")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "page size (default 100)")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "page offset")
	return cmd
}

func newSummaryCmd(c *cli) *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print totals and derived ratios per reporting month",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parsePeriodFlag(period)
			if err != nil {
				return err
			}

			summaries, err := c.services.Reports.Summaries(cmd.Context(), key)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summaries)
		},
	}

	cmd.Flags().StringVar(&period, "period", "", "reporting month (YYYY-MM)")
	return cmd
}

func newExportCmd(c *cli) *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Send one reporting month to the configured export sink",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parsePeriodFlag(period)
			if err != nil {
				return err
			}
			if key == nil {
				return fmt.Errorf("--period is required")
			}

			count, err := c.services.Reports.ExportPeriod(cmd.Context(), *key)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"period":   key.Param(),
				"exported": count,
			})
		},
	}

	cmd.Flags().StringVar(&period, "period", "", "reporting month (YYYY-MM)")
	return cmd
}
