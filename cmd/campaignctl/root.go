package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"adsimport/internal/app"
	"adsimport/pkg/config"
	"adsimport/pkg/logger"
	"adsimport/pkg/metrics"
)

// cli carries state shared by the subcommands of one invocation.
type cli struct {
	cfg      *config.Config
	log      *logger.Logger
	services *app.App
}

// close releases the services opened for this invocation. It runs after
// Execute returns because cobra skips post-run hooks when a command fails.
func (c *cli) close() {
	if c.services != nil {
		c.services.Close()
		c.services = nil
	}
}

func newRootCmd() (*cobra.Command, *cli) {
	c := &cli{}

	root := &cobra.Command{
		Use:   "campaignctl",
		Short: "Import and inspect Google Ads campaign reports",
		Long: `Imports Google Ads campaign exports (CSV, TSV, XLSX and, with an AI key,
images or PDFs) into the configured campaign store and queries it.

Configuration comes from adsimport.yaml and ADSIMPORT_* variables. Use a
persistent store between runs, for example:

  ADSIMPORT_STORE_DRIVER=sqlite ADSIMPORT_STORE_DSN=campaigns.db campaignctl import march.csv`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			c.cfg = cfg
			c.log = logger.NewWithOutput(cfg.Logging.Level, cmd.ErrOrStderr())

			services, err := app.New(cmd.Context(), cfg, c.log, metrics.NewWithRegistry(prometheus.NewRegistry()))
			if err != nil {
				return fmt.Errorf("init services: %w", err)
			}
			c.services = services
			return nil
		},
	}

	root.AddCommand(
		newImportCmd(c),
		newParseCmd(c),
		newListCmd(c),
		newSummaryCmd(c),
		newExportCmd(c),
	)
	return root, c
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readUpload(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
