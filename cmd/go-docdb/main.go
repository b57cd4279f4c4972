package main

import (
	"fmt"
	"os"

	"github.com/adfharrison1/go-docdb/pkg/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string

	cfg    *config.Config
	logger zerolog.Logger

	rootCmd = &cobra.Command{
		Use:   "go-docdb",
		Short: "An embeddable document database with reduced indexes",
		Long: `go-docdb stores schemaless documents in collections and answers find
queries through per-field reduced indexes, loading only the documents an
index cannot rule out.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	rootCmd.AddCommand(serveCmd, reindexCmd, findCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	cfg = config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	l, err := cfg.Log.Logger(os.Stderr)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
