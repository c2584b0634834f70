// Command qualityctl evaluates content offline, validates rule files and
// manages database migrations for the quality engine.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	infraconfig "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/config"
	infralogger "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/config"
)

var (
	cfgFile string
	debug   bool
)

func main() {
	_ = godotenv.Load()

	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "qualityctl",
		Short:         "Quality engine command-line tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", infraconfig.GetConfigPath("config.yml"), "Path to configuration file")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(newEvaluateCommand())
	root.AddCommand(newRulesCommand())
	root.AddCommand(newMigrateCommand())
	return root
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newLogger logs to stderr so command output on stdout stays machine readable.
func newLogger() (infralogger.Logger, error) {
	level := "warn"
	if debug {
		level = "debug"
	}
	log, err := infralogger.New(infralogger.Config{
		Level:       level,
		Format:      "console",
		Development: debug,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log, nil
}
