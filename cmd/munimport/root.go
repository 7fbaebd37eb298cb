package main

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rpattn/munimport/internal/config"
	"github.com/rpattn/munimport/internal/logging"
)

// cliContext is shared by every subcommand once the root has loaded configuration.
type cliContext struct {
	configPath string
	logLevel   string
	cfg        config.Config
	logger     *slog.Logger
}

func rootCommand() *cobra.Command {
	cc := &cliContext{}

	root := &cobra.Command{
		Use:           "munimport",
		Short:         "Import municipal spreadsheets into the reporting database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cc.load(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVarP(&cc.configPath, "config", "c", "", "config.yaml or the directory that holds it")
	root.PersistentFlags().StringVar(&cc.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		importCommand(cc),
		inspectCommand(cc),
		migrateCommand(cc),
	)
	return root
}

func (cc *cliContext) load(stderr io.Writer) error {
	cfg, err := config.Load(cc.configPath)
	if err != nil {
		return err
	}
	if cc.logLevel != "" {
		cfg.Logging.Level = cc.logLevel
	}
	// stdout carries command output, so logs go to stderr
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, stderr)
	if err != nil {
		return err
	}
	cc.cfg = cfg
	cc.logger = logger
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
