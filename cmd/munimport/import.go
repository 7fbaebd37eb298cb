package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rpattn/munimport/internal/app"
	"github.com/rpattn/munimport/internal/domain"
	"github.com/rpattn/munimport/internal/ingestion"
)

type uploadFlags struct {
	context string
	owner   string
	dryRun  bool
}

func (f *uploadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.context, "context", "general", "screen the upload belongs to (tabarim, grants, general, ...)")
	cmd.Flags().StringVar(&f.owner, "owner", os.Getenv("MUNI_OWNER_ID"), "owner id the records are stamped with")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "use in-memory repositories and a temporary upload directory")
}

// resolve parses the flags and reads the file named by path.
func (f *uploadFlags) resolve(path string) (uuid.UUID, domain.ImportContext, []byte, error) {
	owner, err := uuid.Parse(f.owner)
	if err != nil || owner == uuid.Nil {
		return uuid.Nil, "", nil, fmt.Errorf("--owner must be a UUID: %w", ingestion.ErrOwnerRequired)
	}
	importContext, err := domain.ParseImportContext(f.context)
	if err != nil {
		return uuid.Nil, "", nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return uuid.Nil, "", nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return owner, importContext, data, nil
}

// build wires the application, switching to throwaway storage for dry runs.
func (f *uploadFlags) build(cmd *cobra.Command, cc *cliContext) (*app.App, func(), error) {
	cfg := cc.cfg
	cleanup := func() {}
	if f.dryRun {
		dir, err := os.MkdirTemp("", "munimport-dry-run-*")
		if err != nil {
			return nil, nil, err
		}
		cfg.Ingestion.Repository = "memory"
		cfg.Storage.Backend = "local"
		cfg.Storage.LocalDir = dir
		cleanup = func() { _ = os.RemoveAll(dir) }
	}
	a, err := app.Build(cmd.Context(), cfg, cc.logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return a, func() {
		a.Close()
		cleanup()
	}, nil
}

func importCommand(cc *cliContext) *cobra.Command {
	var (
		flags uploadFlags
		mode  string
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Read, detect and load one spreadsheet",
		Long: `Import reads the first sheet of an .xlsx, .xls or .csv file, detects its table,
stores the original upload and loads the rows in batches.

Without --mode the import only proceeds when the destination table is empty.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, importContext, data, err := flags.resolve(args[0])
			if err != nil {
				return err
			}
			a, done, err := flags.build(cmd, cc)
			if err != nil {
				return err
			}
			defer done()

			summary, err := a.Service.Import(cmd.Context(), ingestion.Request{
				OwnerID:  owner,
				FileName: filepath.Base(args[0]),
				Context:  importContext,
				Mode:     domain.ImportMode(mode),
				Data:     data,
			})
			if err != nil {
				return fmt.Errorf("%s", ingestion.FailureMessage(err))
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&mode, "mode", "", "replace or append")
	return cmd
}

func inspectCommand(cc *cliContext) *cobra.Command {
	var flags uploadFlags
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show how a spreadsheet would be imported without writing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, importContext, data, err := flags.resolve(args[0])
			if err != nil {
				return err
			}
			a, done, err := flags.build(cmd, cc)
			if err != nil {
				return err
			}
			defer done()

			inspection, err := a.Service.Inspect(cmd.Context(), ingestion.InspectRequest{
				OwnerID:  owner,
				FileName: filepath.Base(args[0]),
				Context:  importContext,
				Data:     data,
			})
			if err != nil {
				return fmt.Errorf("%s", ingestion.FailureMessage(err))
			}
			// the token dies with this process
			inspection.Token = ""
			inspection.ExpiresAt = nil
			return printJSON(cmd.OutOrStdout(), inspection)
		},
	}
	flags.register(cmd)
	return cmd
}
