// Package cli is the command line front end. Every command opens the
// session, runs one operation and closes it again, which flushes autosave.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pstuifzand/tui-mindmap/internal/config"
	"github.com/pstuifzand/tui-mindmap/internal/logging"
	"github.com/pstuifzand/tui-mindmap/internal/session"
	"github.com/pstuifzand/tui-mindmap/internal/storage"
)

// rootFlags are shared by all commands
type rootFlags struct {
	configFile string
	overrides  []string
	ephemeral  bool
	debug      bool
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	flags := new(rootFlags)

	root := &cobra.Command{
		Use:           "mindmap",
		Short:         "Edit a mind map from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "config file (default ~/.config/tui-mindmap/config.toml)")
	pf.StringArrayVar(&flags.overrides, "set", nil, "override a setting for this run, e.g. --set storage.backend=sqlite")
	pf.BoolVar(&flags.ephemeral, "ephemeral", false, "keep the map in memory only")
	pf.BoolVar(&flags.debug, "debug", false, "log at debug level")

	root.AddCommand(
		newShowCommand(flags),
		newAddCommand(flags),
		newRmCommand(flags),
		newRenameCommand(flags),
		newDescribeCommand(flags),
		newColorCommand(flags),
		newMoveCommand(flags),
		newToggleCommand(flags),
		newCollapseCommand(flags),
		newExpandCommand(flags),
		newSearchCommand(flags),
		newExportCommand(flags),
		newImportCommand(flags),
		newNewCommand(flags),
		newBackupsCommand(flags),
		newConfigCommand(flags),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command line and exits on error.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, .env and MINDMAP_* variables, then the
// --set overrides.
func (f *rootFlags) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if f.configFile != "" {
		if err = config.LoadDotEnv(); err != nil {
			return nil, err
		}
		if cfg, err = config.LoadFromFile(f.configFile); err != nil {
			return nil, err
		}
		err = cfg.ApplyEnv()
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	for _, kv := range f.overrides {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, errors.Errorf("--set wants key=value, got %q", kv)
		}
		if err := cfg.Set(strings.TrimSpace(key), value); err != nil {
			return nil, err
		}
	}
	if f.ephemeral {
		cfg.Storage.Backend = string(storage.BackendMemory)
	}
	if f.debug {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// run opens a session, calls fn and closes the session. The error from fn
// wins over the error from closing.
func (f *rootFlags) run(cmd *cobra.Command, fn func(ctx context.Context, s *session.Session) error) error {
	return f.open(cmd, false, fn)
}

// view is run for read-only commands. They honour session.collapse_on_open;
// editing commands do not, since every run is a fresh session and the
// collapsed state would be saved with the next edit.
func (f *rootFlags) view(cmd *cobra.Command, fn func(ctx context.Context, s *session.Session) error) error {
	return f.open(cmd, true, fn)
}

func (f *rootFlags) open(cmd *cobra.Command, readOnly bool, fn func(ctx context.Context, s *session.Session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := f.loadConfig()
	if err != nil {
		return err
	}

	logger, cleanup, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer cleanup()

	store, err := storage.Open(ctx, cfg.StorageOptions(logger))
	if err != nil {
		return err
	}

	var backups *storage.BackupManager
	if cfg.Backup.Enabled {
		if backups, err = storage.NewBackupManager(cfg.BackupDir()); err != nil {
			logger.Warn("backups disabled", zap.Error(err))
			backups = nil
		}
	}

	s, err := session.Open(ctx, session.Options{
		Store:          store,
		Backups:        backups,
		Logger:         logger,
		AutosaveDelay:  cfg.AutosaveDelay(),
		CollapseOnOpen: readOnly && cfg.Session.CollapseOnOpen,
	})
	if err != nil {
		store.Close()
		return err
	}

	runErr := fn(ctx, s)
	closeErr := s.Close(ctx)
	if runErr != nil {
		return runErr
	}
	return closeErr
}
