// Package cli implements the atlas command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/atlas/internal/catalog"
	"github.com/mesh-intelligence/atlas/internal/logger"
	"github.com/mesh-intelligence/atlas/internal/paths"
	"github.com/mesh-intelligence/atlas/internal/schema"
	"github.com/mesh-intelligence/atlas/internal/sqlite"
	"github.com/mesh-intelligence/atlas/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

// app is the state shared by the subcommands of one root command.
type app struct {
	flags rootFlags
	cfg   *viper.Viper
	log   *logger.Logger
}

// NewRootCmd creates the top-level "atlas" command with global flags and all
// subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "atlas",
		Short: "Manage a resource directory",
		Long: "Atlas keeps a catalog of locations (food banks, shelters, clinics) whose\n" +
			"attributes are defined at runtime as descriptors.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				a.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $(CWD)/.atlas)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.atlas-db)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output as JSON")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newDescriptorCmd(a),
		newResourceCmd(a),
		newSuggestCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newProjectCmd(a),
		newSeedCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "atlas:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// exitCode maps errors caused by the caller's input to exitUserError and
// everything else to exitSysError.
func exitCode(err error) int {
	for _, userErr := range []error{
		types.ErrNotFound,
		types.ErrValidationFailure,
		types.ErrOutOfRange,
		types.ErrInvalidDescriptor,
		types.ErrInvalidID,
		errUsage,
	} {
		if errors.Is(err, userErr) {
			return exitUserError
		}
	}
	return exitSysError
}

var errUsage = errors.New("usage")

func (a *app) setup() error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.GetString(cfgKeyLogMode))
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	return nil
}

// backendConfig builds the Catalog configuration from flags and config.yaml.
func (a *app) backendConfig() (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.cfg.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	return types.Config{
		Backend:     a.cfg.GetString(cfgKeyBackend),
		DataDir:     dataDir,
		BusyTimeout: time.Duration(a.cfg.GetInt(cfgKeyBusyTimeoutMS)) * time.Millisecond,
	}, nil
}

// attachBackend opens the catalog. The caller must Detach it.
func (a *app) attachBackend() (*sqlite.Backend, error) {
	cfg, err := a.backendConfig()
	if err != nil {
		return nil, err
	}
	backend := sqlite.NewBackend()
	if err := backend.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach backend: %w", err)
	}
	a.log.Debug("catalog attached", "data_dir", cfg.DataDir)
	return backend, nil
}

// withCatalog attaches the backend, runs fn with a service over it, and
// detaches.
func (a *app) withCatalog(fn func(b *sqlite.Backend, svc *catalog.Service) error) error {
	backend, err := a.attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	svc := catalog.New(backend, catalog.Options{
		Limits: schema.Limits{TextMaxLength: a.cfg.GetInt(cfgKeyTextMaxLength)},
		Logger: a.log,
	})
	return fn(backend, svc)
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
