// internal/cli/root.go
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/arc-language/reponere"
	"github.com/arc-language/reponere/pkg/core"
	"github.com/arc-language/reponere/pkg/tracker"
)

var (
	cfgFile     string
	backendName string
	installPath string
	noSudo      bool
	debug       bool
	config      *core.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "reponere",
	Short: "Build and install packages from source",
	Long: `reponere - source package installer

Builds packages from a descriptor (source location, dependencies, build
steps), installing dependencies through the host package manager (pacman,
apt or dnf) and removing build-only dependencies once the build is done.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute executes the root command. SIGINT and SIGTERM cancel the command's
// context instead of killing the process, so an interrupted install still
// removes the build dependencies it added.
func Execute() error {
	ctx, stop := signalContext(context.Background())
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/reponere/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "", "package manager backend to use (pacman, apt, dnf)")
	rootCmd.PersistentFlags().StringVar(&installPath, "install-path", "", "install prefix passed to build steps as $PREFIX")
	rootCmd.PersistentFlags().BoolVar(&noSudo, "no-sudo", false, "do not elevate package manager commands")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add commands
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(forgetCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	var err error
	config, err = core.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		config = core.DefaultConfig()
	}

	// Override config with flags
	if backendName != "" {
		config.Backend = backendName
	}
	if installPath != "" {
		config.InstallPath = installPath
	}
	if noSudo {
		config.Sudo = false
	}
	if debug {
		config.Debug = true
	}
}

// newLogger logs progress to stderr, at debug level with --debug
func newLogger() *log.Logger {
	level := log.InfoLevel
	if config.Debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: config.Debug,
		Level:           level,
	})
}

func newManager() (*reponere.Manager, error) {
	return reponere.NewManager(config, reponere.WithLogger(newLogger()))
}

// openTracker opens the installed-package records without touching the
// host package manager
func openTracker() (*tracker.Tracker, error) {
	t, err := tracker.Load(config.StatePath)
	if err != nil {
		return nil, fmt.Errorf("opening installed packages: %w", err)
	}
	return t, nil
}
