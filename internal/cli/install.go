// internal/cli/install.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var keepGoing bool

var installCmd = &cobra.Command{
	Use:   "install [descriptor...]",
	Short: "Build and install packages from descriptors",
	Long: `Build and install packages described by YAML descriptors.

Runtime dependencies are installed through the host package manager and kept.
Build dependencies are installed for the build and removed afterwards, even
when the build fails.

Examples:
  reponere install ./mypackage.yaml
  reponere install ./mypackage.yaml --backend=apt --no-sudo
  reponere install a.yaml b.yaml --keep-going`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVar(&keepGoing, "keep-going", false, "build even when some dependencies could not be resolved")
}

func runInstall(cmd *cobra.Command, args []string) error {
	if keepGoing {
		config.KeepGoing = true
	}

	m, err := newManager()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Using backend: %s\n", m.Backend())

	var failed int
	for _, path := range args {
		fmt.Fprintf(out, "\nInstalling %s...\n", path)

		pkg, err := m.InstallFile(cmd.Context(), path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "✗ Failed to install %s: %v\n", path, err)
			failed++
			continue
		}

		fmt.Fprintf(out, "✓ Successfully installed %s %s\n", pkg.Name, pkg.Version)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d packages failed", failed, len(args))
	}
	return nil
}
