// internal/cli/sync.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Update the dependency name registry",
	Long:  `Fetch the dependency name registry that maps canonical names to pacman, apt and dnf package names.`,
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	m, err := newManager()
	if err != nil {
		return err
	}

	rev, err := m.Sync(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registry updated to %s\n", rev)
	return nil
}
