// internal/cli/forget.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var forgetCmd = &cobra.Command{
	Use:   "forget [package]",
	Short: "Drop the installed record of a package",
	Long: `Remove a package from the installed records. Files the build
installed are left in place.`,
	Args: cobra.ExactArgs(1),
	RunE: runForget,
}

func runForget(cmd *cobra.Command, args []string) error {
	t, err := openTracker()
	if err != nil {
		return err
	}

	if err := t.Remove(args[0]); err != nil {
		return err
	}
	if err := t.Save(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Forgot %s\n", args[0])
	return nil
}
