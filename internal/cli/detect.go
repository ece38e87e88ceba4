// internal/cli/detect.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arc-language/reponere/pkg/backend"
)

var detectRoot string

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect the host package manager",
	Long:  `Probe the filesystem for pacman, apt or dnf (in that order) and print the first found.`,
	Args:  cobra.NoArgs,
	RunE:  runDetect,
}

func init() {
	detectCmd.Flags().StringVar(&detectRoot, "root", "/", "filesystem root to probe")
}

func runDetect(cmd *cobra.Command, args []string) error {
	kind, err := backend.DetectKind(detectRoot)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), kind)
	return nil
}
