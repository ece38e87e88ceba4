// internal/cli/info.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [package]",
	Short: "Show information about an installed package",
	Long:  `Display the installed record of a package built by reponere.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	t, err := openTracker()
	if err != nil {
		return err
	}

	info, err := t.Get(args[0])
	if err != nil {
		return fmt.Errorf("getting package info: %w", err)
	}

	// Display info
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Package: %s\n", info.Name)
	fmt.Fprintf(out, "Version: %s\n", info.Version)
	fmt.Fprintf(out, "Install path: %s\n", info.InstallPath)
	if info.Backend != "" {
		fmt.Fprintf(out, "Backend: %s\n", info.Backend)
	}
	if info.InstalledAt != "" {
		fmt.Fprintf(out, "Installed: %s\n", info.InstalledAt)
	}
	if len(info.Dependencies) > 0 {
		fmt.Fprintln(out, "Dependencies:")
		for _, d := range info.Dependencies {
			if d.VersionReq != "" {
				fmt.Fprintf(out, "  %s %s\n", d.Name, d.VersionReq)
			} else {
				fmt.Fprintf(out, "  %s\n", d.Name)
			}
		}
	}

	return nil
}
