// internal/cli/query.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query [package...]",
	Short: "Show host package manager versions",
	Long: `Show the installed and available versions the host package manager
reports, after mapping each name through the dependency registry.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	m, err := newManager()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, name := range args {
		hp, err := m.Query(cmd.Context(), name)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s", hp.Name)
		if hp.Resolved != hp.Name {
			fmt.Fprintf(out, " (%s)", hp.Resolved)
		}
		fmt.Fprintf(out, "\n  installed: %s\n  available: %s\n", orNone(hp.Installed), orNone(hp.Available))
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
