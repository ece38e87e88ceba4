// internal/cli/list.go
package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed packages",
	Long:  `List all packages built and installed by reponere.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	t, err := openTracker()
	if err != nil {
		return err
	}

	pkgs := t.List()
	out := cmd.OutOrStdout()
	if len(pkgs) == 0 {
		fmt.Fprintln(out, "No packages installed.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tPATH")
	for _, p := range pkgs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.Version, p.InstallPath)
	}
	return w.Flush()
}
