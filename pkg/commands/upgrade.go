package commands

import (
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"
)

const installPath = "tableflip.dev/planner/cmd/planner"

func addUpgrade(topLevel *cobra.Command) {
	var ref string

	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Reinstall planner with go install",
		Long: `Rebuild and install the planner binary from source. Stored planners
and templates are left untouched.`,
		Example: `
planner upgrade
planner upgrade --ref v0.3.0
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			ex := exec.CommandContext(cmd.Context(), "go", "install", installPath+"@"+ref)
			ex.Stdout = cmd.OutOrStdout()
			ex.Stderr = cmd.ErrOrStderr()
			if err := ex.Run(); err != nil {
				return output.HandleError(fmt.Errorf("upgrade to %s: %w", ref, err))
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "installed %s@%s\n", installPath, ref)
			return nil
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "latest", "version, branch or commit to install")
	topLevel.AddCommand(cmd)
}
