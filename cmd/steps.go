package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tasnim.dev/hostprep/internal/provision"
	"tasnim.dev/hostprep/internal/theme"
	"tasnim.dev/hostprep/internal/utils"
)

func NewStepsCmd(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List the provisioning steps in execution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := g.load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			tbl := utils.NewTable(theme.HeaderStyle, 3, 18)
			tbl.Header("#", "STEP", "DESCRIPTION")
			for i, s := range provision.DefaultSteps(cfg, provision.Deps{}) {
				tbl.Row(strconv.Itoa(i+1), s.Name, s.Description)
			}
			fmt.Fprint(cmd.OutOrStdout(), tbl.String())
			return nil
		},
	}
}
