package cli

import (
	"github.com/njchilds90/htmlsanitizer/v2/config"
	"github.com/spf13/cobra"
)

func (a *app) newPolicyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Print the effective policy as YAML",
		Long: `Print the policy that sanitize and watch would apply, after merging the
preset, the policy file, environment variables and flags. The output can be
used as the "policy" section of a policy file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.policy()
			if err != nil {
				return err
			}
			data, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
