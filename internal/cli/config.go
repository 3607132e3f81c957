package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"mlfq/internal/kernel"
)

func newConfigCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := kernel.Load(configPath)
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return fmt.Errorf("render config: %w", err)
			}
			logger.Debug("loaded config", "path", configPath, "tasks", len(cfg.Tasks))
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yml", "Path to the YAML config")
	return cmd
}
