package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/querysync/internal/config"
)

func configCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage querysync.json",
	}
	cmd.AddCommand(configInitCmd(flags), configShowCmd(flags))
	return cmd
}

func configInitCmd(flags *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a querysync.json with default values",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := flags.configPath
			if path == "" {
				dir := "."
				if len(args) == 1 {
					dir = args[0]
				}
				path = filepath.Join(dir, config.ConfigFileName)
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.New().SaveTo(path); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}

func configShowCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
