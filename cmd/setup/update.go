package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gummiboot-go/loader/internal/exitcode"
	"github.com/gummiboot-go/loader/internal/installer"
)

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Version-gated re-copy of loader binaries; leaves BootOrder alone if already registered",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkRoot(); err != nil {
				return err
			}
			cfg := buildConfig()
			in := installer.New(cfg)
			report, err := in.Update(cfg, viper.GetString("source"), viper.GetString("label"), viper.GetString("options"))
			if err != nil {
				return exitcode.Wrap(err, exitcode.WriteFile)
			}
			printInstallReport(report)
			return nil
		},
	}
}
