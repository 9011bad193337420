package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gummiboot-go/loader/internal/exitcode"
	"github.com/gummiboot-go/loader/internal/installer"
)

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove",
		Short: "Deregister the Boot#### entry and delete the loader binaries from the ESP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkRoot(); err != nil {
				return err
			}
			cfg := buildConfig()
			srcDir := viper.GetString("source")
			filePath, err := installer.ResolvePrimaryPath(cfg, srcDir)
			if err != nil {
				return exitcode.Wrap(err, exitcode.ReadFile)
			}
			in := installer.New(cfg)
			if err := in.Remove(cfg, srcDir, filePath); err != nil {
				return exitcode.Wrap(err, exitcode.WriteFile)
			}
			fmt.Printf("removed %s\n", filePath)
			return nil
		},
	}
}
