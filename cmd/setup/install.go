package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gummiboot-go/loader/internal/exitcode"
	"github.com/gummiboot-go/loader/internal/installer"
)

func newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "First-time install of the loader binaries and Boot#### entry onto the ESP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkRoot(); err != nil {
				return err
			}
			cfg := buildConfig()
			in := installer.New(cfg)
			report, err := in.Install(cfg, viper.GetString("source"), viper.GetString("label"), viper.GetString("options"))
			if err != nil {
				return exitcode.Wrap(err, exitcode.WriteFile)
			}
			printInstallReport(report)
			return nil
		},
	}
}

// printInstallReport summarizes what Install/Update did, for the
// operator, matching spec.md §7's "diagnostic errors ... written to
// standard error with a verb explaining which step failed" for failures
// and a plain stdout summary for success.
func printInstallReport(report *installer.Report) {
	for _, p := range report.Copied {
		fmt.Printf("copied %s\n", p)
	}
	for _, p := range report.Skipped {
		fmt.Printf("skipped %s (up to date)\n", p)
	}
	if report.BootSlot != 0 || len(report.Copied) > 0 {
		if report.BootSlotReused {
			fmt.Printf("reused Boot%04X\n", report.BootSlot)
		} else {
			fmt.Printf("registered Boot%04X\n", report.BootSlot)
		}
	}
}
