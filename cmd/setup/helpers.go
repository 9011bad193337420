package main

import (
	"os"

	"github.com/spf13/viper"

	"github.com/gummiboot-go/loader/internal/config"
	"github.com/gummiboot-go/loader/internal/exitcode"
	"github.com/gummiboot-go/loader/internal/logging"
)

// checkRoot mirrors the teacher's cmd/helpers.go CheckRoot: writing
// efivarfs or the ESP needs elevated privileges.
func checkRoot() error {
	if os.Geteuid() != 0 {
		return exitcode.New("this command requires root privileges", exitcode.RequiresRoot)
	}
	return nil
}

// buildConfig assembles an internal/config.Config from the bound viper
// flags, replacing the original's arg_path/arg_touch_variables globals
// (spec.md §9) with the explicit record every action function here
// threads through.
func buildConfig() *config.Config {
	logger := logging.New()
	logging.WithDebug(logger, viper.GetBool("debug"))
	return config.New(
		config.WithPath(viper.GetString("path")),
		config.WithNoVariables(viper.GetBool("no-variables")),
		config.WithLogger(logger),
	)
}
