// Command setup is the host-side installer/inspector CLI of spec.md §6:
// `setup [--path=PATH] [--no-variables] status|install|update|remove`.
// Grounded on the teacher's cmd/root.go cobra/viper wiring, generalized
// from elemental's "install DEVICE" positional-argument command to this
// spec's flag-plus-verb shape.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gummiboot-go/loader/internal/exitcode"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Install, update, remove, and inspect the gummiboot-go boot loader on an ESP",
	}
	cmd.PersistentFlags().String("path", "/boot/efi", "ESP mount point to operate on")
	cmd.PersistentFlags().Bool("no-variables", false, "Do not touch firmware Boot#### / BootOrder variables")
	cmd.PersistentFlags().String("source", "/usr/lib/gummiboot", "Directory of loader binaries to install/update/remove")
	cmd.PersistentFlags().String("label", "Linux Boot Manager", "Title recorded in the Boot#### entry")
	cmd.PersistentFlags().String("options", "", "LoadOptions string recorded in the Boot#### entry")
	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	_ = viper.BindPFlag("path", cmd.PersistentFlags().Lookup("path"))
	_ = viper.BindPFlag("no-variables", cmd.PersistentFlags().Lookup("no-variables"))
	_ = viper.BindPFlag("source", cmd.PersistentFlags().Lookup("source"))
	_ = viper.BindPFlag("label", cmd.PersistentFlags().Lookup("label"))
	_ = viper.BindPFlag("options", cmd.PersistentFlags().Lookup("options"))
	_ = viper.BindPFlag("debug", cmd.PersistentFlags().Lookup("debug"))

	cmd.AddCommand(newStatusCmd(), newInstallCmd(), newUpdateCmd(), newRemoveCmd())
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitcode.CodeOf(err))
	}
}
