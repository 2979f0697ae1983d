package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const modulePath = "github.com/englishaccelerators/language-creator"

// Version is stamped at build time with -ldflags "-X ...cli.Version=...".
var Version = "0.1.0"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the entryface version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "entryface v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
