// Init command: creates the config directory, a default config.yaml and the
// data directory.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/englishaccelerators/language-creator/internal/config"
	"github.com/englishaccelerators/language-creator/internal/paths"
)

func newInitCmd(a *app) *cobra.Command {
	var user bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize entryface configuration and storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if user && a.flags.dataDir == "" && a.cfg.DataDir == "" {
				dir, err := paths.DefaultDataDir()
				if err != nil {
					return sysErr(fmt.Errorf("per-user data dir: %w", err))
				}
				if err := config.SetDataDir(a.configDir, dir); err != nil {
					return sysErr(fmt.Errorf("record data dir: %w", err))
				}
				a.cfg.DataDir = dir
			}
			sess, err := a.open()
			if err != nil {
				return err
			}
			sess.close()

			dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.cfg.DataDir)
			if err != nil {
				return sysErr(err)
			}
			if a.flags.jsonMode {
				return a.printJSON(map[string]string{"config": a.configDir, "data": dataDir, "backend": a.cfg.Backend})
			}
			fmt.Fprintln(a.out, "entryface initialized successfully")
			fmt.Fprintln(a.out, "  config:", a.configDir)
			fmt.Fprintln(a.out, "  data:  ", dataDir)
			return nil
		},
	}
	cmd.Flags().BoolVar(&user, "user", false, "record the per-user data directory in config.yaml")
	return cmd
}
