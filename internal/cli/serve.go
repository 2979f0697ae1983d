// Serve command: runs the demo upsert endpoint on the SQLite store.
package cli

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/englishaccelerators/language-creator/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /stage1/text:upsert backed by the local SQLite store",
		Long: `Serve runs a local implementation of the remote upsert endpoint so that
network saves can be exercised end to end. Point api.base of another
workspace at http://<addr> to use it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.open()
			if err != nil {
				return err
			}
			defer sess.close()

			ts, ok := sess.store.(server.TextStore)
			if !ok {
				return userErr(errors.New("serve requires the sqlite backend"))
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(ts, server.Options{MaxBodyBytes: a.cfg.Server.MaxBodyBytes})
			err = srv.ListenAndServe(ctx, addr, func(bound net.Addr) {
				fmt.Fprintf(a.out, "Serving %s on http://%s\n", server.UpsertPath, bound)
			})
			if err != nil {
				return sysErr(err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")
	return cmd
}
