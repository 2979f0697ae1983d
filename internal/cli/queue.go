// Queue commands: inspect and move the local upload queue.
package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/englishaccelerators/language-creator/internal/upload"
)

func newQueueCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect, export and clear the local upload queue",
		Long: `Saves made while api.base is LOCAL_ONLY are queued locally, one batch per
save. The queue is shared by every reason.`,
	}
	withQueue := func(fn func(*upload.Queue, []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			sess, err := a.open()
			if err != nil {
				return err
			}
			defer sess.close()
			return fn(upload.NewQueue(sess.store), args)
		}
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List queued batches",
			Args:  cobra.NoArgs,
			RunE: withQueue(func(q *upload.Queue, _ []string) error {
				batches, err := q.Read()
				if err != nil {
					return sysErr(err)
				}
				if a.flags.jsonMode {
					return a.printJSON(batches)
				}
				if len(batches) == 0 {
					fmt.Fprintln(a.out, "Queue is empty.")
					return nil
				}
				tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tWHEN\tREASON\tSEQKEY\tROWS")
				for _, b := range batches {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", b.ID, b.When, b.Reason, b.SeqKey, humanize.Comma(int64(len(b.Rows))))
				}
				return tw.Flush()
			}),
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every queued batch",
			Args:  cobra.NoArgs,
			RunE: withQueue(func(q *upload.Queue, _ []string) error {
				if err := q.Clear(); err != nil {
					return sysErr(err)
				}
				return a.report(map[string]bool{"cleared": true}, "Queue cleared.")
			}),
		},
		&cobra.Command{
			Use:   "dump <file.jsonl>",
			Short: "Write queued batches to a JSONL file",
			Args:  cobra.ExactArgs(1),
			RunE: withQueue(func(q *upload.Queue, args []string) error {
				n, err := q.Dump(args[0])
				if err != nil {
					return sysErr(err)
				}
				return a.report(map[string]any{"batches": n, "path": args[0]}, "Wrote %d batch(es) to %s", n, args[0])
			}),
		},
		&cobra.Command{
			Use:   "import <file.jsonl>",
			Short: "Append batches from a JSONL file",
			Args:  cobra.ExactArgs(1),
			RunE: withQueue(func(q *upload.Queue, args []string) error {
				n, err := q.Import(args[0])
				if err != nil {
					return userErr(err)
				}
				return a.report(map[string]int{"batches": n}, "Imported %d batch(es)", n)
			}),
		},
	)
	return cmd
}
