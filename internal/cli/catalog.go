// Catalog and sequence commands.
package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/englishaccelerators/language-creator/internal/catalog"
	"github.com/englishaccelerators/language-creator/internal/export"
	"github.com/englishaccelerators/language-creator/internal/sequence"
	"github.com/englishaccelerators/language-creator/pkg/types"
)

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the catalog and sequence definitions of a reason",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Import catalog items and sequence paths from a TOML or JSON file",
		Long: `Import replaces the catalog and the sequence list of the current reason with
the contents of a definition file. Existing Block lists are kept and repaired
against the new token lists.

Example:
  entryface --reason animals catalog import animals.toml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := catalog.Load(args[0])
			if err != nil {
				return userErr(err)
			}
			sess, err := a.open()
			if err != nil {
				return err
			}
			defer sess.close()

			if err := catalog.Import(sess.store, sess.ns, f); err != nil {
				return sysErr(err)
			}
			models := sequence.Build(f.Sequences, catalog.NewMap(f.Items))
			if err := sess.engine.SyncAll(models); err != nil {
				return sysErr(err)
			}
			if a.flags.jsonMode {
				return a.printJSON(map[string]int{"items": len(f.Items), "sequences": len(f.Sequences)})
			}
			fmt.Fprintf(a.out, "Imported %d item(s) and %d sequence(s) into %q\n", len(f.Items), len(f.Sequences), sess.ns.Slug())
			return nil
		},
	})
	return cmd
}

// seqSummary is one line of `seq list`.
type seqSummary struct {
	Index  int           `json:"index"`
	SeqKey string        `json:"seqKey"`
	Title  string        `json:"title"`
	Tokens []string      `json:"tokens"`
	Blocks int           `json:"blocks"`
	Totals export.Totals `json:"totals"`
}

func newSeqCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seq",
		Short: "Inspect sequences",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the sequences of the current reason",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.openSynced()
			if err != nil {
				return err
			}
			defer sess.close()

			out := make([]seqSummary, 0, len(sess.models))
			for i, m := range sess.models {
				list, err := sess.engine.Blocks(m.SeqKey)
				if err != nil {
					return sysErr(err)
				}
				s := seqSummary{Index: i + 1, SeqKey: m.SeqKey, Title: m.Title, Tokens: m.Tokens, Blocks: len(list)}
				for _, b := range list {
					s.Totals = addTotals(s.Totals, export.Count(b))
				}
				out = append(out, s)
			}
			if a.flags.jsonMode {
				return a.printJSON(out)
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tSEQKEY\tTITLE\tBLOCKS\tFILLED\tEXPORTABLE")
			for _, s := range out {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d/%d\t%d\n",
					s.Index, s.SeqKey, s.Title, s.Blocks, s.Totals.Filled, s.Totals.Rows, s.Totals.Exportable)
			}
			return tw.Flush()
		},
	})
	return cmd
}

func addTotals(a, b export.Totals) export.Totals {
	return export.Totals{
		Rows:       a.Rows + b.Rows,
		Filled:     a.Filled + b.Filled,
		Excluded:   a.Excluded + b.Excluded,
		Exportable: a.Exportable + b.Exportable,
	}
}

// blocksOf loads the Block list of m, mapping storage faults to sysErr.
func (s *session) blocksOf(m types.SeqModel) ([]types.Block, error) {
	list, err := s.engine.Blocks(m.SeqKey)
	if err != nil {
		return nil, sysErr(err)
	}
	return list, nil
}
