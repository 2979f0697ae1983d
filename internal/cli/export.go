// Preview, export and compose commands.
package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/englishaccelerators/language-creator/internal/export"
	"github.com/englishaccelerators/language-creator/pkg/types"
)

// Export formats.
const (
	formatCSV = "csv"
	formatXLS = "xls"
)

func (a *app) pairs(s *session, m types.SeqModel) ([]types.Pair, error) {
	list, err := s.blocksOf(m)
	if err != nil {
		return nil, err
	}
	return export.CollectPairs(list, m.Tokens, s.rule), nil
}

func newPreviewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "preview <seq>",
		Short: "Print the (identifier, value) pairs an export would contain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withModel(args[0], func(s *session, m types.SeqModel) error {
				pairs, err := a.pairs(s, m)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return a.printJSON(pairs)
				}
				if len(pairs) == 0 {
					fmt.Fprintln(a.out, "Nothing to export.")
					return nil
				}
				tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, strings.ToUpper(strings.Join(export.Header, "\t")))
				for _, p := range pairs {
					fmt.Fprintf(tw, "%s\t%s\n", p.ID, p.Value)
				}
				return tw.Flush()
			})
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export <seq>",
		Short: "Write the exportable pairs of a sequence as CSV or a spreadsheet",
		Long: `Export writes <reason>-entry.csv or <reason>-entry.xls into export.dir, or
to --out. The spreadsheet is an HTML table that spreadsheet applications open
directly. Use --out - to write to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatCSV && format != formatXLS {
				return userErr(fmt.Errorf("unknown format %q (valid: csv, xls)", format))
			}
			return a.withModel(args[0], func(s *session, m types.SeqModel) error {
				pairs, err := a.pairs(s, m)
				if err != nil {
					return err
				}
				if out == "-" {
					if format == formatCSV {
						err = export.WriteCSV(a.out, pairs)
						fmt.Fprintln(a.out)
					} else {
						err = export.WriteSpreadsheet(a.out, pairs)
					}
					return err
				}

				dir := export.Dir{Path: a.cfg.Export.Dir}
				name := export.CSVName(s.ns.Slug())
				if format == formatXLS {
					name = export.SpreadsheetName(s.ns.Slug())
				}
				if out != "" {
					dir.Path, name = filepath.Split(out)
				}
				var path string
				if format == formatCSV {
					path, err = dir.WriteCSV(name, pairs)
				} else {
					path, err = dir.WriteSpreadsheet(name, pairs)
				}
				if err != nil {
					return sysErr(err)
				}
				return a.report(map[string]any{"path": path, "rows": len(pairs)}, "Wrote %d row(s) to %s", len(pairs), path)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", formatCSV, "export format: csv or xls")
	cmd.Flags().StringVar(&out, "out", "", "output file (default: export.dir/<reason>-entry.<format>)")
	return cmd
}

func newComposeCmd(a *app) *cobra.Command {
	var joiner, out string
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Print one line of composed text per Block of every sequence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.openSynced()
			if err != nil {
				return err
			}
			defer sess.close()

			blocks := make(map[string][]types.Block, len(sess.models))
			for _, m := range sess.models {
				list, err := sess.blocksOf(m)
				if err != nil {
					return err
				}
				blocks[m.SeqKey] = list
			}
			text := export.ComposerText(sess.models, blocks, joiner)
			if out == "" {
				if a.flags.jsonMode {
					return a.printJSON(map[string]string{"text": text})
				}
				if text != "" {
					fmt.Fprintln(a.out, text)
				}
				return nil
			}
			dir := export.Dir{Path: a.cfg.Export.Dir}
			name := export.ComposerName(sess.ns.Slug())
			if out != "." {
				dir.Path, name = filepath.Split(out)
			}
			path, err := dir.WriteText(name, text)
			if err != nil {
				return sysErr(fmt.Errorf("write composer text: %w", err))
			}
			return a.report(map[string]string{"path": path}, "Wrote composer text to %s", path)
		},
	}
	cmd.Flags().StringVar(&joiner, "joiner", export.DefaultJoiner, "separator between outputs of one Block")
	cmd.Flags().StringVar(&out, "out", "", `write to a file instead of stdout ("." for export.dir/<reason>-entry.md)`)
	return cmd
}
