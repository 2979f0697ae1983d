// Block and row mutation commands.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/englishaccelerators/language-creator/internal/export"
	"github.com/englishaccelerators/language-creator/internal/ident"
	"github.com/englishaccelerators/language-creator/pkg/types"
)

// intArg parses a positional integer argument.
func intArg(name, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, userErr(fmt.Errorf("%s must be an integer, got %q", name, v))
	}
	return n, nil
}

// withModel opens a synced session, resolves ref and calls fn.
func (a *app) withModel(ref string, fn func(*session, types.SeqModel) error) error {
	sess, err := a.openSynced()
	if err != nil {
		return err
	}
	defer sess.close()
	m, err := sess.model(ref)
	if err != nil {
		return userErr(err)
	}
	return fn(sess, m)
}

type rowView struct {
	Index    int    `json:"index"`
	ID       string `json:"identifiercode"`
	Label    string `json:"label"`
	Dec      int    `json:"dec"`
	Output   string `json:"output"`
	Excluded bool   `json:"excluded"`
}

type blockView struct {
	Block  int           `json:"block"`
	Totals export.Totals `json:"totals"`
	Rows   []rowView     `json:"rows"`
}

func viewBlocks(m types.SeqModel, list []types.Block, rule ident.Rule) []blockView {
	c := ident.Composer{Rule: rule}
	out := make([]blockView, 0, len(list))
	for _, b := range list {
		head := ident.HeadwordOverride(b)
		v := blockView{Block: b.Block, Totals: export.Count(b), Rows: make([]rowView, 0, len(b.Rows))}
		for i, r := range b.Rows {
			v.Rows = append(v.Rows, rowView{
				Index:    i,
				ID:       c.ID(m.Tokens, r, head),
				Label:    ident.Label(r, head),
				Dec:      r.Decimal(),
				Output:   r.Output,
				Excluded: r.Excluded,
			})
		}
		out = append(out, v)
	}
	return out
}

func (a *app) showBlocks(m types.SeqModel, list []types.Block, rule ident.Rule) error {
	views := viewBlocks(m, list, rule)
	if a.flags.jsonMode {
		return a.printJSON(map[string]any{"seqKey": m.SeqKey, "title": m.Title, "blocks": views})
	}
	fmt.Fprintf(a.out, "%s (%s)\n", m.Title, m.SeqKey)
	for _, v := range views {
		t := v.Totals
		fmt.Fprintf(a.out, "\nBlock %d  rows=%d filled=%d excluded=%d exportable=%d\n",
			v.Block, t.Rows, t.Filled, t.Excluded, t.Exportable)
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ROW\tTOKEN\tDEC\tIDENTIFIER\tOUTPUT\t")
		for _, r := range v.Rows {
			mark := ""
			if r.Excluded {
				mark = "excluded"
			}
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n", r.Index, r.Label, r.Dec, r.ID, r.Output, mark)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func newBlockCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "block",
		Short: "Show, add, copy and delete Blocks of a sequence",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show <seq>",
			Short: "Show every Block of a sequence with row identifiers",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withModel(args[0], func(s *session, m types.SeqModel) error {
					list, err := s.blocksOf(m)
					if err != nil {
						return err
					}
					return a.showBlocks(m, list, s.rule)
				})
			},
		},
		&cobra.Command{
			Use:   "add <seq>",
			Short: "Append a Block; exclusions are inherited from Block 1",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withModel(args[0], func(s *session, m types.SeqModel) error {
					b, err := s.engine.AddBlock(m)
					if err != nil {
						return sysErr(err)
					}
					return a.report(map[string]int{"block": b.Block}, "Added block %d", b.Block)
				})
			},
		},
		&cobra.Command{
			Use:   "copy <seq> <block>",
			Short: "Duplicate a Block into a new Block",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := intArg("block", args[1])
				if err != nil {
					return err
				}
				return a.withModel(args[0], func(s *session, m types.SeqModel) error {
					b, err := s.engine.DuplicateBlock(m.SeqKey, n)
					if err != nil {
						return err
					}
					return a.report(map[string]int{"block": b.Block}, "Copied block %d to block %d", n, b.Block)
				})
			},
		},
		&cobra.Command{
			Use:   "delete <seq> <block>",
			Short: "Delete a Block and renumber the rest",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := intArg("block", args[1])
				if err != nil {
					return err
				}
				return a.withModel(args[0], func(s *session, m types.SeqModel) error {
					if err := s.engine.DeleteBlock(m.SeqKey, n); err != nil {
						return err
					}
					return a.report(map[string]int{"deleted": n}, "Deleted block %d", n)
				})
			},
		},
	)
	return cmd
}

func newDecCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dec",
		Short: "Manage decimal variants",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <seq> <block> <tokenIndex>",
		Short: "Add a decimal variant row for a token position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := intArg("block", args[1])
			if err != nil {
				return err
			}
			tok, err := intArg("tokenIndex", args[2])
			if err != nil {
				return err
			}
			return a.withModel(args[0], func(s *session, m types.SeqModel) error {
				r, err := s.engine.AddDecimal(m.SeqKey, n, tok)
				if err != nil {
					return err
				}
				return a.report(map[string]int{"block": n, "tokenIndex": tok, "dec": r.Decimal()},
					"Added dec %d for token %d in block %d", r.Decimal(), tok, n)
			})
		},
	})
	return cmd
}

func newSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <seq> <block> <row> <value>",
		Short: "Set the output of one row",
		Long: `Set replaces the output of the row at position <row> of a Block, as listed
by "block show". An empty value clears the row.

Example:
  entryface set 1 1 0 cat
  entryface set "w|e" 1 1 "the cat says meow"`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := intArg("block", args[1])
			if err != nil {
				return err
			}
			row, err := intArg("row", args[2])
			if err != nil {
				return err
			}
			return a.withModel(args[0], func(s *session, m types.SeqModel) error {
				if err := s.engine.SetOutput(m.SeqKey, n, row, args[3]); err != nil {
					return err
				}
				return a.report(map[string]any{"block": n, "row": row, "output": args[3]},
					"Set block %d row %d", n, row)
			})
		},
	}
}

func newExcludeCmd(a *app) *cobra.Command {
	var off bool
	cmd := &cobra.Command{
		Use:   "exclude <seq> <block> <row>",
		Short: "Exclude a row from every export and upload",
		Long: `Exclude marks a row so it never reaches preview, CSV, spreadsheet or upload
output. The row stays editable. Exclusions on Block 1 are inherited by Blocks
added later. Use --off to include the row again.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := intArg("block", args[1])
			if err != nil {
				return err
			}
			row, err := intArg("row", args[2])
			if err != nil {
				return err
			}
			return a.withModel(args[0], func(s *session, m types.SeqModel) error {
				if err := s.engine.SetExcluded(m.SeqKey, n, row, !off); err != nil {
					return err
				}
				state := "Excluded"
				if off {
					state = "Included"
				}
				return a.report(map[string]any{"block": n, "row": row, "excluded": !off},
					"%s block %d row %d", state, n, row)
			})
		},
	}
	cmd.Flags().BoolVar(&off, "off", false, "include the row again")
	return cmd
}

func newColumnCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "column",
		Short: "Fill or clear a token position across every Block",
	}
	run := func(empty bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			tok, err := intArg("tokenIndex", args[1])
			if err != nil {
				return err
			}
			value := ""
			if !empty {
				value = strings.Join(args[2:], " ")
			}
			return a.withModel(args[0], func(s *session, m types.SeqModel) error {
				n, err := s.engine.FillColumn(m.SeqKey, tok, value)
				if err != nil {
					return sysErr(err)
				}
				return a.report(map[string]int{"tokenIndex": tok, "rows": n}, "Updated %d row(s) at token %d", n, tok)
			})
		}
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "fill <seq> <tokenIndex> <value>",
			Short: "Set the output of every row at a token position",
			Args:  cobra.MinimumNArgs(3),
			RunE:  run(false),
		},
		&cobra.Command{
			Use:   "clear <seq> <tokenIndex>",
			Short: "Empty the output of every row at a token position",
			Args:  cobra.ExactArgs(2),
			RunE:  run(true),
		},
	)
	return cmd
}

// report prints v in JSON mode and the formatted message otherwise.
func (a *app) report(v any, format string, args ...any) error {
	if a.flags.jsonMode {
		return a.printJSON(v)
	}
	fmt.Fprintf(a.out, format+"\n", args...)
	return nil
}
