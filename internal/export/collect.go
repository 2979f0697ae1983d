// Package export selects the exportable rows of a sequence and renders them
// as (identifier, value) pairs, CSV, or a spreadsheet-compatible HTML table.
package export

import (
	"sort"
	"strings"

	"github.com/englishaccelerators/language-creator/internal/ident"
	"github.com/englishaccelerators/language-creator/pkg/types"
)

// IndexedRow is a row together with its position in Block.Rows.
type IndexedRow struct {
	Index int
	types.Row
}

// Group holds the rows of one token position, sorted by decimal.
type Group struct {
	TokenIndex int
	Rows       []IndexedRow
}

// Grouped returns b's rows grouped by ascending tokenIndex, each group sorted
// by ascending decimal. Ties keep storage order.
func Grouped(b types.Block) []Group {
	byTok := map[int][]IndexedRow{}
	for i, r := range b.Rows {
		byTok[r.TokenIndex] = append(byTok[r.TokenIndex], IndexedRow{Index: i, Row: r})
	}
	groups := make([]Group, 0, len(byTok))
	for tok, rows := range byTok {
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].Decimal() != rows[j].Decimal() {
				return rows[i].Decimal() < rows[j].Decimal()
			}
			return rows[i].Index < rows[j].Index
		})
		groups = append(groups, Group{TokenIndex: tok, Rows: rows})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].TokenIndex < groups[j].TokenIndex })
	return groups
}

// CollectPairs materializes the exportable pairs of a sequence: blocks in
// storage order, then tokenIndex ascending, then decimal ascending. Excluded
// rows, unfilled rows and rows whose tokenIndex lies outside tokens are left
// out. The headword override is resolved once per block.
func CollectPairs(blocks []types.Block, tokens []string, rule ident.Rule) []types.Pair {
	c := ident.Composer{Rule: rule}
	var out []types.Pair
	for _, b := range blocks {
		head := ident.HeadwordOverride(b)
		for _, g := range Grouped(b) {
			if g.TokenIndex < 0 || g.TokenIndex >= len(tokens) {
				continue
			}
			for _, r := range g.Rows {
				if !r.Exportable() {
					continue
				}
				out = append(out, types.Pair{
					ID:    c.ID(tokens, r.Row, head),
					Value: types.ExportValue(r.Output),
				})
			}
		}
	}
	return out
}

// Totals counts the rows of one block.
type Totals struct {
	Rows       int `json:"rows"`
	Filled     int `json:"filled"`
	Excluded   int `json:"excluded"`
	Exportable int `json:"exportable"`
}

// Count returns the totals of b. Exportable counts filled rows that are not
// excluded.
func Count(b types.Block) Totals {
	var t Totals
	for _, r := range b.Rows {
		t.Rows++
		filled := r.Filled()
		if filled {
			t.Filled++
		}
		if r.Excluded {
			t.Excluded++
			continue
		}
		if filled {
			t.Exportable++
		}
	}
	return t
}

// DefaultJoiner separates outputs in composer text.
const DefaultJoiner = "; "

// ComposerText renders one line per block of every sequence:
//
//	{title} — Block {n}: {outputs joined}
//
// Outputs are the filled row outputs in storage order, excluded rows included.
// A block without outputs renders as "{title} — Block {n}".
func ComposerText(models []types.SeqModel, blocks map[string][]types.Block, joiner string) string {
	var lines []string
	for _, m := range models {
		for _, b := range blocks[m.SeqKey] {
			var outs []string
			for _, r := range b.Rows {
				if r.Filled() {
					outs = append(outs, r.Output)
				}
			}
			prefix := m.Title + " — Block " + itoa(b.Block)
			if len(outs) == 0 {
				lines = append(lines, prefix)
				continue
			}
			lines = append(lines, prefix+": "+strings.Join(outs, joiner))
		}
	}
	return strings.Join(lines, "\n")
}
