// Package ident composes the hierarchical identifier of a row.
//
// Position 0 contributes the block's headword; every later position i
// contributes "{token_i}-{suffix}", where the suffix rule picks either the
// row's decimal or the block number. Segments are joined with "-". The
// identifier is the remote store's primary key, so identical inputs must
// always yield identical output.
package ident

import (
	"sort"
	"strconv"
	"strings"

	"github.com/englishaccelerators/language-creator/pkg/types"
)

// Sep joins identifier segments.
const Sep = "-"

// DefaultDecimalToken is the token label whose suffix is the row decimal
// under the default rule.
const DefaultDecimalToken = "E"

// MakeID builds the identifier for a row at tokenIndex in the given block.
// headword replaces the token label at position 0 when non-empty. A nil rule
// means DefaultRule.
func MakeID(tokens []string, tokenIndex, block, dec int, headword string, rule Rule) string {
	if rule == nil {
		rule = DefaultRule
	}
	parts := make([]string, 0, tokenIndex+1)
	for i := 0; i <= tokenIndex; i++ {
		label := ""
		if i < len(tokens) {
			label = tokens[i]
		}
		if i == 0 {
			if headword != "" {
				label = headword
			}
			parts = append(parts, label)
			continue
		}
		parts = append(parts, label+Sep+strconv.Itoa(rule.Suffix(i, label, block, dec)))
	}
	return strings.Join(parts, Sep)
}

// HeadwordOverride returns the output of the first filled row at tokenIndex 0,
// ordered by ascending decimal, or "" when none is filled. Rows keep their
// storage order among equal decimals.
func HeadwordOverride(b types.Block) string {
	var heads []types.Row
	for _, r := range b.Rows {
		if r.TokenIndex == 0 {
			heads = append(heads, r)
		}
	}
	sort.SliceStable(heads, func(i, j int) bool {
		return heads[i].Decimal() < heads[j].Decimal()
	})
	for _, r := range heads {
		if r.Filled() {
			return types.ExportValue(r.Output)
		}
	}
	return ""
}

// Composer binds a suffix rule so callers do not thread it through.
type Composer struct {
	Rule Rule
}

// ID returns the identifier for row r of a block whose resolved headword is
// headword.
func (c Composer) ID(tokens []string, r types.Row, headword string) string {
	return MakeID(tokens, r.TokenIndex, r.Block, r.Decimal(), headword, c.Rule)
}

// Label returns the display label of r: the resolved headword at position 0,
// the row's token label elsewhere.
func Label(r types.Row, headword string) string {
	if r.TokenIndex == 0 && headword != "" {
		return headword
	}
	return r.Token
}
