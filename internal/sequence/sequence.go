// Package sequence turns sequence paths into the token lists and stable keys
// the block engine works with.
package sequence

import (
	"strings"

	"github.com/englishaccelerators/language-creator/pkg/types"
)

// Key returns the sequence key for path: its catalog keys joined by "|".
func Key(path []string) string {
	return strings.Join(path, types.SeqKeySep)
}

// Build derives one SeqModel per path. It is pure: the same paths and catalog
// always produce the same models, in path order.
func Build(paths [][]string, cat types.Catalog) []types.SeqModel {
	models := make([]types.SeqModel, 0, len(paths))
	for _, path := range paths {
		tokens := make([]string, len(path))
		labels := make([]string, len(path))
		for i, key := range path {
			tokens[i] = cat.Token(key)
			labels[i] = cat.Label(key)
		}
		models = append(models, types.SeqModel{
			SeqKey: Key(path),
			Title:  strings.Join(labels, types.TitleSep),
			Tokens: tokens,
		})
	}
	return models
}

// Find returns the model whose SeqKey equals ref. A ref that is not a key but
// a 1-based position ("2") selects by position instead.
func Find(models []types.SeqModel, ref string) (types.SeqModel, bool) {
	for _, m := range models {
		if m.SeqKey == ref {
			return m, true
		}
	}
	n := 0
	for _, c := range ref {
		if c < '0' || c > '9' {
			return types.SeqModel{}, false
		}
		n = n*10 + int(c-'0')
		if n > len(models) {
			return types.SeqModel{}, false
		}
	}
	if ref == "" || n < 1 {
		return types.SeqModel{}, false
	}
	return models[n-1], true
}
