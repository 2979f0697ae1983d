// Package blocks implements the Block/Row engine: it owns the Block list of
// every sequence in a namespace, seeds and repairs it against the current
// token list and applies operator mutations. Every mutation rewrites the
// whole per-sequence record.
package blocks

import (
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/englishaccelerators/language-creator/pkg/types"
)

// Engine mutates Block lists stored under a namespace.
type Engine struct {
	mu    sync.Mutex
	store types.Store
	ns    types.Namespace
}

// New returns an engine persisting to store under ns.
func New(store types.Store, ns types.Namespace) *Engine {
	return &Engine{store: store, ns: ns}
}

// Namespace returns the namespace the engine writes to.
func (e *Engine) Namespace() types.Namespace { return e.ns }

// Blocks returns a copy of the Block list of seqKey. A sequence that was
// never seeded yields an empty list.
func (e *Engine) Blocks(seqKey string) ([]types.Block, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.load(seqKey)
}

// Sync seeds or repairs the Block list of m and reports whether anything
// was written. A missing or empty list becomes Block 1 with one placeholder
// row per token. Otherwise every Block gains a placeholder row for each
// token index it lacks; repaired rows are never excluded.
func (e *Engine) Sync(m types.SeqModel) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	list, err := e.load(m.SeqKey)
	if err != nil {
		return false, err
	}
	if len(list) == 0 {
		list = []types.Block{newBlock(1, m.Tokens, nil)}
		glog.V(1).Infof("[blocks] seeded %q with %d rows", m.SeqKey, len(m.Tokens))
		return true, e.save(m.SeqKey, list)
	}

	added := 0
	for bi := range list {
		b := &list[bi]
		have := make(map[int]bool, len(b.Rows))
		for _, r := range b.Rows {
			have[r.TokenIndex] = true
		}
		for i, tok := range m.Tokens {
			if have[i] {
				continue
			}
			b.Rows = append(b.Rows, placeholderRow(i, tok, b.Block, false))
			added++
		}
	}
	if added == 0 {
		return false, nil
	}
	glog.V(1).Infof("[blocks] repaired %q: added %d rows", m.SeqKey, added)
	return true, e.save(m.SeqKey, list)
}

// SyncAll runs Sync for every model.
func (e *Engine) SyncAll(models []types.SeqModel) error {
	for _, m := range models {
		if _, err := e.Sync(m); err != nil {
			return fmt.Errorf("sync %q: %w", m.SeqKey, err)
		}
	}
	return nil
}

// AddBlock appends a Block numbered one past the current maximum. Each row
// inherits its excluded flag from the row of Block 1 at the same token index.
func (e *Engine) AddBlock(m types.SeqModel) (types.Block, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	list, err := e.load(m.SeqKey)
	if err != nil {
		return types.Block{}, err
	}
	ref := map[int]bool{}
	if first := find(list, 1); first >= 0 {
		for _, r := range list[first].Rows {
			ref[r.TokenIndex] = r.Excluded
		}
	}
	b := newBlock(nextNumber(list), m.Tokens, ref)
	list = append(list, b)
	glog.V(2).Infof("[blocks] %q: added block %d", m.SeqKey, b.Block)
	if err := e.save(m.SeqKey, list); err != nil {
		return types.Block{}, err
	}
	return b.Clone(), nil
}

// DuplicateBlock deep-copies Block n into a new Block numbered one past the
// current maximum. Every row field except Block is preserved.
func (e *Engine) DuplicateBlock(seqKey string, n int) (types.Block, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	list, err := e.load(seqKey)
	if err != nil {
		return types.Block{}, err
	}
	src := find(list, n)
	if src < 0 {
		return types.Block{}, fmt.Errorf("duplicate block %d: %w", n, types.ErrBlockNotFound)
	}
	cp := list[src].Clone()
	cp.Block = nextNumber(list)
	for i := range cp.Rows {
		cp.Rows[i].Block = cp.Block
	}
	list = append(list, cp)
	glog.V(2).Infof("[blocks] %q: copied block %d to %d", seqKey, n, cp.Block)
	if err := e.save(seqKey, list); err != nil {
		return types.Block{}, err
	}
	return cp.Clone(), nil
}

// DeleteBlock removes Block n and renumbers the remaining Blocks 1..N in
// storage order, rewriting each row's Block field.
func (e *Engine) DeleteBlock(seqKey string, n int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	list, err := e.load(seqKey)
	if err != nil {
		return err
	}
	if find(list, n) < 0 {
		return fmt.Errorf("delete block %d: %w", n, types.ErrBlockNotFound)
	}
	keep := list[:0]
	for _, b := range list {
		if b.Block == n {
			continue
		}
		keep = append(keep, b)
	}
	for i := range keep {
		num := i + 1
		keep[i].Block = num
		for j := range keep[i].Rows {
			keep[i].Rows[j].Block = num
		}
	}
	glog.V(2).Infof("[blocks] %q: deleted block %d, %d remain", seqKey, n, len(keep))
	return e.save(seqKey, keep)
}

// AddDecimal inserts a new decimal variant for tokenIndex in Block n, right
// after the last row already at tokenIndex (or at the end when there is
// none). The new row copies the token label and excluded flag of the first
// existing row at tokenIndex.
func (e *Engine) AddDecimal(seqKey string, n, tokenIndex int) (types.Row, error) {
	if tokenIndex < 0 {
		return types.Row{}, fmt.Errorf("add decimal at %d: %w", tokenIndex, types.ErrTokenIndex)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	list, err := e.load(seqKey)
	if err != nil {
		return types.Row{}, err
	}
	bi := find(list, n)
	if bi < 0 {
		return types.Row{}, fmt.Errorf("add decimal to block %d: %w", n, types.ErrBlockNotFound)
	}
	b := &list[bi]

	maxDec, last := 0, -1
	var first *types.Row
	for i := range b.Rows {
		r := &b.Rows[i]
		if r.TokenIndex != tokenIndex {
			continue
		}
		if first == nil {
			first = r
		}
		maxDec = max(maxDec, r.Decimal())
		last = i
	}
	row := types.Row{
		TokenIndex: tokenIndex,
		Block:      b.Block,
		Dec:        types.DecPtr(maxDec + 1),
		Output:     types.Placeholder,
	}
	if first != nil {
		row.Token = first.Token
		row.Excluded = first.Excluded
	}

	at := last + 1
	if last < 0 {
		at = len(b.Rows)
	}
	b.Rows = append(b.Rows, types.Row{})
	copy(b.Rows[at+1:], b.Rows[at:])
	b.Rows[at] = row

	glog.V(2).Infof("[blocks] %q: block %d token %d gained dec %d", seqKey, n, tokenIndex, maxDec+1)
	if err := e.save(seqKey, list); err != nil {
		return types.Row{}, err
	}
	return row, nil
}

// SetOutput replaces the output of row rowIndex in Block n.
func (e *Engine) SetOutput(seqKey string, n, rowIndex int, value string) error {
	return e.updateRow(seqKey, n, rowIndex, func(r *types.Row) { r.Output = value })
}

// SetExcluded sets the excluded flag of row rowIndex in Block n.
func (e *Engine) SetExcluded(seqKey string, n, rowIndex int, excluded bool) error {
	return e.updateRow(seqKey, n, rowIndex, func(r *types.Row) { r.Excluded = excluded })
}

// FillColumn sets the output of every row at tokenIndex across all Blocks
// and returns the number of rows touched.
func (e *Engine) FillColumn(seqKey string, tokenIndex int, value string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	list, err := e.load(seqKey)
	if err != nil {
		return 0, err
	}
	n := 0
	for bi := range list {
		for ri := range list[bi].Rows {
			if list[bi].Rows[ri].TokenIndex == tokenIndex {
				list[bi].Rows[ri].Output = value
				n++
			}
		}
	}
	glog.V(2).Infof("[blocks] %q: filled token %d on %d rows", seqKey, tokenIndex, n)
	if err := e.save(seqKey, list); err != nil {
		return 0, err
	}
	return n, nil
}

// ClearColumn empties the output of every row at tokenIndex.
func (e *Engine) ClearColumn(seqKey string, tokenIndex int) (int, error) {
	return e.FillColumn(seqKey, tokenIndex, "")
}

func (e *Engine) updateRow(seqKey string, n, rowIndex int, fn func(*types.Row)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	list, err := e.load(seqKey)
	if err != nil {
		return err
	}
	bi := find(list, n)
	if bi < 0 {
		return fmt.Errorf("update block %d: %w", n, types.ErrBlockNotFound)
	}
	if rowIndex < 0 || rowIndex >= len(list[bi].Rows) {
		return fmt.Errorf("update block %d row %d: %w", n, rowIndex, types.ErrRowNotFound)
	}
	fn(&list[bi].Rows[rowIndex])
	glog.V(2).Infof("[blocks] %q: updated block %d row %d", seqKey, n, rowIndex)
	return e.save(seqKey, list)
}

func (e *Engine) load(seqKey string) ([]types.Block, error) {
	var list []types.Block
	if _, err := e.store.Get(e.ns.Entry(seqKey), &list); err != nil {
		return nil, fmt.Errorf("load blocks %q: %w", seqKey, err)
	}
	return list, nil
}

func (e *Engine) save(seqKey string, list []types.Block) error {
	if list == nil {
		list = []types.Block{}
	}
	if err := e.store.Set(e.ns.Entry(seqKey), list); err != nil {
		return fmt.Errorf("save blocks %q: %w", seqKey, err)
	}
	return nil
}

// find returns the index of Block n in list, or -1.
func find(list []types.Block, n int) int {
	for i, b := range list {
		if b.Block == n {
			return i
		}
	}
	return -1
}

func nextNumber(list []types.Block) int {
	n := 0
	for _, b := range list {
		n = max(n, b.Block)
	}
	return n + 1
}

func placeholderRow(tokenIndex int, token string, block int, excluded bool) types.Row {
	return types.Row{
		TokenIndex: tokenIndex,
		Token:      token,
		Block:      block,
		Dec:        types.DecPtr(1),
		Output:     types.Placeholder,
		Excluded:   excluded,
	}
}

// newBlock builds Block n with one placeholder row per token. excluded maps
// token index to the inherited flag; nil means nothing is excluded.
func newBlock(n int, tokens []string, excluded map[int]bool) types.Block {
	b := types.Block{Block: n, Rows: make([]types.Row, len(tokens))}
	for i, tok := range tokens {
		b.Rows[i] = placeholderRow(i, tok, n, excluded[i])
	}
	return b
}
