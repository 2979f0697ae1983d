package blocks

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/englishaccelerators/language-creator/internal/export"
	"github.com/englishaccelerators/language-creator/internal/memory"
	"github.com/englishaccelerators/language-creator/pkg/types"
)

var catModel = types.SeqModel{SeqKey: "w|e", Title: "Word → Example", Tokens: []string{"W", "E"}}

func newEngine(t *testing.T) (*Engine, *memory.Store) {
	t.Helper()
	s := memory.NewStore()
	return New(s, types.NewNamespace("animals")), s
}

func seeded(t *testing.T) *Engine {
	t.Helper()
	e, _ := newEngine(t)
	changed, err := e.Sync(catModel)
	require.NoError(t, err)
	require.True(t, changed)
	return e
}

func TestSyncSeedsBlockOne(t *testing.T) {
	e := seeded(t)

	list, err := e.Blocks(catModel.SeqKey)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].Block)
	require.Len(t, list[0].Rows, 2)
	for i, r := range list[0].Rows {
		assert.Equal(t, i, r.TokenIndex)
		assert.Equal(t, catModel.Tokens[i], r.Token)
		assert.Equal(t, 1, r.Block)
		assert.Equal(t, 1, r.Decimal())
		assert.Equal(t, types.Placeholder, r.Output)
		assert.False(t, r.Excluded)
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	e := seeded(t)
	changed, err := e.Sync(catModel)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestSyncRepairsGrownTokenList(t *testing.T) {
	e := seeded(t)
	require.NoError(t, e.SetExcluded(catModel.SeqKey, 1, 1, true))
	_, err := e.AddBlock(catModel)
	require.NoError(t, err)

	grown := catModel
	grown.Tokens = []string{"W", "E", "S"}
	changed, err := e.Sync(grown)
	require.NoError(t, err)
	assert.True(t, changed)

	list, err := e.Blocks(catModel.SeqKey)
	require.NoError(t, err)
	for _, b := range list {
		require.Len(t, b.Rows, 3)
		added := b.Rows[2]
		assert.Equal(t, 2, added.TokenIndex)
		assert.Equal(t, "S", added.Token)
		assert.Equal(t, b.Block, added.Block)
		assert.False(t, added.Excluded, "repaired rows are never excluded")
	}
}

func TestSyncAllNamespacesKeys(t *testing.T) {
	e, s := newEngine(t)
	other := types.SeqModel{SeqKey: "w", Tokens: []string{"W"}}
	require.NoError(t, e.SyncAll([]types.SeqModel{catModel, other}))

	keys, err := s.Keys(types.NewNamespace("animals").EntryPrefix())
	require.NoError(t, err)
	assert.Equal(t, []string{"lf.animals.entry.w", "lf.animals.entry.w|e"}, keys)
}

func TestAddBlockInheritsExclusionFromBlockOne(t *testing.T) {
	e := seeded(t)
	require.NoError(t, e.SetExcluded(catModel.SeqKey, 1, 0, true))

	b, err := e.AddBlock(catModel)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Block)
	require.Len(t, b.Rows, 2)
	assert.True(t, b.Rows[0].Excluded)
	assert.False(t, b.Rows[1].Excluded)
	for _, r := range b.Rows {
		assert.Equal(t, types.Placeholder, r.Output)
		assert.Equal(t, 2, r.Block)
	}
}

func TestAddBlockInheritsFromLastVariant(t *testing.T) {
	e := seeded(t)
	_, err := e.AddDecimal(catModel.SeqKey, 1, 1)
	require.NoError(t, err)
	require.NoError(t, e.SetExcluded(catModel.SeqKey, 1, 2, true))

	b, err := e.AddBlock(catModel)
	require.NoError(t, err)
	require.Len(t, b.Rows, 2)
	assert.False(t, b.Rows[0].Excluded)
	assert.True(t, b.Rows[1].Excluded, "last row of token 1 in Block 1 is excluded")
}

func TestAddBlockUsesMaxPlusOne(t *testing.T) {
	e := seeded(t)
	_, err := e.AddBlock(catModel)
	require.NoError(t, err)
	_, err = e.AddBlock(catModel)
	require.NoError(t, err)

	b, err := e.AddBlock(catModel)
	require.NoError(t, err)
	assert.Equal(t, 4, b.Block)
}

func TestAddBlockOnEmptyListStartsAtOne(t *testing.T) {
	e, _ := newEngine(t)
	b, err := e.AddBlock(catModel)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Block)
}

func TestDuplicateBlockDeepCopies(t *testing.T) {
	e := seeded(t)
	require.NoError(t, e.SetOutput(catModel.SeqKey, 1, 0, "cat"))
	require.NoError(t, e.SetExcluded(catModel.SeqKey, 1, 1, true))
	_, err := e.AddDecimal(catModel.SeqKey, 1, 1)
	require.NoError(t, err)

	cp, err := e.DuplicateBlock(catModel.SeqKey, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, cp.Block)

	list, err := e.Blocks(catModel.SeqKey)
	require.NoError(t, err)
	require.Len(t, list, 2)
	src := list[0]
	require.Len(t, cp.Rows, len(src.Rows))
	for i := range src.Rows {
		want := src.Rows[i]
		want.Block = 2
		got := cp.Rows[i]
		assert.Equal(t, want.Decimal(), got.Decimal())
		want.Dec, got.Dec = nil, nil
		assert.Equal(t, want, got)
	}

	require.NoError(t, e.SetOutput(catModel.SeqKey, 2, 0, "dog"))
	list, err = e.Blocks(catModel.SeqKey)
	require.NoError(t, err)
	assert.Equal(t, "cat", list[0].Rows[0].Output, "copy shares no state with source")
}

func TestDuplicateMissingBlock(t *testing.T) {
	e := seeded(t)
	_, err := e.DuplicateBlock(catModel.SeqKey, 9)
	assert.ErrorIs(t, err, types.ErrBlockNotFound)
}

func TestDeleteBlockRenumbers(t *testing.T) {
	e := seeded(t)
	for range 3 {
		_, err := e.AddBlock(catModel)
		require.NoError(t, err)
	}
	require.NoError(t, e.SetOutput(catModel.SeqKey, 3, 0, "third"))

	require.NoError(t, e.DeleteBlock(catModel.SeqKey, 2))

	list, err := e.Blocks(catModel.SeqKey)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, b := range list {
		assert.Equal(t, i+1, b.Block)
		for _, r := range b.Rows {
			assert.Equal(t, b.Block, r.Block)
		}
	}
	assert.Equal(t, "third", list[1].Rows[0].Output)
}

func TestDeleteMissingBlockDoesNotPersist(t *testing.T) {
	e, s := newEngine(t)
	err := e.DeleteBlock(catModel.SeqKey, 1)
	assert.ErrorIs(t, err, types.ErrBlockNotFound)

	keys, err := s.Keys("")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestAddDecimalInsertsAfterLastVariant(t *testing.T) {
	e := seeded(t)
	grown := catModel
	grown.Tokens = []string{"W", "E", "S"}
	_, err := e.Sync(grown)
	require.NoError(t, err)
	require.NoError(t, e.SetExcluded(catModel.SeqKey, 1, 1, true))

	r2, err := e.AddDecimal(catModel.SeqKey, 1, 1)
	require.NoError(t, err)
	r3, err := e.AddDecimal(catModel.SeqKey, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, r2.Decimal())
	assert.Equal(t, 3, r3.Decimal())
	assert.Equal(t, "E", r3.Token)
	assert.True(t, r3.Excluded)
	assert.Equal(t, types.Placeholder, r3.Output)

	list, err := e.Blocks(catModel.SeqKey)
	require.NoError(t, err)
	var order []int
	for _, r := range list[0].Rows {
		order = append(order, r.TokenIndex*10+r.Decimal())
	}
	assert.Equal(t, []int{1, 11, 12, 13, 21}, order)
}

func TestAddDecimalWithoutExistingRowAppends(t *testing.T) {
	e := seeded(t)
	r, err := e.AddDecimal(catModel.SeqKey, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Decimal())
	assert.Equal(t, "", r.Token)
	assert.False(t, r.Excluded)

	list, err := e.Blocks(catModel.SeqKey)
	require.NoError(t, err)
	rows := list[0].Rows
	assert.Equal(t, 5, rows[len(rows)-1].TokenIndex)
}

func TestAddDecimalTreatsMissingDecAsOne(t *testing.T) {
	e, s := newEngine(t)
	ns := types.NewNamespace("animals")
	require.NoError(t, s.Set(ns.Entry(catModel.SeqKey), []types.Block{{Block: 1, Rows: []types.Row{
		{TokenIndex: 0, Token: "W", Block: 1, Output: "cat"},
		{TokenIndex: 1, Token: "E", Block: 1, Output: "meow"},
	}}}))

	r, err := e.AddDecimal(catModel.SeqKey, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Decimal())
}

func TestAddDecimalErrors(t *testing.T) {
	e := seeded(t)
	_, err := e.AddDecimal(catModel.SeqKey, 1, -1)
	assert.ErrorIs(t, err, types.ErrTokenIndex)
	_, err = e.AddDecimal(catModel.SeqKey, 7, 0)
	assert.ErrorIs(t, err, types.ErrBlockNotFound)
}

func TestSetOutputErrors(t *testing.T) {
	e := seeded(t)
	assert.ErrorIs(t, e.SetOutput(catModel.SeqKey, 2, 0, "x"), types.ErrBlockNotFound)
	assert.ErrorIs(t, e.SetOutput(catModel.SeqKey, 1, 2, "x"), types.ErrRowNotFound)
	assert.ErrorIs(t, e.SetOutput(catModel.SeqKey, 1, -1, "x"), types.ErrRowNotFound)
}

func TestFillAndClearColumn(t *testing.T) {
	e := seeded(t)
	_, err := e.AddBlock(catModel)
	require.NoError(t, err)
	_, err = e.AddDecimal(catModel.SeqKey, 2, 1)
	require.NoError(t, err)

	n, err := e.FillColumn(catModel.SeqKey, 1, "meow")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	list, err := e.Blocks(catModel.SeqKey)
	require.NoError(t, err)
	for _, b := range list {
		for _, r := range b.Rows {
			if r.TokenIndex == 1 {
				assert.Equal(t, "meow", r.Output)
			} else {
				assert.Equal(t, types.Placeholder, r.Output)
			}
		}
	}

	n, err = e.ClearColumn(catModel.SeqKey, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	list, err = e.Blocks(catModel.SeqKey)
	require.NoError(t, err)
	assert.Equal(t, "", list[1].Rows[1].Output)
}

func TestWriteThroughSurvivesNewEngine(t *testing.T) {
	s := memory.NewStore()
	ns := types.NewNamespace("animals")
	e := New(s, ns)
	_, err := e.Sync(catModel)
	require.NoError(t, err)
	require.NoError(t, e.SetOutput(catModel.SeqKey, 1, 0, "cat"))

	reloaded, err := New(s, ns).Blocks(catModel.SeqKey)
	require.NoError(t, err)
	assert.Equal(t, "cat", reloaded[0].Rows[0].Output)
}

func TestComposeScenario(t *testing.T) {
	e := seeded(t)
	key := catModel.SeqKey
	require.NoError(t, e.SetOutput(key, 1, 0, "cat"))
	require.NoError(t, e.SetOutput(key, 1, 1, "meow"))
	require.NoError(t, e.SetExcluded(key, 1, 0, true))

	list, err := e.Blocks(key)
	require.NoError(t, err)
	assert.Equal(t, []types.Pair{{ID: "cat-E-1", Value: "meow"}},
		export.CollectPairs(list, catModel.Tokens, nil))

	r, err := e.AddDecimal(key, 1, 1)
	require.NoError(t, err)
	require.NoError(t, e.SetOutput(key, 1, 2, "purr"))
	assert.Equal(t, 2, r.Decimal())

	list, err = e.Blocks(key)
	require.NoError(t, err)
	assert.Equal(t, []types.Pair{
		{ID: "cat-E-1", Value: "meow"},
		{ID: "cat-E-2", Value: "purr"},
	}, export.CollectPairs(list, catModel.Tokens, nil))
}

type failingStore struct {
	*memory.Store
}

var errDisk = errors.New("disk full")

func (failingStore) Set(string, any) error { return errDisk }

func TestPersistenceFaultPropagates(t *testing.T) {
	e := New(failingStore{memory.NewStore()}, types.NewNamespace("x"))
	_, err := e.Sync(catModel)
	assert.ErrorIs(t, err, errDisk)
}
