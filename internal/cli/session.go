// Store session shared by commands that read or mutate sequences.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/englishaccelerators/language-creator/internal/blocks"
	"github.com/englishaccelerators/language-creator/internal/catalog"
	"github.com/englishaccelerators/language-creator/internal/ident"
	"github.com/englishaccelerators/language-creator/internal/paths"
	"github.com/englishaccelerators/language-creator/internal/sequence"
	"github.com/englishaccelerators/language-creator/pkg/store"
	"github.com/englishaccelerators/language-creator/pkg/types"
)

// session is an attached store plus the namespace state derived from it.
type session struct {
	store  types.Store
	ns     types.Namespace
	engine *blocks.Engine
	models []types.SeqModel
	rule   ident.Rule
}

// open attaches the configured store. The caller must call close.
func (a *app) open() (*session, error) {
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.cfg.DataDir)
	if err != nil {
		return nil, sysErr(fmt.Errorf("resolve data dir: %w", err))
	}
	s, err := store.Open(a.cfg.Store(dataDir))
	if err != nil {
		return nil, sysErr(fmt.Errorf("attach store: %w", err))
	}
	rule, err := a.cfg.Rule()
	if err != nil {
		_ = s.Detach()
		return nil, userErr(err)
	}
	ns := types.NewNamespace(a.flags.reason)
	return &session{store: s, ns: ns, engine: blocks.New(s, ns), rule: rule}, nil
}

// openSynced opens the store, builds the sequence models of the namespace
// and seeds or repairs every Block list.
func (a *app) openSynced() (*session, error) {
	sess, err := a.open()
	if err != nil {
		return nil, err
	}
	f, err := catalog.Read(sess.store, sess.ns)
	if err != nil {
		sess.close()
		return nil, sysErr(err)
	}
	sess.models = sequence.Build(f.Sequences, catalog.NewMap(f.Items))
	if err := sess.engine.SyncAll(sess.models); err != nil {
		sess.close()
		return nil, sysErr(err)
	}
	return sess, nil
}

func (s *session) close() { _ = s.store.Detach() }

// model resolves a seqKey or 1-based index.
func (s *session) model(ref string) (types.SeqModel, error) {
	m, ok := sequence.Find(s.models, ref)
	if !ok {
		return types.SeqModel{}, fmt.Errorf("%q: %w", ref, types.ErrSequenceNotFound)
	}
	return m, nil
}

// printJSON writes v as indented JSON.
func (a *app) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysErr(fmt.Errorf("marshal output: %w", err))
	}
	fmt.Fprintln(a.out, string(data))
	return nil
}
