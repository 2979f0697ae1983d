// Package upload saves the exportable pairs of a sequence. In local-only mode
// the pairs are appended as one batch to the local queue; otherwise they are
// split into fixed-size chunks that a bounded set of lanes submit to the
// remote upsert endpoint. Either way a spreadsheet of the full pair list is
// written on success.
package upload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/glog"
	"github.com/sourcegraph/conc/pool"

	"github.com/englishaccelerators/language-creator/internal/export"
	"github.com/englishaccelerators/language-creator/internal/ident"
	"github.com/englishaccelerators/language-creator/pkg/types"
)

// Defaults for Options.
const (
	DefaultChunkSize = 5000
	DefaultLanes     = 2
)

// ErrSaveInProgress is returned when Save is called while another save on the
// same pipeline has not finished.
var ErrSaveInProgress = errors.New("save already in progress")

// State is a step of one save invocation.
type State int

const (
	StateIdle State = iota
	StatePreparing
	StateQueuingLocal
	StateSending
	StateDone
	StateNothing
	StateCancelled
	StateFailed
)

var stateNames = [...]string{
	StateIdle:         "idle",
	StatePreparing:    "preparing",
	StateQueuingLocal: "queuing-local",
	StateSending:      "sending",
	StateDone:         "done",
	StateNothing:      "nothing-to-save",
	StateCancelled:    "cancelled",
	StateFailed:       "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether s ends a save.
func (s State) Terminal() bool { return s >= StateDone }

// Progress is reported whenever the state, message or sent count changes.
type Progress struct {
	State   State
	Sent    int
	Total   int
	Message string
}

// Percent is the share of rows confirmed sent, rounded down.
func (p Progress) Percent() int {
	if p.Total == 0 {
		return 0
	}
	return p.Sent * 100 / p.Total
}

// Result summarizes a finished save.
type Result struct {
	State State
	Total int
	Sent  int
	// Chunks is the number of chunks claimed by lanes.
	Chunks     int
	Local      bool
	Message    string
	ExportPath string
}

// Options configures a Pipeline.
type Options struct {
	API       types.APIConfig
	Reason    string
	ChunkSize int
	Lanes     int
	Timeout   time.Duration
	Rule      ident.Rule
}

// Pipeline runs saves one at a time.
type Pipeline struct {
	opts     Options
	client   *Client
	queue    *Queue
	dir      export.Dir
	running  atomic.Bool
	progress func(Progress)
}

// New returns a pipeline that queues to queue and writes its save artifact
// into dir.
func New(opts Options, queue *Queue, dir export.Dir) *Pipeline {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Lanes <= 0 {
		opts.Lanes = DefaultLanes
	}
	return &Pipeline{
		opts:   opts,
		client: NewClient(opts.API, opts.Timeout),
		queue:  queue,
		dir:    dir,
	}
}

// OnProgress registers fn to receive progress updates. Calls are serialized
// and Sent never decreases within a save.
func (p *Pipeline) OnProgress(fn func(Progress)) { p.progress = fn }

// Save materializes the exportable pairs of m from blocks and saves them.
// Cancelling ctx stops lanes from claiming further chunks; requests already
// in flight run to completion. The returned error is non-nil for a failed
// chunk request, a local persistence fault or ErrSaveInProgress.
func (p *Pipeline) Save(ctx context.Context, m types.SeqModel, blocks []types.Block) (Result, error) {
	if !p.running.CompareAndSwap(false, true) {
		return Result{}, ErrSaveInProgress
	}
	defer p.running.Store(false)

	r := &run{p: p}
	r.emit(StatePreparing, "Preparing data...")
	pairs := export.CollectPairs(blocks, m.Tokens, p.opts.Rule)
	r.total = len(pairs)
	if r.total == 0 {
		return r.finish(StateNothing, "Nothing to save."), nil
	}
	glog.Infof("[upload] save %q: %d rows, base=%s", m.SeqKey, r.total, p.opts.API.Base)

	if p.opts.API.IsLocalOnly() {
		return p.saveLocal(r, m, pairs)
	}
	return p.saveRemote(ctx, r, pairs)
}

func (p *Pipeline) saveLocal(r *run, m types.SeqModel, pairs []types.Pair) (Result, error) {
	r.local = true
	b, err := p.queue.Push(types.Batch{
		SeqKey:   m.SeqKey,
		Language: p.opts.API.Language,
		Tenant:   p.opts.API.TenantRef(),
		Reason:   p.opts.Reason,
		Rows:     types.UploadRows(pairs),
	})
	if err != nil {
		return r.finish(StateFailed, "Save failed: "+err.Error()), err
	}
	glog.V(1).Infof("[upload] queued batch %s locally", b.ID)
	r.emit(StateQueuingLocal, fmt.Sprintf("Queued %s row(s) locally (no server). Preparing Excel...", humanize.Comma(int64(r.total))))

	if err := r.writeArtifact(pairs); err != nil {
		return r.finish(StateFailed, "Save failed: "+err.Error()), err
	}
	return r.finish(StateDone, "Saved locally. Set api.base to your backend to enable network uploads."), nil
}

func (p *Pipeline) saveRemote(ctx context.Context, r *run, pairs []types.Pair) (Result, error) {
	r.emit(StateSending, fmt.Sprintf("Saving %s row(s) to %s...", humanize.Comma(int64(r.total)), p.opts.API.Base))

	cur := &cursor{size: p.opts.ChunkSize, total: len(pairs)}
	lanes := pool.New().WithErrors().WithFirstError().WithMaxGoroutines(p.opts.Lanes)
	for lane := range p.opts.Lanes {
		lanes.Go(func() error { return p.lane(ctx, r, cur, lane, pairs) })
	}
	err := lanes.Wait()
	r.chunks = cur.claimed()

	if ctx.Err() != nil {
		glog.Infof("[upload] save cancelled after %d of %d rows", r.sentRows(), r.total)
		return r.finish(StateCancelled, "Save cancelled."), nil
	}
	if err != nil {
		glog.Infof("[upload] save failed after %d of %d rows: %v", r.sentRows(), r.total, err)
		msg := fmt.Sprintf("Save failed: %v (%s of %s row(s) sent)", err,
			humanize.Comma(int64(r.sentRows())), humanize.Comma(int64(r.total)))
		return r.finish(StateFailed, msg), err
	}

	r.emit(StateSending, fmt.Sprintf("Saved %s row(s). Preparing Excel...", humanize.Comma(int64(r.sentRows()))))
	if err := r.writeArtifact(pairs); err != nil {
		return r.finish(StateFailed, "Save failed: "+err.Error()), err
	}
	glog.Infof("[upload] saved %d rows in %d chunks", r.sentRows(), r.chunks)
	return r.finish(StateDone, "Done."), nil
}

// lane claims chunks until none remain, ctx is cancelled or a request fails.
func (p *Pipeline) lane(ctx context.Context, r *run, cur *cursor, lane int, pairs []types.Pair) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		c, ok := cur.claim()
		if !ok {
			return nil
		}
		chunk := pairs[c.start:c.end]
		glog.V(1).Infof("[upload] lane %d: chunk %d (%d rows)", lane, c.index, len(chunk))
		req := types.UpsertRequest{
			Language: p.opts.API.Language,
			Tenant:   p.opts.API.TenantRef(),
			Reason:   p.opts.Reason,
			Rows:     types.UploadRows(chunk),
		}
		if _, err := p.client.Upsert(context.WithoutCancel(ctx), req); err != nil {
			glog.Warningf("[upload] lane %d: chunk %d failed: %v", lane, c.index, err)
			return err
		}
		r.addSent(len(chunk))
		glog.V(1).Infof("[upload] lane %d: chunk %d confirmed", lane, c.index)
	}
}

// chunk is a half-open range of the pair list.
type chunk struct {
	index      int
	start, end int
}

// cursor hands out chunks in ascending order; each chunk is claimed once.
type cursor struct {
	mu    sync.Mutex
	size  int
	total int
	next  int
	count int
}

func (c *cursor) claim() (chunk, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.next >= c.total {
		return chunk{}, false
	}
	ch := chunk{index: c.count, start: c.next, end: min(c.next+c.size, c.total)}
	c.next = ch.end
	c.count++
	return ch, true
}

func (c *cursor) claimed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// run holds the mutable state of one save invocation.
type run struct {
	p      *Pipeline
	mu     sync.Mutex
	state  State
	msg    string
	total  int
	sent   int
	chunks int
	local  bool
	path   string
}

func (r *run) emit(s State, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state, r.msg = s, msg
	r.notify()
}

func (r *run) addSent(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent += n
	r.notify()
}

func (r *run) sentRows() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent
}

// notify must be called with r.mu held.
func (r *run) notify() {
	if r.p.progress != nil {
		r.p.progress(Progress{State: r.state, Sent: r.sent, Total: r.total, Message: r.msg})
	}
}

func (r *run) writeArtifact(pairs []types.Pair) error {
	path, err := r.p.dir.WriteSpreadsheet(export.SavedName(r.p.opts.Reason), pairs)
	if err != nil {
		return fmt.Errorf("write save artifact: %w", err)
	}
	r.path = path
	return nil
}

func (r *run) finish(s State, msg string) Result {
	r.emit(s, msg)
	r.mu.Lock()
	defer r.mu.Unlock()
	return Result{
		State:      s,
		Total:      r.total,
		Sent:       r.sent,
		Chunks:     r.chunks,
		Local:      r.local,
		Message:    msg,
		ExportPath: r.path,
	}
}
