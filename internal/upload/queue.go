package upload

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/englishaccelerators/language-creator/internal/jsonl"
	"github.com/englishaccelerators/language-creator/pkg/types"
)

// TimeLayout formats queue timestamps as UTC ISO-8601 with milliseconds.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// Queue is the append-only local upload queue persisted under
// types.QueueKey.
type Queue struct {
	mu    sync.Mutex
	store types.Store
	now   func() time.Time
}

// NewQueue returns a queue backed by store.
func NewQueue(store types.Store) *Queue {
	return &Queue{store: store, now: time.Now}
}

// Push appends b, assigning an id and timestamp when they are empty, and
// returns the stored batch.
func (q *Queue) Push(b types.Batch) (types.Batch, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if b.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return types.Batch{}, fmt.Errorf("generate batch id: %w", err)
		}
		b.ID = id.String()
	}
	if b.When == "" {
		b.When = q.now().UTC().Format(TimeLayout)
	}
	batches, err := q.read()
	if err != nil {
		return types.Batch{}, err
	}
	batches = append(batches, b)
	if err := q.store.Set(types.QueueKey, batches); err != nil {
		return types.Batch{}, fmt.Errorf("write queue: %w", err)
	}
	return b, nil
}

// Read returns every queued batch in push order.
func (q *Queue) Read() ([]types.Batch, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.read()
}

// Clear removes every queued batch.
func (q *Queue) Clear() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.store.Delete(types.QueueKey); err != nil {
		return fmt.Errorf("clear queue: %w", err)
	}
	return nil
}

// Dump writes the queue to path as JSONL, one batch per line, and returns
// the number of batches written.
func (q *Queue) Dump(path string) (int, error) {
	batches, err := q.Read()
	if err != nil {
		return 0, err
	}
	records, err := jsonl.Marshal(batches)
	if err != nil {
		return 0, err
	}
	if err := jsonl.Write(path, records); err != nil {
		return 0, fmt.Errorf("dump queue: %w", err)
	}
	return len(batches), nil
}

// Import appends the batches of a JSONL file to the queue and returns how
// many were added.
func (q *Queue) Import(path string) (int, error) {
	records, err := jsonl.Read(path)
	if err != nil {
		return 0, err
	}
	batches, err := jsonl.Unmarshal[types.Batch](records)
	if err != nil {
		return 0, fmt.Errorf("import queue: %w", err)
	}
	for _, b := range batches {
		if _, err := q.Push(b); err != nil {
			return 0, err
		}
	}
	return len(batches), nil
}

func (q *Queue) read() ([]types.Batch, error) {
	var batches []types.Batch
	if _, err := q.store.Get(types.QueueKey, &batches); err != nil {
		return nil, fmt.Errorf("read queue: %w", err)
	}
	return batches, nil
}
