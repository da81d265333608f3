package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/chordsync/internal/shared"
)

type memRecord struct {
	seq  int64
	data map[string]any
}

// MemoryStore keeps documents in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	colls    map[string]map[string]*memRecord
	seq      int64
	notifier *LocalNotifier
	now      func() time.Time
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		colls:    make(map[string]map[string]*memRecord),
		notifier: NewLocalNotifier(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source used for server timestamps.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *MemoryStore) Get(ctx context.Context, docPath string) (Doc, error) {
	if err := ctx.Err(); err != nil {
		return Doc{}, err
	}
	coll, id, err := Split(docPath)
	if err != nil {
		return Doc{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.colls[coll][id]
	if !ok {
		return Doc{ID: id, Path: docPath}, nil
	}
	return Doc{ID: id, Path: docPath, Exists: true, Data: CloneData(rec.data)}, nil
}

func (m *MemoryStore) Set(ctx context.Context, docPath string, data map[string]any, opts ...SetOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	coll, id, err := Split(docPath)
	if err != nil {
		return err
	}

	m.write(coll, id, data, HasMerge(opts))
	return m.notifier.Notify(ctx, coll)
}

func (m *MemoryStore) Add(ctx context.Context, collPath string, data map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := shared.GenerateID()
	if _, _, err := Split(Join(collPath, id)); err != nil {
		return "", fmt.Errorf("invalid collection path %q: %w", collPath, err)
	}

	m.write(collPath, id, data, false)
	return id, m.notifier.Notify(ctx, collPath)
}

func (m *MemoryStore) Delete(ctx context.Context, docPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	coll, id, err := Split(docPath)
	if err != nil {
		return err
	}

	m.mu.Lock()
	_, existed := m.colls[coll][id]
	delete(m.colls[coll], id)
	m.mu.Unlock()

	if !existed {
		return nil
	}
	return m.notifier.Notify(ctx, coll)
}

func (m *MemoryStore) Query(ctx context.Context, collPath string, q Query) ([]Doc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	type row struct {
		seq int64
		doc Doc
	}
	var rows []row
	for id, rec := range m.colls[collPath] {
		if !Matches(rec.data, q.Filters) {
			continue
		}
		rows = append(rows, row{seq: rec.seq, doc: Doc{
			ID:     id,
			Path:   Join(collPath, id),
			Exists: true,
			Data:   CloneData(rec.data),
		}})
	}
	m.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	docs := make([]Doc, len(rows))
	for i, r := range rows {
		docs[i] = r.doc
	}
	Sort(docs, q.OrderBy)
	return docs, nil
}

func (m *MemoryStore) Subscribe(ctx context.Context, collPath string, q Query, onChange func(Snapshot), onError func(error)) (Unsubscribe, error) {
	wake, release := m.notifier.Listen(collPath)
	run := func(ctx context.Context) ([]Doc, error) {
		return m.Query(ctx, collPath, q)
	}
	return Watch(ctx, wake, release, run, onChange, onError), nil
}

// Len returns the number of documents in a collection.
func (m *MemoryStore) Len(collPath string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.colls[collPath])
}

func (m *MemoryStore) write(coll, id string, data map[string]any, merge bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.colls[coll] == nil {
		m.colls[coll] = make(map[string]*memRecord)
	}

	rec, ok := m.colls[coll][id]
	if !ok {
		m.seq++
		rec = &memRecord{seq: m.seq}
		m.colls[coll][id] = rec
	}
	rec.data = Apply(rec.data, data, merge, m.now())
}
