package repositories

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/chordsync/internal/docstore"
	"github.com/desertthunder/chordsync/internal/shared"
)

// DocumentRepository implements [docstore.Store] on SQLite.
type DocumentRepository struct {
	db       *sql.DB
	notifier docstore.Notifier
	now      func() time.Time
}

// NewDocumentRepository creates a DocumentRepository. A nil notifier only wakes subscriptions in this process.
func NewDocumentRepository(db *sql.DB, notifier docstore.Notifier) *DocumentRepository {
	if notifier == nil {
		notifier = docstore.NewLocalNotifier()
	}
	return &DocumentRepository{
		db:       db,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Get retrieves a document by path. Missing documents are returned with Exists false.
func (r *DocumentRepository) Get(ctx context.Context, docPath string) (docstore.Doc, error) {
	_, id, err := docstore.Split(docPath)
	if err != nil {
		return docstore.Doc{}, err
	}

	var raw string
	err = r.db.QueryRowContext(ctx, "SELECT data FROM documents WHERE path = ?", docPath).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return docstore.Doc{ID: id, Path: docPath}, nil
	}
	if err != nil {
		return docstore.Doc{}, fmt.Errorf("failed to get document: %w", err)
	}

	data, err := decodeData(raw)
	if err != nil {
		return docstore.Doc{}, err
	}
	return docstore.Doc{ID: id, Path: docPath, Exists: true, Data: data}, nil
}

// Set writes a document, merging top level fields when [docstore.Merge] is given.
func (r *DocumentRepository) Set(ctx context.Context, docPath string, data map[string]any, opts ...docstore.SetOption) error {
	coll, id, err := docstore.Split(docPath)
	if err != nil {
		return err
	}

	if err := r.write(ctx, coll, id, data, docstore.HasMerge(opts)); err != nil {
		return err
	}
	r.notify(ctx, coll)
	return nil
}

// Add inserts a document with a generated id.
func (r *DocumentRepository) Add(ctx context.Context, collPath string, data map[string]any) (string, error) {
	id := shared.GenerateID()
	if _, _, err := docstore.Split(docstore.Join(collPath, id)); err != nil {
		return "", fmt.Errorf("invalid collection path %q: %w", collPath, err)
	}

	if err := r.write(ctx, collPath, id, data, false); err != nil {
		return "", err
	}
	r.notify(ctx, collPath)
	return id, nil
}

// Delete removes a document. Deleting a missing document is not an error.
func (r *DocumentRepository) Delete(ctx context.Context, docPath string) error {
	coll, _, err := docstore.Split(docPath)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE path = ?", docPath)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows > 0 {
		r.notify(ctx, coll)
	}
	return nil
}

// Query lists a collection in insertion order, then applies filters and ordering.
func (r *DocumentRepository) Query(ctx context.Context, collPath string, q docstore.Query) ([]docstore.Doc, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT doc_id, data
		FROM documents
		WHERE collection = ?
		ORDER BY sequence ASC
	`, collPath)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []docstore.Doc
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}

		data, err := decodeData(raw)
		if err != nil {
			return nil, err
		}
		if !docstore.Matches(data, q.Filters) {
			continue
		}
		docs = append(docs, docstore.Doc{
			ID:     id,
			Path:   docstore.Join(collPath, id),
			Exists: true,
			Data:   data,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	docstore.Sort(docs, q.OrderBy)
	return docs, nil
}

// Subscribe re-runs the query each time the notifier reports a write to collPath.
func (r *DocumentRepository) Subscribe(ctx context.Context, collPath string, q docstore.Query, onChange func(docstore.Snapshot), onError func(error)) (docstore.Unsubscribe, error) {
	wake, release := r.notifier.Listen(collPath)
	run := func(ctx context.Context) ([]docstore.Doc, error) {
		return r.Query(ctx, collPath, q)
	}
	return docstore.Watch(ctx, wake, release, run, onChange, onError), nil
}

func (r *DocumentRepository) write(ctx context.Context, coll, id string, data map[string]any, merge bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	path := docstore.Join(coll, id)

	var raw string
	err = tx.QueryRowContext(ctx, "SELECT data FROM documents WHERE path = ?", path).Scan(&raw)
	exists := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to read document: %w", err)
	}

	var existing map[string]any
	if exists {
		if existing, err = decodeData(raw); err != nil {
			return err
		}
	}

	now := r.now()
	encoded, err := encodeData(docstore.Apply(existing, data, merge, now))
	if err != nil {
		return err
	}

	if exists {
		_, err = tx.ExecContext(ctx, "UPDATE documents SET data = ?, updated_at = ? WHERE path = ?", encoded, now, path)
		if err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}
	} else {
		sequence, err := nextSequenceTx(tx, "documents")
		if err != nil {
			return fmt.Errorf("failed to generate sequence: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (path, collection, doc_id, sequence, data, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, path, coll, id, sequence, encoded, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert document: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit document: %w", err)
	}
	return nil
}

// notify wakes subscribers. The write already committed, so failures are logged and dropped.
func (r *DocumentRepository) notify(ctx context.Context, coll string) {
	if err := r.notifier.Notify(ctx, coll); err != nil {
		log.Warn("failed to notify subscribers", "collection", coll, "error", err)
	}
}

func encodeData(data map[string]any) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	return string(b), nil
}

func decodeData(raw string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewBufferString(raw))
	dec.UseNumber()

	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return normalizeNumbers(data).(map[string]any), nil
}

// normalizeNumbers turns JSON numbers into int64 when integral and float64 otherwise.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeNumbers(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = normalizeNumbers(val)
		}
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}
