package docstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned where a document is required but does not exist.
var ErrNotFound = errors.New("document not found")

// Doc is a document read from a store.
type Doc struct {
	ID     string
	Path   string
	Exists bool
	Data   map[string]any
}

// SetOption changes how [Store.Set] writes.
type SetOption int

const (
	// Merge writes only the given top level fields and keeps the others.
	Merge SetOption = iota + 1
)

// HasMerge reports whether opts request a merge write.
func HasMerge(opts []SetOption) bool {
	for _, o := range opts {
		if o == Merge {
			return true
		}
	}
	return false
}

// Filter is an equality condition on a top level field.
type Filter struct {
	Field string
	Value any
}

// Query selects documents in a collection.
type Query struct {
	Filters []Filter
	OrderBy string
}

// Where returns a query with a single equality filter.
func Where(field string, value any) Query {
	return Query{Filters: []Filter{{Field: field, Value: value}}}
}

// Where adds an equality filter.
func (q Query) Where(field string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Value: value})
	return q
}

// Order sorts results ascending by field, ties broken by document id.
func (q Query) Order(field string) Query {
	q.OrderBy = field
	return q
}

// ChangeKind classifies a change in a subscription delivery.
type ChangeKind int

const (
	Added ChangeKind = iota
	Modified
	Removed
)

func (k ChangeKind) String() string {
	switch k {
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	default:
		return "added"
	}
}

// Change is one document entering, changing in, or leaving a query's result set.
type Change struct {
	Kind ChangeKind
	Doc  Doc
}

// Snapshot is a subscription delivery: the current result set and what changed since the last delivery.
type Snapshot struct {
	Docs    []Doc
	Changes []Change
}

// Empty reports whether the result set has no documents.
func (s Snapshot) Empty() bool { return len(s.Docs) == 0 }

// Unsubscribe stops a subscription. Calling it more than once is a no-op.
type Unsubscribe func()

// Store is the storage adapter contract.
//
// Deliveries for one subscription are serialized. There is no ordering guarantee across subscriptions.
type Store interface {
	Get(ctx context.Context, docPath string) (Doc, error)
	Set(ctx context.Context, docPath string, data map[string]any, opts ...SetOption) error
	Delete(ctx context.Context, docPath string) error
	Add(ctx context.Context, collPath string, data map[string]any) (string, error)
	Query(ctx context.Context, collPath string, q Query) ([]Doc, error)
	Subscribe(ctx context.Context, collPath string, q Query, onChange func(Snapshot), onError func(error)) (Unsubscribe, error)
}
