package docstore

import (
	"encoding/json"
	"math"
	"reflect"
	"sort"
	"strings"
	"time"
)

// ArrayUnionOp adds values missing from an array field.
type ArrayUnionOp struct{ Values []any }

// ArrayRemoveOp removes every occurrence of values from an array field.
type ArrayRemoveOp struct{ Values []any }

// ServerTimestampOp is replaced by the write time.
type ServerTimestampOp struct{}

// ArrayUnion returns a transform adding values to an array field.
func ArrayUnion(values ...any) ArrayUnionOp { return ArrayUnionOp{Values: values} }

// ArrayRemove returns a transform removing values from an array field.
func ArrayRemove(values ...any) ArrayRemoveOp { return ArrayRemoveOp{Values: values} }

// ServerTimestamp is written as the time the store applied the write.
var ServerTimestamp = ServerTimestampOp{}

// Apply resolves a write against the existing document data and returns the new data.
// existing is not modified.
func Apply(existing, data map[string]any, merge bool, now time.Time) map[string]any {
	out := map[string]any{}
	if merge {
		for k, v := range existing {
			out[k] = Clone(v)
		}
	}

	for k, v := range data {
		switch op := v.(type) {
		case ArrayUnionOp:
			arr := toSlice(out[k])
			for _, val := range op.Values {
				if !containsValue(arr, val) {
					arr = append(arr, Clone(val))
				}
			}
			out[k] = arr
		case ArrayRemoveOp:
			arr := toSlice(out[k])
			kept := make([]any, 0, len(arr))
			for _, cur := range arr {
				if !containsValue(op.Values, cur) {
					kept = append(kept, cur)
				}
			}
			out[k] = kept
		case ServerTimestampOp:
			out[k] = now
		default:
			out[k] = Clone(v)
		}
	}
	return out
}

// Clone deep copies maps and slices of document data.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Clone(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Clone(val)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = val
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Clone(val)
		}
		return out
	default:
		return v
	}
}

// CloneData deep copies a document's data.
func CloneData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	return Clone(data).(map[string]any)
}

// Matches reports whether data satisfies every filter.
func Matches(data map[string]any, filters []Filter) bool {
	for _, f := range filters {
		v, ok := data[f.Field]
		if !ok || !Equal(v, f.Value) {
			return false
		}
	}
	return true
}

// Sort orders docs ascending by field, ties broken by id. An empty field keeps listing order.
func Sort(docs []Doc, field string) {
	if field == "" {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		c := compare(docs[i].Data[field], docs[j].Data[field])
		if c != 0 {
			return c < 0
		}
		return docs[i].ID < docs[j].ID
	})
}

// Equal compares document values, treating every numeric type by value.
func Equal(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func compare(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return strings.Compare(sa, sb)
		}
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, !math.IsNaN(n)
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func toSlice(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	}
	return []any{}
}

func containsValue(arr []any, v any) bool {
	for _, cur := range arr {
		if Equal(cur, v) {
			return true
		}
	}
	return false
}
