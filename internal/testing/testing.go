// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/chordsync/internal/docstore"
	"github.com/desertthunder/chordsync/internal/shared"
)

// ErrInjected is returned by [FlakyStore] for failing operations.
var ErrInjected = errors.New("injected failure")

// Notification is one message captured by [RecordingNotifier].
type Notification struct {
	Level   shared.Level
	Message string
}

// RecordingNotifier is a test double for [shared.Notifier]
type RecordingNotifier struct {
	mu    sync.Mutex
	items []Notification
}

func (r *RecordingNotifier) Notify(level shared.Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{Level: level, Message: message})
}

// All returns a copy of every captured notification.
func (r *RecordingNotifier) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Messages returns captured messages at level.
func (r *RecordingNotifier) Messages(level shared.Level) []string {
	var out []string
	for _, n := range r.All() {
		if n.Level == level {
			out = append(out, n.Message)
		}
	}
	return out
}

// Op names a [docstore.Store] method for [FlakyStore].
type Op string

const (
	OpGet    Op = "get"
	OpSet    Op = "set"
	OpDelete Op = "delete"
	OpAdd    Op = "add"
	OpQuery  Op = "query"
)

type failRule struct {
	op        Op
	substring string
	skip      int
	remaining int
}

// FlakyStore wraps a [docstore.Store] and fails chosen operations
type FlakyStore struct {
	docstore.Store

	mu    sync.Mutex
	rules []*failRule
	calls map[Op]int
}

func NewFlakyStore(inner docstore.Store) *FlakyStore {
	return &FlakyStore{Store: inner, calls: make(map[Op]int)}
}

// FailOn makes the next times calls of op on a path containing substring fail. times < 0 fails forever.
func (f *FlakyStore) FailOn(op Op, substring string, times int) {
	f.FailAfter(op, substring, 0, times)
}

// FailAfter lets skip matching calls succeed before failing the next times calls.
func (f *FlakyStore) FailAfter(op Op, substring string, skip, times int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, &failRule{op: op, substring: substring, skip: skip, remaining: times})
}

// Heal removes every failure rule.
func (f *FlakyStore) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = nil
}

// Calls returns how many times op was invoked.
func (f *FlakyStore) Calls(op Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *FlakyStore) check(op Op, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[op]++
	for _, r := range f.rules {
		if r.op != op || !strings.Contains(path, r.substring) || r.remaining == 0 {
			continue
		}
		if r.skip > 0 {
			r.skip--
			continue
		}
		if r.remaining > 0 {
			r.remaining--
		}
		return ErrInjected
	}
	return nil
}

func (f *FlakyStore) Get(ctx context.Context, docPath string) (docstore.Doc, error) {
	if err := f.check(OpGet, docPath); err != nil {
		return docstore.Doc{}, err
	}
	return f.Store.Get(ctx, docPath)
}

func (f *FlakyStore) Set(ctx context.Context, docPath string, data map[string]any, opts ...docstore.SetOption) error {
	if err := f.check(OpSet, docPath); err != nil {
		return err
	}
	return f.Store.Set(ctx, docPath, data, opts...)
}

func (f *FlakyStore) Delete(ctx context.Context, docPath string) error {
	if err := f.check(OpDelete, docPath); err != nil {
		return err
	}
	return f.Store.Delete(ctx, docPath)
}

func (f *FlakyStore) Add(ctx context.Context, collPath string, data map[string]any) (string, error) {
	if err := f.check(OpAdd, collPath); err != nil {
		return "", err
	}
	return f.Store.Add(ctx, collPath, data)
}

func (f *FlakyStore) Query(ctx context.Context, collPath string, q docstore.Query) ([]docstore.Doc, error) {
	if err := f.check(OpQuery, collPath); err != nil {
		return nil, err
	}
	return f.Store.Query(ctx, collPath, q)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
