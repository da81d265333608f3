package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"cloud.google.com/go/firestore"
	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/desertthunder/chordsync/internal/docstore"
	"github.com/desertthunder/chordsync/internal/shared"
)

// FirestoreStore implements [docstore.Store] on Cloud Firestore.
type FirestoreStore struct {
	client *firestore.Client
	logger *log.Logger
}

// NewFirestoreStore connects to the project configured in cfg.
func NewFirestoreStore(ctx context.Context, cfg shared.FirestoreConfig, logger *log.Logger) (*FirestoreStore, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("%w: firestore.project_id", shared.ErrMissingConfig)
	}

	if cfg.EmulatorHost != "" {
		if err := os.Setenv("FIRESTORE_EMULATOR_HOST", cfg.EmulatorHost); err != nil {
			return nil, fmt.Errorf("failed to configure emulator: %w", err)
		}
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, ClientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &FirestoreStore{client: client, logger: logger.With("component", "firestore")}, nil
}

// ClientOptions returns the credential options for cfg. The emulator needs none.
func ClientOptions(cfg shared.FirestoreConfig) []option.ClientOption {
	switch {
	case cfg.EmulatorHost != "":
		return nil
	case cfg.AccessToken != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"})
		return []option.ClientOption{option.WithTokenSource(ts)}
	case cfg.CredentialsFile != "":
		return []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}
	default:
		return nil
	}
}

// Close releases the client connection.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) doc(docPath string) (*firestore.DocumentRef, error) {
	ref := s.client.Doc(docPath)
	if ref == nil {
		return nil, fmt.Errorf("invalid document path %q", docPath)
	}
	return ref, nil
}

func (s *FirestoreStore) collection(collPath string) (*firestore.CollectionRef, error) {
	ref := s.client.Collection(collPath)
	if ref == nil {
		return nil, fmt.Errorf("invalid collection path %q", collPath)
	}
	return ref, nil
}

func (s *FirestoreStore) Get(ctx context.Context, docPath string) (docstore.Doc, error) {
	ref, err := s.doc(docPath)
	if err != nil {
		return docstore.Doc{}, err
	}

	snap, err := ref.Get(ctx)
	if snap != nil && !snap.Exists() {
		return docstore.Doc{ID: ref.ID, Path: docPath}, nil
	}
	if err != nil {
		return docstore.Doc{}, fmt.Errorf("failed to get document: %w", err)
	}
	return fromSnapshot(snap, docPath), nil
}

func (s *FirestoreStore) Set(ctx context.Context, docPath string, data map[string]any, opts ...docstore.SetOption) error {
	ref, err := s.doc(docPath)
	if err != nil {
		return err
	}

	var setOpts []firestore.SetOption
	if docstore.HasMerge(opts) {
		if len(data) == 0 {
			return nil
		}
		setOpts = append(setOpts, firestore.MergeAll)
	}

	if _, err := ref.Set(ctx, ToFirestoreData(data), setOpts...); err != nil {
		return fmt.Errorf("failed to set document: %w", err)
	}
	return nil
}

func (s *FirestoreStore) Delete(ctx context.Context, docPath string) error {
	ref, err := s.doc(docPath)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func (s *FirestoreStore) Add(ctx context.Context, collPath string, data map[string]any) (string, error) {
	coll, err := s.collection(collPath)
	if err != nil {
		return "", err
	}

	ref, _, err := coll.Add(ctx, ToFirestoreData(data))
	if err != nil {
		return "", fmt.Errorf("failed to add document: %w", err)
	}
	return ref.ID, nil
}

func (s *FirestoreStore) Query(ctx context.Context, collPath string, q docstore.Query) ([]docstore.Doc, error) {
	query, err := s.query(collPath, q)
	if err != nil {
		return nil, err
	}

	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}

	docs := make([]docstore.Doc, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, fromSnapshot(snap, snap.Ref.Path))
	}
	return docs, nil
}

// Subscribe attaches a snapshot listener. The listener stops on its first error, after reporting it.
func (s *FirestoreStore) Subscribe(ctx context.Context, collPath string, q docstore.Query, onChange func(docstore.Snapshot), onError func(error)) (docstore.Unsubscribe, error) {
	query, err := s.query(collPath, q)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	it := query.Snapshots(ctx)

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			it.Stop()
		})
	}

	go func() {
		for {
			qs, err := it.Next()
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				if !errors.Is(err, iterator.Done) && onError != nil {
					onError(fmt.Errorf("snapshot listener on %s: %w", collPath, err))
				}
				stop()
				return
			}

			snap, err := fromQuerySnapshot(qs)
			if err != nil {
				s.logger.Warn("failed to read snapshot", "collection", collPath, "error", err)
				continue
			}
			onChange(snap)
		}
	}()

	return stop, nil
}

func (s *FirestoreStore) query(collPath string, q docstore.Query) (firestore.Query, error) {
	coll, err := s.collection(collPath)
	if err != nil {
		return firestore.Query{}, err
	}

	query := coll.Query
	for _, f := range q.Filters {
		query = query.Where(f.Field, "==", f.Value)
	}
	if q.OrderBy != "" {
		query = query.OrderBy(q.OrderBy, firestore.Asc)
	}
	return query, nil
}

func fromQuerySnapshot(qs *firestore.QuerySnapshot) (docstore.Snapshot, error) {
	snaps, err := qs.Documents.GetAll()
	if err != nil {
		return docstore.Snapshot{}, err
	}

	out := docstore.Snapshot{Docs: make([]docstore.Doc, 0, len(snaps))}
	for _, snap := range snaps {
		out.Docs = append(out.Docs, fromSnapshot(snap, snap.Ref.Path))
	}
	for _, ch := range qs.Changes {
		out.Changes = append(out.Changes, docstore.Change{
			Kind: ChangeKind(ch.Kind),
			Doc:  fromSnapshot(ch.Doc, ch.Doc.Ref.Path),
		})
	}
	return out, nil
}

func fromSnapshot(snap *firestore.DocumentSnapshot, docPath string) docstore.Doc {
	return docstore.Doc{
		ID:     snap.Ref.ID,
		Path:   RelativePath(docPath),
		Exists: snap.Exists(),
		Data:   snap.Data(),
	}
}

// ChangeKind maps a firestore change kind onto the store's.
func ChangeKind(kind firestore.DocumentChangeKind) docstore.ChangeKind {
	switch kind {
	case firestore.DocumentModified:
		return docstore.Modified
	case firestore.DocumentRemoved:
		return docstore.Removed
	default:
		return docstore.Added
	}
}

// RelativePath strips the "projects/<p>/databases/<d>/documents/" prefix of a fully qualified document name.
func RelativePath(name string) string {
	const marker = "/documents/"
	if i := strings.Index(name, marker); i >= 0 {
		return name[i+len(marker):]
	}
	return name
}

// ToFirestoreData replaces store transforms with their firestore sentinels.
func ToFirestoreData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		switch op := v.(type) {
		case docstore.ArrayUnionOp:
			out[k] = firestore.ArrayUnion(op.Values...)
		case docstore.ArrayRemoveOp:
			out[k] = firestore.ArrayRemove(op.Values...)
		case docstore.ServerTimestampOp:
			out[k] = firestore.ServerTimestamp
		default:
			out[k] = v
		}
	}
	return out
}
