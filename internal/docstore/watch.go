package docstore

import (
	"context"
	"reflect"
	"sync"
)

// Watch runs a polling subscription: it evaluates run once immediately and again on every wake signal,
// delivering a [Snapshot] whenever the result set changed. The first delivery lists every document as Added.
//
// release is called once when the subscription stops. Errors from run go to onError and the
// subscription keeps waiting for the next wakeup.
func Watch(ctx context.Context, wake <-chan struct{}, release func(), run func(context.Context) ([]Doc, error), onChange func(Snapshot), onError func(error)) Unsubscribe {
	ctx, cancel := context.WithCancel(ctx)

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			if release != nil {
				release()
			}
		})
	}

	go func() {
		defer stop()

		var prev map[string]Doc
		first := true

		for {
			docs, err := run(ctx)
			if ctx.Err() != nil {
				return
			}

			if err != nil {
				if onError != nil {
					onError(err)
				}
			} else {
				changes := Diff(prev, docs)
				if first || len(changes) > 0 {
					first = false
					onChange(Snapshot{Docs: docs, Changes: changes})
				}
				prev = index(docs)
			}

			select {
			case <-ctx.Done():
				return
			case <-wake:
			}
		}
	}()

	return stop
}

// Diff lists the changes turning prev into docs. Added and modified documents follow docs order; removals come last.
func Diff(prev map[string]Doc, docs []Doc) []Change {
	var changes []Change
	seen := make(map[string]bool, len(docs))

	for _, d := range docs {
		seen[d.ID] = true
		old, ok := prev[d.ID]
		switch {
		case !ok:
			changes = append(changes, Change{Kind: Added, Doc: d})
		case !reflect.DeepEqual(old.Data, d.Data):
			changes = append(changes, Change{Kind: Modified, Doc: d})
		}
	}

	for id, d := range prev {
		if !seen[id] {
			changes = append(changes, Change{Kind: Removed, Doc: d})
		}
	}
	return changes
}

func index(docs []Doc) map[string]Doc {
	out := make(map[string]Doc, len(docs))
	for _, d := range docs {
		out[d.ID] = d
	}
	return out
}
