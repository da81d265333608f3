// Package repositories implements SQLite persistence for the document store.
//
// [DocumentRepository] satisfies [docstore.Store] on top of a single documents table. Document data is stored as
// JSON, writes resolve field transforms with [docstore.Apply] inside a transaction, and queries filter and sort in
// Go with the same rules as the in-memory backend.
//
// Subscriptions re-run their query whenever a [docstore.Notifier] reports a write to the collection. The default
// notifier only sees writes from the same process; pass a Redis backed notifier to observe other processes.
//
// Sequence numbers provide stable listing order independent of document ids.
// Each write takes the next value of a per-table counter kept in a dedicated sequence table.
package repositories
