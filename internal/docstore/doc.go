// Package docstore defines the storage adapter every backend implements and the semantics they share.
//
// Documents are addressed by slash separated paths of alternating collection and document ids
// ("artifacts/app/users/u1/songs/s1"). [Paths] builds every path the library uses.
//
// Writes accept field transforms ([ArrayUnion], [ArrayRemove], [ServerTimestamp]) resolved by [Apply],
// queries support equality filters and a single ascending order, and subscriptions deliver a full
// [Snapshot] plus the [Change] list since the previous delivery.
//
// [MemoryStore] is the process local backend. Other backends reuse [Apply], [Matches], [Sort] and
// [Watch] so they behave identically from the caller's point of view.
package docstore
