// Package catalog aggregates a user's visible library into one in-memory value.
//
// A [Catalog] holds every song the user can open (public, owned, and songs fetched from shared playlists) and every
// playlist the user can select, keyed by composite key. Owned playlists are editable; shared playlists come from
// grants and carry the granted role.
//
// [Build] is the pure assembly step. [Loader] reads the sources in parallel, loads a playlist's ordered entries and
// fetches songs that live in another owner's library. [Search] filters songs with accent folding.
//
// Catalog values are immutable: WithPlaylist and WithSongs return modified copies, so a reader holding an older
// catalog never sees a partial update.
package catalog
