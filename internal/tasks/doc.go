// Package tasks runs jobs that span many playlists, reporting progress over a channel.
//
// # Bulk Export
//
// [BulkExport] writes every requested playlist to disk with a bounded worker pool:
//
//  1. Playlists are loaded one at a time through a [Fetcher], paced by a rate limiter
//  2. Workers write each loaded playlist with the [formatter] writers for the chosen format
//  3. A manifest (export_manifest.json) records the files written and any failures
//
// A failure to load or write one playlist is recorded in its [PlaylistExportResult] and never stops the others.
//
// # Progress Reporting
//
// Updates are sent with select/default so a slow or absent reader never blocks the export.
// The [ProgressUpdate] struct carries the phase, step counters, a display message and optional data.
package tasks
