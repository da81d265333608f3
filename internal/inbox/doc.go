// Package inbox imports playlists other users shared into the signed in user's library.
//
// # Messages
//
// Senders write documents into the recipient's inboxShared collection with processed = false.
// [models.DecodeInboxMessage] turns each one into a copy message (full song copies) or a link message
// (a reference to a playlist the sender owns).
//
// # Importing
//
// [Importer.Process] handles one message and reports an [Outcome]:
//
//  1. Copy messages write a playlist with the deterministic id "shared-<messageId>", add one song per item and
//     an entry per song with order 10, 20, 30... A playlist that already holds every entry makes the message a
//     duplicate; one holding only some entries is resumed from the first missing order.
//  2. Link messages write a grant keyed "<ownerUid>__<playlistId>" and add the shared playlist to the host's catalog.
//
// Handled messages are consumed: deleted, or marked processed when the delete fails. Messages that fail mid-import
// stay pending and record attempts and lastError; once attempts reach the configured maximum they are marked
// processed and failed.
//
// # Triggers
//
// [Importer.Sweep] processes every pending message once, in listing order, emitting [ProgressUpdate]s on an optional
// channel. [Watcher] subscribes to pending messages and imports each message as it arrives, paced by a rate limiter.
package inbox
