// Package models defines the domain entities of the chord library and their document encodings.
//
// The package contains three categories of types:
//
// 1. Library entities stored as documents
//   - [Song] : Lyrics/chord text owned by a user or published publicly
//   - [Playlist] : An ordered collection owned by a user, optionally created by a share
//   - [Entry] : Per-song ordering and transpose inside a playlist
//   - [Grant] : A persisted link to a playlist owned by someone else
//
// 2. Inbox messages, decoded into a tagged variant by [DecodeInboxMessage]
//   - [CopyMessage] : Carries full song copies to import into a new playlist
//   - [LinkMessage] : Carries a reference to a playlist the recipient may view or edit
//
// 3. Session values
//   - [User] : The signed in identity
//   - [LiveState] : The currently broadcast song of a live performance session
//
// Every stored entity has a FromMap decoder tolerant of the numeric types different storage backends produce,
// and a ToMap encoder producing the field names the hosted database uses.
package models
