// Package library implements the write side of a user's song library.
//
// Songs, playlists and entries are always written under their owner. A [Library] checks ownership and
// shared playlist roles before it touches storage: viewers of a shared playlist are read-only and only
// the owner may add songs to a playlist or share it by link. Storage rules are expected to enforce the same
// contract on the server.
//
// The share senders write messages into another user's inbox; the recipient imports them with the
// inbox package.
package library
