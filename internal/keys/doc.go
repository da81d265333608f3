// Package keys builds and parses the composite identifiers used to address playlists across owners.
//
// A playlist is identified in the viewer by [MakeKey] (owner uid and playlist id joined by "__").
// The same key is the document id of a grant, so linking the same playlist twice writes the same document.
package keys
