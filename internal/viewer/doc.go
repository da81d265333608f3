// Package viewer holds the state of one signed in session and the operations that change it.
//
// A [Viewer] owns a [Session] value behind a mutex: the signed in user, the catalog, the selected playlist
// and song, and the transpose shown. Login bootstraps the catalog, imports pending inbox messages and starts
// the inbox watcher; the viewer is the [inbox.Host] the importer reports into.
//
// When the user is the live session admin every song or transpose change is broadcast. Any session can
// follow the live session instead.
//
// Lock ordering: the viewer never holds its own lock while calling into the importer, because the importer
// calls back into the viewer while it processes a message.
package viewer
