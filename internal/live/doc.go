// Package live implements the live performance session.
//
// An admin session drives a single shared document through a [Broadcaster]: every song selection or
// transpose change is merged into the session document. Any other session may follow along with a
// [Listener], which replaces its view of the session with each snapshot it receives.
//
// Broadcasts are fire and forget. Writes happen on a background goroutine and failures are only logged,
// so a slow or unavailable store never blocks the viewer.
package live
