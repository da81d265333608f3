// Package server relays the live performance session over HTTP.
//
// A [Server] follows the session document with a [live.Listener] and fans every snapshot out to
// connected websocket clients through a [Hub]. Audience devices that cannot reach the document store
// directly connect here instead.
//
// # Routes
//
//   - GET /health : liveness probe
//   - GET /live : the current session state as JSON
//   - GET /ws : websocket stream of session states, starting with the latest one
//
// Routing uses chi. [Server.Router] accepts any number of [Middleware], applied in the order given,
// so callers can stack chi's middleware (request ids, panics) with [RequestLogger].
//
// # Hub
//
// The hub owns the client set on a single goroutine. Register, unregister and broadcast all go through
// channels, so no lock guards the set. A client whose send buffer is full is dropped rather than
// allowed to stall the others.
package server
