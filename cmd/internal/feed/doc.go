// Package feed streams session and sync events to websocket subscribers.
//
// Publisher turns observer callbacks into envelopes, Hub fans them out
// without blocking, and Gateway serves the websocket endpoint.
package feed
