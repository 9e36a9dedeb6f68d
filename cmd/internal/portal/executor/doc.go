// Package executor runs authorized requests against the portal's private API.
//
// Every call takes the current session from a Sessions source, attaches it as
// the session cookie and classifies the response. Expired authorization,
// malformed bodies and network errors invalidate the session and are retried
// within a bounded budget. Callers only ever see a payload or a *Failure whose
// Kind says why there is none.
package executor
