// Package homework turns portal payloads into homework records and keeps
// those records in a RecordStore.
//
// Upstream list payloads come in several shapes. ParseList resolves the shape
// once so nothing downstream inspects raw JSON again. Records are the flat,
// CSV-friendly view shared by every store, the HTTP API and the HTML report.
package homework
