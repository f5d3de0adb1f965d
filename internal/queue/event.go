// Package queue defines message payloads exchanged over the message broker
// and the background janitor that consumes them.
package queue

// ImageOrphanedEvent is published when a committed database change leaves
// an image file on disk that is no longer referenced: a replace that
// changed the extension, a delete whose unlink failed, or a compensating
// cleanup after a failed commit. The janitor consumer retries the removal
// so the ordering gap between store mutation and file mutation cannot
// leak files permanently.
type ImageOrphanedEvent struct {
	Filename   string `json:"filename"`
	Reason     string `json:"reason"`
	OrphanedAt string `json:"orphaned_at"`
}
