// Package queue defines message payloads exchanged over the message broker.
package queue

// EmailRequestedEvent is published whenever the API needs an email
// delivered out-of-band: the signup verification link and verification
// resends. It carries the fully rendered message so the consumer never has
// to query the primary database.
type EmailRequestedEvent struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTML     string `json:"html"`
	QueuedAt string `json:"queued_at"`
}
