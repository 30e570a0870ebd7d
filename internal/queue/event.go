// Package queue defines the job payloads exchanged over the message broker
// and the worker that consumes them.
package queue

// Queue names. Both are declared durable by publisher and consumer alike so
// whichever side starts first creates them.
const (
	MessageQueue = "notify.message"
	VisitQueue   = "notify.visit"
)

// MessageJob asks the worker to deliver a text message to a chat thread.
type MessageJob struct {
	Text     string `json:"text"`
	ThreadID int64  `json:"message_thread_id"`
}

// VisitJob asks the worker to relay the voice attachment of a stored visit
// report. Only the id travels over the broker; the worker loads the bytes
// from the database at delivery time.
type VisitJob struct {
	VisitID uint64 `json:"visit_id"`
}
