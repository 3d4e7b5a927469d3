package model

// EventType names a lifecycle notification topic.
type EventType string

const (
	EventInitialized          EventType = "initialized"
	EventNetworkChanged       EventType = "networkChanged"
	EventTransactionSubmitted EventType = "transactionSubmitted"
	EventTransactionUpdated   EventType = "transactionUpdated"
	EventTransactionConfirmed EventType = "transactionConfirmed"
	EventTransactionFailed    EventType = "transactionFailed"
	EventTransactionReplaced  EventType = "transactionReplaced"
	EventError                EventType = "error"
)

// Event is one lifecycle notification delivered to subscribers.
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}
