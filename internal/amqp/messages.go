package amqp

import (
	"encoding/json"
	"time"
)

// CollectionChangedMessage tells listeners that one of the record
// collections changed. It carries only the collection name and a revision
// counter; consumers fetch the current value from the primary store, so a
// stale or duplicate delivery is harmless.
type CollectionChangedMessage struct {
	Collection string    `json:"collection"`
	Revision   int64     `json:"revision"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewCollectionChangedMessage creates a change message stamped with now.
func NewCollectionChangedMessage(collection string, revision int64) *CollectionChangedMessage {
	return &CollectionChangedMessage{
		Collection: collection,
		Revision:   revision,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *CollectionChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// CollectionChangedMessageFromJSON creates a message from JSON bytes.
func CollectionChangedMessageFromJSON(data []byte) (*CollectionChangedMessage, error) {
	var msg CollectionChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
