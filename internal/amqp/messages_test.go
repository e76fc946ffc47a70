package amqp

import (
	"testing"
	"time"
)

func TestCollectionChangedMessageRoundTrip(t *testing.T) {
	msg := NewCollectionChangedMessage("members", 7)
	if msg.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}

	decoded, err := CollectionChangedMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}
	if decoded.Collection != "members" || decoded.Revision != 7 {
		t.Errorf("got %+v", decoded)
	}
	if !decoded.Timestamp.Truncate(time.Millisecond).Equal(msg.Timestamp.Truncate(time.Millisecond)) {
		t.Errorf("timestamp drifted: %v vs %v", decoded.Timestamp, msg.Timestamp)
	}
}

func TestCollectionChangedMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := CollectionChangedMessageFromJSON([]byte("{broken")); err == nil {
		t.Error("expected error for malformed payload")
	}
}
