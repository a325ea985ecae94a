package amqp

import (
	"encoding/json"
	"time"
)

// Mirror operations carried on the queue.
const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// ActivityMirrorMessage is a lightweight message for mirroring an activity to
// the spreadsheet. It carries only the ID and operation; the worker fetches
// the full activity from the database.
type ActivityMirrorMessage struct {
	ActivityID string    `json:"activity_id"`
	Op         string    `json:"op"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewActivityMirrorMessage creates a new mirror message.
func NewActivityMirrorMessage(activityID, op string) *ActivityMirrorMessage {
	return &ActivityMirrorMessage{
		ActivityID: activityID,
		Op:         op,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ActivityMirrorMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ActivityMirrorMessageFromJSON creates a message from JSON bytes
func ActivityMirrorMessageFromJSON(data []byte) (*ActivityMirrorMessage, error) {
	var msg ActivityMirrorMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Op != OpUpsert && msg.Op != OpDelete {
		return nil, ErrUnknownOp
	}
	return &msg, nil
}
