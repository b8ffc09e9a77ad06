package events

import (
	"encoding/json"
	"time"
)

// Event types published by the tracker and the session manager.
const (
	JobCreated      = "job_created"
	JobConfirmed    = "job_confirmed"
	JobUpdated      = "job_updated"
	JobMoved        = "job_moved"
	JobDeleted      = "job_deleted"
	StateReconciled = "state_reconciled"
	SyncFailed      = "sync_failed"
	SessionExpired  = "session_expired"
	Ping            = "ping"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func MakeEvent(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}

// Parse decodes an envelope produced by MakeEvent.
func Parse(s string) (Event, error) {
	var e Event
	err := json.Unmarshal([]byte(s), &e)
	return e, err
}
