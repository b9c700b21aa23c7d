package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type ActivityType string

const (
	ActivityCreated        ActivityType = "created"
	ActivityStatusChanged  ActivityType = "status_changed"
	ActivityAssigned       ActivityType = "assigned"
	ActivityUpdated        ActivityType = "updated"
	ActivityNoteAdded      ActivityType = "note_added"
	ActivityPhotoAdded     ActivityType = "photo_added"
	ActivitySignatureAdded ActivityType = "signature_added"
)

// ActivityEntry is a single record in a job's audit trail.
type ActivityEntry struct {
	Type      ActivityType `json:"type"`
	Field     string       `json:"field,omitempty"`
	OldValue  string       `json:"oldValue,omitempty"`
	NewValue  string       `json:"newValue,omitempty"`
	UserName  string       `json:"userName"`
	Timestamp time.Time    `json:"timestamp"`
}

// ActivityLog is an append-only sequence of activity entries, stored as a
// jsonb array. Entries are never mutated or reordered after being appended.
type ActivityLog []ActivityEntry

func (a ActivityLog) Value() (driver.Value, error) {
	if a == nil {
		a = ActivityLog{}
	}
	return json.Marshal(a)
}

func (a *ActivityLog) Scan(value interface{}) error {
	if value == nil {
		*a = ActivityLog{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for ActivityLog: %T", value)
	}

	return json.Unmarshal(data, a)
}
