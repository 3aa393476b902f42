package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event is one security-relevant record: an issued pair, a refresh, a gate
// rejection, a revocation or a sweep.
type Event struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Type      string            `json:"type"`
	SubjectID int64             `json:"subject_id,omitempty"`
	IP        string            `json:"ip,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Success   bool              `json:"success"`
	Reason    string            `json:"reason,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewEvent stamps a fresh id and the UTC time onto an event of kind typ.
func NewEvent(typ string, now time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Timestamp: now.UTC(),
		Type:      typ,
	}
}
