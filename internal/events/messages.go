package events

import (
	"encoding/json"
	"time"
)

// Event kinds published on the session events exchange.
const (
	KindTenantSelected  = "tenant_selected"
	KindRosterRefreshed = "roster_refreshed"
)

// SessionEvent is the wire form of a session state change. Consumers use it
// as an audit trail of tenant activity; the dashboard itself never reads it
// back (all data is pull based).
type SessionEvent struct {
	Kind       string    `json:"kind"`
	TenantID   string    `json:"tenantId,omitempty"`
	TenantName string    `json:"tenantName,omitempty"`
	RosterSize int       `json:"rosterSize,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewTenantSelected builds the event for an acknowledged tenant switch.
func NewTenantSelected(tenantID, tenantName string) *SessionEvent {
	return &SessionEvent{
		Kind:       KindTenantSelected,
		TenantID:   tenantID,
		TenantName: tenantName,
		Timestamp:  time.Now(),
	}
}

// NewRosterRefreshed builds the event for a successful roster refresh.
func NewRosterRefreshed(rosterSize int) *SessionEvent {
	return &SessionEvent{
		Kind:       KindRosterRefreshed,
		RosterSize: rosterSize,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *SessionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// SessionEventFromJSON creates an event from JSON bytes
func SessionEventFromJSON(data []byte) (*SessionEvent, error) {
	var e SessionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
