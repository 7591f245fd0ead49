package amqp

import (
	"encoding/json"
	"time"
)

const (
	EntityExpense = "expense"
	EntityIncome  = "income"
	EntityGoal    = "goal"

	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
	ActionSet     = "set"
)

// LedgerEvent is a lightweight message describing one ledger mutation.
// It carries only identifiers and the affected month; consumers fetch
// whatever state they need from the store.
type LedgerEvent struct {
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	UserID    int64     `json:"user_id"`
	ID        int64     `json:"id"`
	Month     string    `json:"month"` // YYYY-MM-DD, first of the affected month
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event stamped with the current time.
func NewLedgerEvent(entity, action string, userID, id int64, month string) *LedgerEvent {
	return &LedgerEvent{
		Entity:    entity,
		Action:    action,
		UserID:    userID,
		ID:        id,
		Month:     month,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON creates an event from JSON bytes.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
