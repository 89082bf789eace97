package audit

import (
	"encoding/json"
	"log"
	"time"
)

// Event is one structured audit record. Every money movement and every
// escalation decision emits one, independent of the durable ledger, so the
// log stream alone is enough to reconstruct what the engines decided.
type Event struct {
	Timestamp     time.Time `json:"timestamp"`
	EventType     string    `json:"event_type"`
	OrderID       string    `json:"order_id,omitempty"`
	ComplaintID   string    `json:"complaint_id,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
	WalletID      string    `json:"wallet_id,omitempty"`
	Amount        int64     `json:"amount,omitempty"`
	Status        string    `json:"status"`
	Details       any       `json:"details,omitempty"`
}

type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

func (a *Logger) LogDistributionLeg(orderID, transactionID, role, walletID string, amount int64, status string) {
	a.log(Event{
		Timestamp:     time.Now(),
		EventType:     "DISTRIBUTION_LEG",
		OrderID:       orderID,
		TransactionID: transactionID,
		WalletID:      walletID,
		Amount:        amount,
		Status:        status,
		Details:       map[string]string{"role": role},
	})
}

func (a *Logger) LogFine(complaintID, transactionID string, amount int64, status string) {
	a.log(Event{
		Timestamp:     time.Now(),
		EventType:     "FINE",
		ComplaintID:   complaintID,
		TransactionID: transactionID,
		Amount:        amount,
		Status:        status,
	})
}

func (a *Logger) LogEscalation(complaintID, level, actor, reason string) {
	a.log(Event{
		Timestamp:   time.Now(),
		EventType:   "ESCALATION",
		ComplaintID: complaintID,
		Status:      level,
		Details:     map[string]string{"actor": actor, "reason": reason},
	})
}

func (a *Logger) LogReversal(transactionID, actor, reason string) {
	a.log(Event{
		Timestamp:     time.Now(),
		EventType:     "REVERSAL",
		TransactionID: transactionID,
		Status:        "REVERSED",
		Details:       map[string]string{"actor": actor, "reason": reason},
	})
}

func (a *Logger) LogError(orderID, complaintID string, err error) {
	a.log(Event{
		Timestamp:   time.Now(),
		EventType:   "ERROR",
		OrderID:     orderID,
		ComplaintID: complaintID,
		Status:      "FAILED",
		Details:     map[string]string{"error": err.Error()},
	})
}

func (a *Logger) log(event Event) {
	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))
}
