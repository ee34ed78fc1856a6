package types

type TxState string

const (
	TxIdle      TxState = "idle"
	TxSubmitted TxState = "submitted"
	TxPending   TxState = "pending"
	TxConfirmed TxState = "confirmed"
	TxError     TxState = "error"
)

// TxStatus is a snapshot of one write operation's lifecycle.
type TxStatus struct {
	Operation string  `json:"operation" bson:"operation"`
	State     TxState `json:"state" bson:"state"`
	Hash      string  `json:"hash,omitempty" bson:"hash,omitempty"`
	From      string  `json:"from,omitempty" bson:"from,omitempty"`
	Message   string  `json:"message,omitempty" bson:"message,omitempty"`
	UpdatedAt int64   `json:"updatedAt" bson:"updatedAt"`
}
