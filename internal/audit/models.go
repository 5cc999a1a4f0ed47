package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names an append-only notification emitted by the controller. These
// are log entries, never queryable state the core logic depends on.
type Action string

const (
	ActionIssuerAuthorized   Action = "issuer_authorized"
	ActionIssuerDeauthorized Action = "issuer_deauthorized"
	ActionIssuerTransferred  Action = "issuer_authorization_transferred"
	ActionIssuerActivity     Action = "issuer_activity"
	ActionLedgerTransfer     Action = "ledger_transfer"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out. Amounts are decimal
// strings because they are arbitrary-precision on the ledger.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Block     uint64    `json:"block"`

	// Issuer is the identity the event is about; Actor is the initiating
	// caller when different (forced deauthorization, transfers).
	Issuer string `json:"issuer,omitempty"`
	Actor  string `json:"actor,omitempty"`
	// Counterparty is the receiving identity on transfers and mints.
	Counterparty string `json:"counterparty,omitempty"`

	// Amounts moved in this call and the issuer's running totals. Amount is
	// set on ledger transfers, Minted/Burned on issuance activity.
	Amount      string `json:"amount,omitempty"`
	Minted      string `json:"minted,omitempty"`
	Burned      string `json:"burned,omitempty"`
	TotalMinted string `json:"total_minted,omitempty"`
	TotalBurned string `json:"total_burned,omitempty"`

	// Expiration is set on authorization events; Position on transfers.
	Expiration uint64 `json:"expiration,omitempty"`
	Position   int    `json:"position,omitempty"`

	// RequestID correlates the event with the triggering HTTP request.
	RequestID string `json:"request_id,omitempty"`
}
