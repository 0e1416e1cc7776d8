/*

This file contains the types describing value moving through a transaction: attached payments,
events emitted by contracts, and the receipt recorded for every executed transaction.

*/

package types

import "time"

// Coin is an amount of one asset, used for payments attached to a call.
type Coin struct {
	Asset  AssetID `json:"asset"`
	Amount uint64  `json:"amount"`
}

// Event is a structured log entry emitted by a contract during a transaction.
type Event struct {
	Contract ContractID     `json:"contract"`
	Name     string         `json:"name"`
	Data     map[string]any `json:"data,omitempty"`
}

// ActionReceipt records the outcome of one transaction for the audit trail.
type ActionReceipt struct {
	ReceiptID int64      `json:"receipt_id,omitempty"` // Auto-incremented by the recorder
	TxID      string     `json:"tx_id"`
	Height    uint64     `json:"height"`
	Timestamp time.Time  `json:"timestamp"`
	Contract  ContractID `json:"contract"`
	Method    string     `json:"method"`
	Caller    Identity   `json:"caller"`
	Payment   *Coin      `json:"payment,omitempty"`
	Success   bool       `json:"success"`
	ErrorKind string     `json:"error_kind,omitempty"`
	Message   string     `json:"message,omitempty"`
	Events    []Event    `json:"events,omitempty"`
}
