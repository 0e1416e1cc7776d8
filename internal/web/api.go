package web

import (
	"time"

	"github.com/sprout-finance/sprout/internal/node"
	"github.com/sprout-finance/sprout/internal/types"
)

// TxRequest is the body of every transaction endpoint. Identities use the "address:0x…" or
// "contract:0x…" form; a bare hex string is an address. Contract is a bare hex contract id.
type TxRequest struct {
	Caller    string `json:"caller"`
	Amount    uint64 `json:"amount,omitempty"`
	Bps       uint64 `json:"bps,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Contract  string `json:"contract,omitempty"`
	Approved  bool   `json:"approved,omitempty"`
}

// FaucetRequest mints test funds. Asset is a symbol or a hex asset id.
type FaucetRequest struct {
	To     string `json:"to"`
	Asset  string `json:"asset"`
	Amount uint64 `json:"amount"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error     bool                 `json:"error"`
	Kind      string               `json:"kind,omitempty"`
	Message   string               `json:"message"`
	Timestamp time.Time            `json:"timestamp"`
	Receipt   *types.ActionReceipt `json:"receipt,omitempty"`
}

// BalancesResponse lists an identity's holdings.
type BalancesResponse struct {
	Identity types.Identity `json:"identity"`
	Balances []types.Coin   `json:"balances"`
}

// PoolsResponse lists the AMM pools.
type PoolsResponse struct {
	Pools []node.PoolView `json:"pools"`
	Count int             `json:"count"`
}

// ActionsResponse is a page of recorded receipts.
type ActionsResponse struct {
	Actions []types.ActionReceipt `json:"actions"`
	Count   int                   `json:"count"`
	Limit   int                   `json:"limit"`
}
