// Package client is a REST client for the sproutd API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sprout-finance/sprout/internal/node"
	"github.com/sprout-finance/sprout/internal/state"
	"github.com/sprout-finance/sprout/internal/strategy"
	"github.com/sprout-finance/sprout/internal/types"
	"github.com/sprout-finance/sprout/internal/web"
)

// APIError is a non-2xx response from the daemon. It unwraps to the contract error kind when the
// daemon reported one, so callers can use errors.Is with the types sentinels.
type APIError struct {
	Status  int
	Kind    string
	Message string
	Receipt *types.ActionReceipt
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("sproutd %d %s: %s", e.Status, e.Kind, e.Message)
	}
	return fmt.Sprintf("sproutd %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return types.KindError(e.Kind) }

type Client struct {
	client *resty.Client
}

// New creates a client for the API at host, e.g. http://localhost:8080.
func New(host string) *Client {
	host = strings.TrimSuffix(host, "/")

	client := resty.New().
		SetBaseURL(host).
		SetTimeout(30*time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "sproutctl").
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			// only reads are retried on an unavailable daemon
			return resp != nil && resp.Request != nil &&
				resp.Request.Method == http.MethodGet &&
				resp.StatusCode() == http.StatusServiceUnavailable
		})

	return &Client{client: client}
}

func (c *Client) get(ctx context.Context, endpoint string, params map[string]string, out any) error {
	r := c.client.R().SetContext(ctx).SetQueryParams(params).SetResult(out)
	resp, err := r.Get(endpoint)
	return parseResponse(resp, err)
}

func (c *Client) post(ctx context.Context, endpoint string, body, out any) error {
	r := c.client.R().SetContext(ctx).SetHeader("Content-Type", "application/json").SetBody(body)
	if out != nil {
		r.SetResult(out)
	}
	resp, err := r.Post(endpoint)
	return parseResponse(resp, err)
}

func parseResponse(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if resp.IsSuccess() {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode(), Message: strings.TrimSpace(string(resp.Body()))}
	var body web.ErrorResponse
	if json.Unmarshal(resp.Body(), &body) == nil && body.Message != "" {
		apiErr.Kind = body.Kind
		apiErr.Message = body.Message
		apiErr.Receipt = body.Receipt
	}
	return apiErr
}

func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	return out, c.get(ctx, "/health", nil, &out)
}

func (c *Client) Strategy(ctx context.Context) (node.StrategyView, error) {
	var out node.StrategyView
	return out, c.get(ctx, "/api/strategy", nil, &out)
}

func (c *Client) Allocation(ctx context.Context, asset string) (types.TokenAllocation, error) {
	var out types.TokenAllocation
	return out, c.get(ctx, "/api/strategy/allocations/"+url.PathEscape(asset), nil, &out)
}

func (c *Client) Treasury(ctx context.Context) (node.TreasuryView, error) {
	var out node.TreasuryView
	return out, c.get(ctx, "/api/treasury", nil, &out)
}

func (c *Client) Balances(ctx context.Context, identity string) (web.BalancesResponse, error) {
	var out web.BalancesResponse
	return out, c.get(ctx, "/api/balances/"+url.PathEscape(identity), nil, &out)
}

func (c *Client) PreviewDeposit(ctx context.Context, amount uint64) (strategy.DepositPlan, error) {
	var out strategy.DepositPlan
	return out, c.get(ctx, "/api/strategy/preview/deposit", map[string]string{"amount": strconv.FormatUint(amount, 10)}, &out)
}

func (c *Client) PreviewWithdraw(ctx context.Context, receipts uint64) (strategy.WithdrawPlan, error) {
	var out strategy.WithdrawPlan
	return out, c.get(ctx, "/api/strategy/preview/withdraw", map[string]string{"receipts": strconv.FormatUint(receipts, 10)}, &out)
}

func (c *Client) Actions(ctx context.Context, limit int) (web.ActionsResponse, error) {
	var out web.ActionsResponse
	return out, c.get(ctx, "/api/actions", map[string]string{"limit": strconv.Itoa(limit)}, &out)
}

func (c *Client) ActionSummary(ctx context.Context) (state.Summary, error) {
	var out state.Summary
	return out, c.get(ctx, "/api/actions/summary", nil, &out)
}

func (c *Client) Deposit(ctx context.Context, caller string, amount uint64) (node.DepositResult, error) {
	var out node.DepositResult
	return out, c.post(ctx, "/api/tx/deposit", web.TxRequest{Caller: caller, Amount: amount}, &out)
}

func (c *Client) Withdraw(ctx context.Context, caller string, receipts uint64) (node.WithdrawResult, error) {
	var out node.WithdrawResult
	return out, c.post(ctx, "/api/tx/withdraw", web.TxRequest{Caller: caller, Amount: receipts}, &out)
}

func (c *Client) WithdrawFees(ctx context.Context, caller string) (node.TxResult, error) {
	var out node.TxResult
	return out, c.post(ctx, "/api/tx/treasury/withdraw-fees", web.TxRequest{Caller: caller}, &out)
}

func (c *Client) SetWithdrawalFee(ctx context.Context, caller string, bps uint64) (node.TxResult, error) {
	var out node.TxResult
	return out, c.post(ctx, "/api/tx/strategy/set-fee", web.TxRequest{Caller: caller, Bps: bps}, &out)
}

func (c *Client) SetSlippageTolerance(ctx context.Context, caller string, bps uint64) (node.TxResult, error) {
	var out node.TxResult
	return out, c.post(ctx, "/api/tx/strategy/set-slippage", web.TxRequest{Caller: caller, Bps: bps}, &out)
}

func (c *Client) SetFeeTreasury(ctx context.Context, caller, recipient string) (node.TxResult, error) {
	var out node.TxResult
	return out, c.post(ctx, "/api/tx/strategy/set-fee-treasury", web.TxRequest{Caller: caller, Recipient: recipient}, &out)
}

func (c *Client) Faucet(ctx context.Context, to, asset string, amount uint64) error {
	return c.post(ctx, "/api/faucet", web.FaucetRequest{To: to, Asset: asset, Amount: amount}, nil)
}

func (c *Client) Pools(ctx context.Context) (web.PoolsResponse, error) {
	var out web.PoolsResponse
	return out, c.get(ctx, "/api/amm/pools", nil, &out)
}

func (c *Client) SetStrategyOwner(ctx context.Context, caller, newOwner string) (node.TxResult, error) {
	var out node.TxResult
	return out, c.post(ctx, "/api/tx/strategy/set-owner", web.TxRequest{Caller: caller, Recipient: newOwner}, &out)
}

func (c *Client) SetAMMContract(ctx context.Context, caller, amm string) (node.TxResult, error) {
	var out node.TxResult
	return out, c.post(ctx, "/api/tx/strategy/set-amm", web.TxRequest{Caller: caller, Contract: amm}, &out)
}

// SetReceiptToken switches the receipt token; an empty id makes the strategy issue its own receipts.
func (c *Client) SetReceiptToken(ctx context.Context, caller, receiptToken string) (node.TxResult, error) {
	var out node.TxResult
	return out, c.post(ctx, "/api/tx/strategy/set-receipt-token", web.TxRequest{Caller: caller, Contract: receiptToken}, &out)
}

func (c *Client) SetTreasuryStrategy(ctx context.Context, caller, strategyIdentity string) (node.TxResult, error) {
	var out node.TxResult
	return out, c.post(ctx, "/api/tx/treasury/set-strategy", web.TxRequest{Caller: caller, Recipient: strategyIdentity}, &out)
}

func (c *Client) SetProxyTarget(ctx context.Context, caller, target string) (node.TxResult, error) {
	var out node.TxResult
	return out, c.post(ctx, "/api/tx/treasury/set-proxy-target", web.TxRequest{Caller: caller, Contract: target}, &out)
}

func (c *Client) SetTokenApproval(ctx context.Context, caller, strategyID string, approved bool) (node.TxResult, error) {
	var out node.TxResult
	return out, c.post(ctx, "/api/tx/token/set-strategy", web.TxRequest{Caller: caller, Contract: strategyID, Approved: approved}, &out)
}
