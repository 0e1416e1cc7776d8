package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprout-finance/sprout/internal/config"
	"github.com/sprout-finance/sprout/internal/metrics"
	"github.com/sprout-finance/sprout/internal/node"
	"github.com/sprout-finance/sprout/internal/types"
)

func newTestServer(t *testing.T) (*httptest.Server, *node.Node) {
	t.Helper()
	reg := prometheus.NewRegistry()
	n, err := node.NewNode(context.Background(), node.Config{
		Genesis:    config.DefaultGenesis(),
		Indicators: metrics.NewPromIndicators(reg, "node"),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(NewWebServer("0", n, reg).Handler())
	t.Cleanup(ts.Close)
	return ts, n
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)

	var body map[string]any
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/health", nil, &body))
	assert.Equal(t, "OK", body["status"])
	assert.Contains(t, body, "chain_status")
}

func TestGetStrategyAndTreasury(t *testing.T) {
	ts, n := newTestServer(t)

	var view node.StrategyView
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/api/strategy", nil, &view))
	assert.Equal(t, node.StrategyContractID, view.Contract)
	assert.Equal(t, n.Owner(), view.Owner)
	assert.Len(t, view.Allocations, 2)

	var tv node.TreasuryView
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/api/treasury", nil, &tv))
	assert.Equal(t, "Initialized", tv.ProxyState)
	assert.Equal(t, types.ContractIdentity(node.StrategyContractID), tv.Strategy)

	var alloc types.TokenAllocation
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/api/strategy/allocations/usdc", nil, &alloc))
	assert.Equal(t, uint16(5000), alloc.Percentage)

	var errResp ErrorResponse
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodGet, ts.URL+"/api/strategy/allocations/BTC", nil, &errResp))
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodGet, ts.URL+"/api/strategy/allocations/DOGE", nil, &errResp))
}

func TestDepositWithdrawFlow(t *testing.T) {
	ts, n := newTestServer(t)
	user := "address:" + config.DefaultUser

	var preview map[string]any
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/api/strategy/preview/deposit?amount=1000000", nil, &preview))
	assert.EqualValues(t, 1_000_000, preview["receipts"])

	var dep node.DepositResult
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, ts.URL+"/api/tx/deposit", TxRequest{Caller: user, Amount: 1_000_000}, &dep))
	assert.True(t, dep.Receipt.Success)
	assert.Equal(t, uint64(1_000_000), dep.Plan.Receipts)

	var balances BalancesResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/api/balances/"+user, nil, &balances))
	assert.NotEmpty(t, balances.Balances)

	var wd node.WithdrawResult
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, ts.URL+"/api/tx/withdraw", TxRequest{Caller: user, Amount: 400_000}, &wd))
	assert.Equal(t, uint64(400_000), wd.Plan.Receipts)
	assert.Equal(t, wd.Plan.Proceeds, wd.Plan.Net+wd.Plan.Fee)

	var fees node.TxResult
	owner := "address:" + config.DefaultOwner
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, ts.URL+"/api/tx/treasury/withdraw-fees", TxRequest{Caller: owner}, &fees))
	assert.Equal(t, wd.Plan.Fee, fees.Amount)

	var actions ActionsResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/api/actions?limit=5", nil, &actions))
	assert.Equal(t, 5, actions.Limit)

	assert.Equal(t, n.Owner().String(), "Address("+config.DefaultOwner+")")
}

func TestTransactionErrorsCarryKindAndReceipt(t *testing.T) {
	ts, _ := newTestServer(t)
	user := "address:" + config.DefaultUser

	var errResp ErrorResponse
	assert.Equal(t, http.StatusUnprocessableEntity, doJSON(t, http.MethodPost, ts.URL+"/api/tx/deposit", TxRequest{Caller: user}, &errResp))
	assert.Equal(t, "ZeroAmount", errResp.Kind)
	require.NotNil(t, errResp.Receipt)
	assert.False(t, errResp.Receipt.Success)

	errResp = ErrorResponse{}
	assert.Equal(t, http.StatusForbidden, doJSON(t, http.MethodPost, ts.URL+"/api/tx/strategy/set-fee", TxRequest{Caller: user, Bps: 10}, &errResp))
	assert.Equal(t, "NotOwner", errResp.Kind)

	errResp = ErrorResponse{}
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, ts.URL+"/api/tx/deposit", TxRequest{Caller: "nobody", Amount: 1}, &errResp))

	errResp = ErrorResponse{}
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, ts.URL+"/api/tx/deposit", map[string]any{"caller": user, "amount": 1, "extra": true}, &errResp))
}

func TestOwnerSettersOverAPI(t *testing.T) {
	ts, _ := newTestServer(t)
	owner := "address:" + config.DefaultOwner

	var res node.TxResult
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, ts.URL+"/api/tx/strategy/set-fee", TxRequest{Caller: owner, Bps: 120}, &res))
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, ts.URL+"/api/tx/strategy/set-slippage", TxRequest{Caller: owner, Bps: 250}, &res))
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, ts.URL+"/api/tx/strategy/set-fee-treasury", TxRequest{Caller: owner, Recipient: config.DefaultUser}, &res))

	var view node.StrategyView
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/api/strategy", nil, &view))
	assert.Equal(t, uint64(120), view.WithdrawalFeeBps)
	assert.Equal(t, uint64(250), view.SlippageToleranceBps)
	assert.Equal(t, types.IdentityAddress, view.FeeTreasury.Kind)

	var errResp ErrorResponse
	assert.Equal(t, http.StatusUnprocessableEntity, doJSON(t, http.MethodPost, ts.URL+"/api/tx/strategy/set-slippage", TxRequest{Caller: owner, Bps: 10_001}, &errResp))
	assert.Equal(t, "InvalidParameter", errResp.Kind)
}

func TestAdminRoutes(t *testing.T) {
	ts, n := newTestServer(t)
	owner, user := "address:"+config.DefaultOwner, "address:"+config.DefaultUser
	strategyID := node.StrategyContractID.String()

	var res node.TxResult
	var errResp ErrorResponse
	assert.Equal(t, http.StatusForbidden, doJSON(t, http.MethodPost, ts.URL+"/api/tx/token/set-strategy",
		TxRequest{Caller: user, Contract: strategyID}, &errResp))
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, ts.URL+"/api/tx/token/set-strategy",
		TxRequest{Caller: owner, Contract: strategyID, Approved: false}, &res))

	errResp = ErrorResponse{}
	assert.Equal(t, http.StatusForbidden, doJSON(t, http.MethodPost, ts.URL+"/api/tx/deposit", TxRequest{Caller: user, Amount: 1000}, &errResp))
	assert.Equal(t, "Unauthorized", errResp.Kind)

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, ts.URL+"/api/tx/token/set-strategy",
		TxRequest{Caller: owner, Contract: strategyID, Approved: true}, &res))
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, ts.URL+"/api/tx/deposit", TxRequest{Caller: user, Amount: 1000}, nil))

	errResp = ErrorResponse{}
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodPost, ts.URL+"/api/tx/strategy/set-receipt-token",
		TxRequest{Caller: owner, Contract: node.ContractIDFor("nothing").String()}, &errResp))
	assert.Equal(t, "UnknownContract", errResp.Kind)

	implV2 := node.ContractIDFor("treasury-impl-v2")
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, ts.URL+"/api/tx/treasury/set-proxy-target",
		TxRequest{Caller: owner, Contract: implV2.String()}, &res))
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, ts.URL+"/api/tx/treasury/set-strategy",
		TxRequest{Caller: owner, Recipient: "contract:" + strategyID}, &res))
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, ts.URL+"/api/tx/treasury/set-strategy",
		TxRequest{Caller: owner}, nil))
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, ts.URL+"/api/tx/strategy/set-amm",
		TxRequest{Caller: owner, Contract: "zz"}, nil))
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, ts.URL+"/api/tx/strategy/set-amm",
		TxRequest{Caller: owner, Contract: node.AMMContractID.String()}, &res))
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, ts.URL+"/api/tx/strategy/set-owner",
		TxRequest{Caller: owner, Recipient: user}, &res))

	tv, err := n.Treasury()
	require.NoError(t, err)
	assert.Equal(t, implV2, tv.ProxyTarget)
	view, err := n.Strategy()
	require.NoError(t, err)
	assert.Equal(t, types.IdentityAddress, view.Owner.Kind)
	assert.NotEqual(t, n.Owner(), view.Owner)
}

func TestGetPools(t *testing.T) {
	ts, _ := newTestServer(t)

	var out PoolsResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/api/amm/pools", nil, &out))
	require.Equal(t, 2, out.Count)
	require.Len(t, out.Pools, 2)
	assert.Less(t, out.Pools[0].Pool.String(), out.Pools[1].Pool.String())
	for _, p := range out.Pools {
		assert.Positive(t, p.Reserve0)
		assert.Positive(t, p.Reserve1)
	}
}

func TestFaucetAndMetrics(t *testing.T) {
	ts, _ := newTestServer(t)
	to := "address:0x00000000000000000000000000000000000000000000000000000000000000d4"

	var out map[string]any
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, ts.URL+"/api/faucet", FaucetRequest{To: to, Asset: "BASE", Amount: 5000}, &out))
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, ts.URL+"/api/tx/deposit", TxRequest{Caller: to, Amount: 5000}, nil))

	var errResp ErrorResponse
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, ts.URL+"/api/faucet", FaucetRequest{To: to, Asset: "DOGE", Amount: 1}, &errResp))

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)
	assert.True(t, strings.Contains(body, `sprout_node_txs_total{method="deposit",state="ok"} 1`), body)
	assert.Contains(t, body, "sprout_node_deposited_base_total 5000")
}

func TestStatusForKind(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, statusForKind("Unauthorized"))
	assert.Equal(t, http.StatusConflict, statusForKind("AlreadyInitialized"))
	assert.Equal(t, http.StatusNotFound, statusForKind("UnknownContract"))
	assert.Equal(t, http.StatusUnprocessableEntity, statusForKind("SwapFailed"))
	assert.Equal(t, http.StatusInternalServerError, statusForKind("Unknown"))
}
