package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprout-finance/sprout/internal/config"
	"github.com/sprout-finance/sprout/internal/node"
	"github.com/sprout-finance/sprout/internal/types"
	"github.com/sprout-finance/sprout/internal/web"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	n, err := node.NewNode(context.Background(), node.Config{Genesis: config.DefaultGenesis()})
	require.NoError(t, err)
	ts := httptest.NewServer(web.NewWebServer("0", n, prometheus.NewRegistry()).Handler())
	t.Cleanup(ts.Close)
	return New(ts.URL + "/")
}

func TestClientDepositAndWithdraw(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	user := config.DefaultUser

	view, err := c.Strategy(ctx)
	require.NoError(t, err)
	assert.Equal(t, node.StrategyContractID, view.Contract)

	preview, err := c.PreviewDeposit(ctx, 20_000)
	require.NoError(t, err)

	dep, err := c.Deposit(ctx, user, 20_000)
	require.NoError(t, err)
	assert.Equal(t, preview.Receipts, dep.Plan.Receipts)

	wp, err := c.PreviewWithdraw(ctx, 10_000)
	require.NoError(t, err)
	wd, err := c.Withdraw(ctx, user, 10_000)
	require.NoError(t, err)
	assert.Equal(t, wp.Net, wd.Plan.Net)

	balances, err := c.Balances(ctx, "address:"+user)
	require.NoError(t, err)
	assert.NotEmpty(t, balances.Balances)

	actions, err := c.Actions(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, actions.Actions, 0) // the test node records nothing

	alloc, err := c.Allocation(ctx, "USDC")
	require.NoError(t, err)
	assert.Equal(t, uint16(5000), alloc.Percentage)
}

func TestClientErrorsUnwrapToKinds(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.Withdraw(ctx, config.DefaultUser, 10)
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.ErrorIs(t, err, types.ErrInsufficientBalance)
	require.NotNil(t, apiErr.Receipt)
	assert.False(t, apiErr.Receipt.Success)

	_, err = c.SetWithdrawalFee(ctx, config.DefaultUser, 5)
	assert.ErrorIs(t, err, types.ErrNotOwner)

	_, err = c.WithdrawFees(ctx, config.DefaultOwner)
	assert.ErrorIs(t, err, types.ErrZeroAmount)

	err = c.Faucet(ctx, config.DefaultUser, "DOGE", 1)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Empty(t, apiErr.Kind)
}

func TestClientOwnerOperations(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	owner := config.DefaultOwner

	_, err := c.SetWithdrawalFee(ctx, owner, 75)
	require.NoError(t, err)
	_, err = c.SetSlippageTolerance(ctx, owner, 400)
	require.NoError(t, err)
	_, err = c.SetFeeTreasury(ctx, owner, "contract:"+node.TreasuryContractID.String())
	require.NoError(t, err)
	require.NoError(t, c.Faucet(ctx, owner, "ETH", 10))

	view, err := c.Strategy(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(75), view.WithdrawalFeeBps)
	assert.Equal(t, uint64(400), view.SlippageToleranceBps)

	tv, err := c.Treasury(ctx)
	require.NoError(t, err)
	assert.Zero(t, tv.FeeBalance)

	summary, err := c.ActionSummary(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.TotalActions)
}

func TestClientAdminSurface(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	owner, user := config.DefaultOwner, config.DefaultUser
	strategyID := node.StrategyContractID.String()

	pools, err := c.Pools(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, pools.Count)
	for _, p := range pools.Pools {
		assert.Positive(t, p.Reserve0)
		assert.Positive(t, p.Reserve1)
	}

	_, err = c.SetTokenApproval(ctx, user, strategyID, false)
	assert.ErrorIs(t, err, types.ErrNotOwner)
	_, err = c.SetTokenApproval(ctx, owner, strategyID, false)
	require.NoError(t, err)
	view, err := c.Strategy(ctx)
	require.NoError(t, err)
	assert.False(t, view.ReceiptTokenApproved)
	_, err = c.Deposit(ctx, user, 1_000)
	assert.ErrorIs(t, err, types.ErrUnauthorized)
	_, err = c.SetTokenApproval(ctx, owner, strategyID, true)
	require.NoError(t, err)
	_, err = c.Deposit(ctx, user, 1_000)
	require.NoError(t, err)

	_, err = c.SetReceiptToken(ctx, owner, "")
	assert.ErrorIs(t, err, types.ErrInvalidParameter)

	implV2 := node.ContractIDFor("treasury-impl-v2")
	_, err = c.SetProxyTarget(ctx, user, implV2.String())
	assert.ErrorIs(t, err, types.ErrNotOwner)
	_, err = c.SetProxyTarget(ctx, owner, implV2.String())
	require.NoError(t, err)
	_, err = c.SetTreasuryStrategy(ctx, user, "contract:"+strategyID)
	assert.ErrorIs(t, err, types.ErrNotOwner)
	_, err = c.SetTreasuryStrategy(ctx, owner, "contract:"+strategyID)
	require.NoError(t, err)
	tv, err := c.Treasury(ctx)
	require.NoError(t, err)
	assert.Equal(t, implV2, tv.ProxyTarget)

	_, err = c.SetAMMContract(ctx, owner, node.ContractIDFor("missing-amm").String())
	require.NoError(t, err)
	_, err = c.Deposit(ctx, user, 1_000)
	assert.ErrorIs(t, err, types.ErrSwapFailed)
	_, err = c.SetAMMContract(ctx, owner, node.AMMContractID.String())
	require.NoError(t, err)

	_, err = c.SetStrategyOwner(ctx, owner, user)
	require.NoError(t, err)
	_, err = c.SetWithdrawalFee(ctx, owner, 10)
	assert.ErrorIs(t, err, types.ErrNotOwner)
	_, err = c.SetWithdrawalFee(ctx, user, 10)
	require.NoError(t, err)
}

func TestClientRetriesUnavailableReads(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK"}`))
	}))
	defer ts.Close()

	health, err := New(ts.URL).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "OK", health["status"])
	assert.Equal(t, int32(2), calls.Load())
}
