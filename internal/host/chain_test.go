package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprout-finance/sprout/internal/ledger"
	"github.com/sprout-finance/sprout/internal/types"
)

type counter struct {
	value int
}

func (c *counter) Checkpoint() func() {
	saved := *c
	return func() { *c = saved }
}

type memorySink struct {
	mu       sync.Mutex
	receipts []types.ActionReceipt
}

func (m *memorySink) RecordAction(_ context.Context, r types.ActionReceipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts = append(m.receipts, r)
	return nil
}

var (
	wallet   = types.AddressIdentity(types.Address{0xaa})
	counterA = types.ContractID{0x01}
	counterB = types.ContractID{0x02}
	gold     = types.AssetID{0x60}
)

func newTestChain(t *testing.T) (*Chain, *counter, *counter, *memorySink) {
	t.Helper()
	sink := &memorySink{}
	chain := NewChain(Config{Sink: sink})
	a, b := &counter{}, &counter{}
	require.NoError(t, chain.Deploy(counterA, a))
	require.NoError(t, chain.Deploy(counterB, b))
	require.NoError(t, chain.Mint(wallet, gold, 1_000))
	return chain, a, b, sink
}

func balance(t *testing.T, chain *Chain, who types.Identity, asset types.AssetID) uint64 {
	t.Helper()
	var got uint64
	require.NoError(t, chain.View(func(l *ledger.Ledger) error {
		got = l.Balance(who, asset)
		return nil
	}))
	return got
}

func TestExecuteCommitsPaymentAndEvents(t *testing.T) {
	chain, a, _, sink := newTestChain(t)

	receipt, err := chain.Execute(context.Background(), Tx{
		Caller:  wallet,
		Target:  counterA,
		Method:  "bump",
		Payment: &types.Coin{Asset: gold, Amount: 40},
	}, func(call *Call) error {
		amount, err := call.RequirePayment(gold)
		if err != nil {
			return err
		}
		a.value += int(amount)
		call.Emit("Bumped", map[string]any{"by": amount})
		return nil
	})
	require.NoError(t, err)

	assert.True(t, receipt.Success)
	assert.Equal(t, uint64(1), receipt.Height)
	assert.NotEmpty(t, receipt.TxID)
	require.Len(t, receipt.Events, 1)
	assert.Equal(t, "Bumped", receipt.Events[0].Name)
	assert.Equal(t, counterA, receipt.Events[0].Contract)

	assert.Equal(t, 40, a.value)
	assert.Equal(t, uint64(960), balance(t, chain, wallet, gold))
	assert.Equal(t, uint64(40), balance(t, chain, types.ContractIdentity(counterA), gold))
	require.Len(t, sink.receipts, 1)
	assert.Equal(t, receipt.TxID, sink.receipts[0].TxID)
}

func TestExecuteRevertsOnError(t *testing.T) {
	chain, a, b, sink := newTestChain(t)
	boom := errors.New("boom")

	receipt, err := chain.Execute(context.Background(), Tx{
		Caller:  wallet,
		Target:  counterA,
		Method:  "fail",
		Payment: &types.Coin{Asset: gold, Amount: 100},
	}, func(call *Call) error {
		a.value = 7
		b.value = 9
		call.Emit("Ignored", nil)
		if err := call.Transfer(wallet, gold, 50); err != nil {
			return err
		}
		return fmt.Errorf("%w: %w", types.ErrSwapFailed, boom)
	})
	require.ErrorIs(t, err, types.ErrSwapFailed)

	assert.False(t, receipt.Success)
	assert.Equal(t, "SwapFailed", receipt.ErrorKind)
	assert.Empty(t, receipt.Events)
	assert.Zero(t, a.value)
	assert.Zero(t, b.value)
	assert.Equal(t, uint64(1_000), balance(t, chain, wallet, gold))
	assert.Zero(t, balance(t, chain, types.ContractIdentity(counterA), gold))
	require.Len(t, sink.receipts, 1)
	assert.False(t, sink.receipts[0].Success)
}

func TestExecuteRevertsOnPanic(t *testing.T) {
	chain, a, _, _ := newTestChain(t)

	_, err := chain.Execute(context.Background(), Tx{Caller: wallet, Target: counterA, Method: "panic"},
		func(call *Call) error {
			a.value = 3
			panic("unexpected")
		})
	require.ErrorIs(t, err, types.ErrPanic)
	assert.Zero(t, a.value)
}

func TestExecuteRejectsUnknownTargetAndShortPayment(t *testing.T) {
	chain, _, _, _ := newTestChain(t)
	noop := func(*Call) error { return nil }

	_, err := chain.Execute(context.Background(), Tx{Caller: wallet, Target: types.ContractID{0xff}, Method: "x"}, noop)
	assert.ErrorIs(t, err, types.ErrUnknownContract)

	_, err = chain.Execute(context.Background(), Tx{
		Caller:  wallet,
		Target:  counterA,
		Method:  "x",
		Payment: &types.Coin{Asset: gold, Amount: 5_000},
	}, noop)
	assert.ErrorIs(t, err, types.ErrInsufficientBalance)
}

func TestRequirePayment(t *testing.T) {
	chain, _, _, _ := newTestChain(t)

	_, err := chain.Execute(context.Background(), Tx{Caller: wallet, Target: counterA, Method: "x"},
		func(call *Call) error {
			_, err := call.RequirePayment(gold)
			return err
		})
	assert.ErrorIs(t, err, types.ErrWrongAsset)

	_, err = chain.Execute(context.Background(), Tx{
		Caller:  wallet,
		Target:  counterA,
		Method:  "x",
		Payment: &types.Coin{Asset: gold},
	}, func(call *Call) error {
		_, err := call.RequirePayment(gold)
		return err
	})
	assert.ErrorIs(t, err, types.ErrZeroAmount)
}

func TestInvokeNestedCall(t *testing.T) {
	chain, _, b, _ := newTestChain(t)

	receipt, err := chain.Execute(context.Background(), Tx{
		Caller:  wallet,
		Target:  counterA,
		Method:  "forward",
		Payment: &types.Coin{Asset: gold, Amount: 30},
	}, func(call *Call) error {
		nested, err := call.Invoke(counterB, &types.Coin{Asset: gold, Amount: 10})
		if err != nil {
			return err
		}
		assert.Equal(t, types.ContractIdentity(counterA), nested.Caller)
		b.value++
		nested.Emit("Forwarded", nil)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, b.value)
	assert.Equal(t, uint64(20), balance(t, chain, types.ContractIdentity(counterA), gold))
	assert.Equal(t, uint64(10), balance(t, chain, types.ContractIdentity(counterB), gold))
	require.Len(t, receipt.Events, 1)
	assert.Equal(t, counterB, receipt.Events[0].Contract)
}

func TestDeployTwiceFails(t *testing.T) {
	chain, _, _, _ := newTestChain(t)
	assert.ErrorIs(t, chain.Deploy(counterA, &counter{}), types.ErrInvalidParameter)
}

func TestCanceledContext(t *testing.T) {
	chain, a, _, _ := newTestChain(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := chain.Execute(ctx, Tx{Caller: wallet, Target: counterA, Method: "x"}, func(*Call) error {
		a.value = 1
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, a.value)
}
