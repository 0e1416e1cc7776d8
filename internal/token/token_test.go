package token

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprout-finance/sprout/internal/host"
	"github.com/sprout-finance/sprout/internal/ledger"
	"github.com/sprout-finance/sprout/internal/types"
)

type stub struct{}

func (stub) Checkpoint() func() { return func() {} }

var (
	tokenID    = types.ContractID{0x70}
	strategyID = types.ContractID{0x57}
	owner      = types.AddressIdentity(types.Address{0x01})
	holder     = types.AddressIdentity(types.Address{0x02})
)

func setup(t *testing.T) (*host.Chain, *SproutToken) {
	t.Helper()
	chain := host.NewChain(host.Config{})
	tok := New(tokenID)
	require.NoError(t, chain.Deploy(tokenID, tok))
	require.NoError(t, chain.Deploy(strategyID, stub{}))
	return chain, tok
}

func exec(chain *host.Chain, caller types.Identity, target types.ContractID, fn func(*host.Call) error) error {
	_, err := chain.Execute(context.Background(), host.Tx{Caller: caller, Target: target, Method: "token_test"}, fn)
	return err
}

// asStrategy runs fn as a nested call from the strategy contract into the token.
func asStrategy(chain *host.Chain, fn func(*host.Call) error) error {
	return exec(chain, holder, strategyID, func(call *host.Call) error {
		nested, err := call.Invoke(tokenID, nil)
		if err != nil {
			return err
		}
		return fn(nested)
	})
}

func TestDeriveAssetIDIsStable(t *testing.T) {
	a := DeriveAssetID(tokenID)
	assert.Equal(t, a, DeriveAssetID(tokenID))
	assert.NotEqual(t, a, DeriveAssetID(strategyID))
	assert.NotEqual(t, types.BaseAssetID, a)
}

func TestStrategyApproval(t *testing.T) {
	chain, tok := setup(t)
	require.NoError(t, exec(chain, owner, tokenID, tok.InitializeOwner))

	err := exec(chain, holder, tokenID, func(call *host.Call) error {
		return tok.SetStrategy(call, strategyID, true)
	})
	assert.ErrorIs(t, err, types.ErrNotOwner)
	assert.False(t, tok.IsStrategyApproved(strategyID))

	require.NoError(t, exec(chain, owner, tokenID, func(call *host.Call) error {
		return tok.SetStrategy(call, strategyID, true)
	}))
	assert.True(t, tok.IsStrategyApproved(strategyID))

	require.NoError(t, exec(chain, owner, tokenID, func(call *host.Call) error {
		return tok.SetStrategy(call, strategyID, false)
	}))
	assert.False(t, tok.IsStrategyApproved(strategyID))
}

func TestMintAndBurnRequireApprovedStrategy(t *testing.T) {
	chain, tok := setup(t)
	require.NoError(t, exec(chain, owner, tokenID, tok.InitializeOwner))

	err := asStrategy(chain, func(call *host.Call) error { return tok.Mint(call, holder, 10) })
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	err = exec(chain, holder, tokenID, func(call *host.Call) error { return tok.Mint(call, holder, 10) })
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	require.NoError(t, exec(chain, owner, tokenID, func(call *host.Call) error {
		return tok.SetStrategy(call, strategyID, true)
	}))
	require.NoError(t, asStrategy(chain, func(call *host.Call) error {
		return tok.Mint(call, types.ContractIdentity(strategyID), 25)
	}))
	require.NoError(t, asStrategy(chain, func(call *host.Call) error { return tok.Burn(call, 5) }))

	require.NoError(t, chain.View(func(l *ledger.Ledger) error {
		assert.Equal(t, uint64(20), tok.TotalSupply(l))
		assert.Equal(t, uint64(20), l.Balance(types.ContractIdentity(strategyID), tok.AssetID()))
		return nil
	}))
}
