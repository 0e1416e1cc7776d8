package ledger

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprout-finance/sprout/internal/types"
)

var (
	alice = types.AddressIdentity(types.Address{1})
	bob   = types.AddressIdentity(types.Address{2})
	usdc  = types.AssetID{0x75}
)

func sumBalances(l *Ledger, asset types.AssetID, holders ...types.Identity) uint64 {
	var total uint64
	for _, h := range holders {
		total += l.Balance(h, asset)
	}
	return total
}

func TestMintTransferBurnConservesSupply(t *testing.T) {
	l := New()

	require.NoError(t, l.Mint(usdc, 1_000, alice))
	require.NoError(t, l.Transfer(usdc, 400, alice, bob))
	require.NoError(t, l.Burn(usdc, 100, bob))

	assert.Equal(t, uint64(600), l.Balance(alice, usdc))
	assert.Equal(t, uint64(300), l.Balance(bob, usdc))
	assert.Equal(t, uint64(900), l.Supply(usdc))
	assert.Equal(t, l.Supply(usdc), sumBalances(l, usdc, alice, bob))
}

func TestTransferInsufficientBalance(t *testing.T) {
	l := New()
	require.NoError(t, l.Mint(usdc, 10, alice))

	err := l.Transfer(usdc, 11, alice, bob)
	assert.ErrorIs(t, err, types.ErrInsufficientBalance)
	assert.Equal(t, uint64(10), l.Balance(alice, usdc))
	assert.Zero(t, l.Balance(bob, usdc))
}

func TestBurnInsufficientBalance(t *testing.T) {
	l := New()
	err := l.Burn(usdc, 1, alice)
	assert.ErrorIs(t, err, types.ErrInsufficientBalance)
}

func TestMintOverflow(t *testing.T) {
	l := New()
	require.NoError(t, l.Mint(usdc, math.MaxUint64, alice))
	assert.Error(t, l.Mint(usdc, 1, bob))
	assert.Equal(t, uint64(math.MaxUint64), l.Supply(usdc))
}

func TestTransferToUnsetIdentity(t *testing.T) {
	l := New()
	require.NoError(t, l.Mint(usdc, 10, alice))
	assert.ErrorIs(t, l.Transfer(usdc, 1, alice, types.Identity{}), types.ErrInvalidParameter)
}

func TestCheckpointRestore(t *testing.T) {
	l := New()
	require.NoError(t, l.Mint(usdc, 100, alice))

	restore := l.Checkpoint()
	require.NoError(t, l.Transfer(usdc, 60, alice, bob))
	require.NoError(t, l.Mint(types.BaseAssetID, 5, bob))
	restore()

	assert.Equal(t, uint64(100), l.Balance(alice, usdc))
	assert.Zero(t, l.Balance(bob, usdc))
	assert.Zero(t, l.Supply(types.BaseAssetID))
	assert.Empty(t, l.Balances(bob))
}
