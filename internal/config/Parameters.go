/*

This file contains the default genesis for a simulated Sprout chain.

The default basket holds half of every deposit as USDC, acquired through a stable USDC/BASE pool, and keeps the
other half in the base asset. An ETH/BASE volatile pool is seeded as well so operators can re-point allocations
at it from a genesis file without touching code.

*/

package config

import "github.com/sprout-finance/sprout/internal/strategy"

const (
	// DefaultOwner owns every contract deployed from the default genesis.
	DefaultOwner = "0x00000000000000000000000000000000000000000000000000000000000000a1"
	// DefaultUser is a funded wallet for trying deposits and withdrawals.
	DefaultUser = "0x00000000000000000000000000000000000000000000000000000000000000b1"

	// DefaultWithdrawalFeeBps charges 0.5% of withdrawal proceeds.
	DefaultWithdrawalFeeBps uint64 = 50

	// DefaultFaucetLimit caps a single faucet mint.
	DefaultFaucetLimit uint64 = 1_000_000_000
)

// DefaultGenesis returns a fresh copy of the default genesis.
func DefaultGenesis() Genesis {
	usdcPool := PoolGenesis{Asset0: "USDC", Asset1: "BASE", Stable: true}
	return Genesis{
		Owner: DefaultOwner,
		Wallets: []WalletGenesis{
			{Address: DefaultOwner, Balances: map[string]uint64{"BASE": 200_000_000_000, "USDC": 100_000_000_000, "ETH": 50_000_000_000}},
			{Address: DefaultUser, Balances: map[string]uint64{"BASE": 10_000_000_000}},
		},
		AMM: AMMGenesis{
			VolatileFeeBps: 30,
			StableFeeBps:   5,
			Pools: []PoolGenesis{
				{Asset0: "USDC", Asset1: "BASE", Stable: true, Reserve0: 50_000_000_000, Reserve1: 50_000_000_000},
				{Asset0: "ETH", Asset1: "BASE", Stable: false, Reserve0: 20_000_000_000, Reserve1: 50_000_000_000},
			},
		},
		Strategy: StrategyGenesis{
			WithdrawalFeeBps:     DefaultWithdrawalFeeBps,
			SlippageToleranceBps: strategy.DefaultSlippageTolerance,
			FeeRecipient:         FeeRecipientTreasury,
			Allocations: []AllocationGenesis{
				{Token: "USDC", Pool: usdcPool, Percentage: 5000},
				{Token: "BASE", Percentage: 5000},
			},
		},
	}
}
