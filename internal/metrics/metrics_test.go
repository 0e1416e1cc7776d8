package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPromIndicators(t *testing.T) {
	reg := prometheus.NewRegistry()
	ind := NewPromIndicators(reg, "test")

	ind.IncrementTxTotal("deposit", "ok")
	ind.IncrementTxTotal("deposit", "ok")
	ind.IncrementTxTotal("withdraw", "SwapFailed")
	assert.Equal(t, 2.0, testutil.ToFloat64(ind.txTotal.WithLabelValues("deposit", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ind.txTotal.WithLabelValues("withdraw", "SwapFailed")))

	ind.ObserveDeposit(100_000)
	assert.Equal(t, 100_000.0, testutil.ToFloat64(ind.depositVolume))

	ind.ObserveWithdrawal(100, 190, 10)
	assert.Equal(t, 100.0, testutil.ToFloat64(ind.redeemedTotal))
	assert.Equal(t, 190.0, testutil.ToFloat64(ind.withdrawnVolume))
	assert.Equal(t, 10.0, testutil.ToFloat64(ind.feesCollected))

	ind.SetReceiptSupply(99_900)
	assert.Equal(t, 99_900.0, testutil.ToFloat64(ind.receiptSupply))

	ind.SetTreasuryBalance(10)
	assert.Equal(t, 10.0, testutil.ToFloat64(ind.treasuryBalance))
}

func TestPromIndicatorsRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPromIndicators(reg, "a")
	assert.Panics(t, func() { NewPromIndicators(reg, "a") })
	assert.NotPanics(t, func() { NewPromIndicators(reg, "b") })
}
