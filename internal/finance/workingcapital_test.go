package finance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWorkingCapitalHealth(t *testing.T) {
	healthy := ComputeWorkingCapital(WorkingCapitalInput{Receivables: 2000, CashOnHand: 1000, Payables: 1500, DSO: 45, DPO: 30})
	require.Equal(t, 1500.0, healthy.NetWorkingCapital)
	require.Equal(t, 2.0, healthy.CurrentRatio)
	require.Equal(t, 15.0, healthy.CashConversionCycle)
	require.Equal(t, CapitalHealthy, healthy.Health)

	warning := ComputeWorkingCapital(WorkingCapitalInput{Receivables: 1200, Payables: 1000})
	require.Equal(t, 1.2, warning.CurrentRatio)
	require.Equal(t, CapitalWarning, warning.Health)

	critical := ComputeWorkingCapital(WorkingCapitalInput{Receivables: 500, Payables: 800})
	require.Equal(t, CapitalCritical, critical.Health)
}

func TestWorkingCapitalNoPayables(t *testing.T) {
	wc := ComputeWorkingCapital(WorkingCapitalInput{Receivables: 300})
	require.True(t, wc.RatioUnbounded)
	require.Equal(t, 0.0, wc.CurrentRatio)
	require.Equal(t, CapitalHealthy, wc.Health)
}
