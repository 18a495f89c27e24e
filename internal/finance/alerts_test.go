package finance

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func severities(alerts []Alert) []AlertSeverity {
	out := make([]AlertSeverity, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Severity)
	}
	return out
}

func TestDeriveAlertsAllClear(t *testing.T) {
	alerts := DeriveAlerts(AlertInput{})
	require.Len(t, alerts, 1)
	require.Equal(t, AlertSuccess, alerts[0].Severity)
}

func TestDeriveAlertsAgingCritical(t *testing.T) {
	client := uuid.New()
	aging := ComputeAging([]IssuedInvoice{
		openInvoice(client, "2024-03-31", 100),
		openInvoice(client, "2024-01-31", 300),
	}, nil, "2024-04-30", 0)

	alerts := DeriveAlerts(AlertInput{Aging: aging})
	require.Equal(t, AlertError, alerts[0].Severity)
	require.Equal(t, "Crediti scaduti critici", alerts[0].Title)
	require.NotEmpty(t, alerts[0].SuggestedActions)
}

func TestDeriveAlertsAgingBelowThreshold(t *testing.T) {
	client := uuid.New()
	aging := ComputeAging([]IssuedInvoice{
		openInvoice(client, "2024-04-20", 900),
		openInvoice(client, "2024-01-31", 100),
	}, nil, "2024-04-30", 0)

	alerts := DeriveAlerts(AlertInput{Aging: aging})
	require.Equal(t, []AlertSeverity{AlertSuccess}, severities(alerts))
}

func TestDeriveAlertsOrder(t *testing.T) {
	forecast := ComputeCashFlowForecast(0, [3]float64{}, [3]float64{0, 10, 0})
	alerts := DeriveAlerts(AlertInput{
		Summary:  Summary{GrossMargin: -10},
		Variance: ComputeProjectVariance([]ProjectBudget{{Title: "Alfa", Budget: 100, ActualCost: 150}}),
		CashFlow: &forecast,
	})
	require.Equal(t, []AlertSeverity{AlertWarning, AlertError, AlertError}, severities(alerts))
	require.Contains(t, alerts[0].Message, "Alfa")
	require.Contains(t, alerts[1].Message, "periodo 2")
}

func TestDeriveAlertsUtilizationAndVAT(t *testing.T) {
	alerts := DeriveAlerts(AlertInput{
		Summary: Summary{VATBalance: 120},
		Utilization: []Utilization{
			ComputeUtilization(uuid.New(), 50, 160),
		},
	})
	require.Equal(t, []AlertSeverity{AlertInfo, AlertInfo, AlertSuccess}, severities(alerts))
	require.Equal(t, "IVA a debito", alerts[1].Title)
}

func TestDeriveAlertsWorkingCapital(t *testing.T) {
	critical := ComputeWorkingCapital(WorkingCapitalInput{Payables: 100})
	alerts := DeriveAlerts(AlertInput{WorkingCapital: &critical})
	require.Equal(t, []AlertSeverity{AlertError}, severities(alerts))

	warning := ComputeWorkingCapital(WorkingCapitalInput{Receivables: 120, Payables: 100})
	alerts = DeriveAlerts(AlertInput{WorkingCapital: &warning})
	require.Equal(t, []AlertSeverity{AlertWarning}, severities(alerts))
}
