package finance

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openInvoice(client uuid.UUID, due Date, total float64) IssuedInvoice {
	return IssuedInvoice{
		ClientID:      client,
		DueDate:       &due,
		TotalAmount:   Amount(total),
		PaymentStatus: IssuedAwaitingCollection,
	}
}

func TestAgingBucketBoundaries(t *testing.T) {
	client := uuid.New()
	asOf := Date("2024-04-30")
	issued := []IssuedInvoice{
		openInvoice(client, "2024-03-31", 100), // 30 days
		openInvoice(client, "2024-01-31", 200), // 90 days
		openInvoice(client, "2024-04-01", 50),  // 29 days
		openInvoice(client, "2024-05-10", 70),  // not due
	}

	report := ComputeAging(issued, nil, asOf, 0)
	require.Equal(t, 50.0, report.Bucket(Bucket0To30).Amount)
	require.Equal(t, 100.0, report.Bucket(Bucket30To60).Amount)
	require.Equal(t, 1, report.Bucket(Bucket30To60).InvoiceCount)
	require.Equal(t, 0.0, report.Bucket(Bucket60To90).Amount)
	require.Equal(t, 200.0, report.Bucket(BucketOver90).Amount)
	require.Equal(t, 420.0, report.TotalOpen)
	require.Equal(t, 350.0, report.OverdueAmount)
	require.Equal(t, 3, report.OverdueCount)
}

func TestAgingSkipsPaidAndUndated(t *testing.T) {
	client := uuid.New()
	paid := openInvoice(client, "2024-01-01", 999)
	paid.PaymentStatus = IssuedPaid
	undated := IssuedInvoice{ClientID: client, TotalAmount: Amount(80), PaymentStatus: IssuedAwaitingCollection}

	report := ComputeAging([]IssuedInvoice{paid, undated}, nil, "2024-04-30", 0)
	require.Equal(t, 80.0, report.TotalOpen)
	require.Zero(t, report.OverdueAmount)
	require.Zero(t, report.DaysOutstanding)
	require.Empty(t, report.Delinquents)
}

func TestDSOSingleInvoice(t *testing.T) {
	report := ComputeAging([]IssuedInvoice{openInvoice(uuid.New(), "2024-03-31", 500)}, nil, "2024-04-30", 0)
	require.Equal(t, 30.0, report.DaysOutstanding)
}

func TestDSOIsAmountWeighted(t *testing.T) {
	client := uuid.New()
	issued := []IssuedInvoice{
		openInvoice(client, "2024-03-31", 300), // 30 days
		openInvoice(client, "2024-01-31", 100), // 90 days
	}
	report := ComputeAging(issued, nil, "2024-04-30", 0)
	require.Equal(t, 45.0, report.DaysOutstanding)
}

func TestDSOZeroAmountsFallBackToPlainMean(t *testing.T) {
	client := uuid.New()
	issued := []IssuedInvoice{
		openInvoice(client, "2024-03-31", 0),
		openInvoice(client, "2024-01-31", 0),
	}
	report := ComputeAging(issued, nil, "2024-04-30", 0)
	require.Equal(t, 60.0, report.DaysOutstanding)
}

func TestDelinquentRanking(t *testing.T) {
	acme := Party{ID: uuid.New(), LegalForm: LegalEntity, CompanyName: "Acme Srl"}
	rossi := Party{ID: uuid.New(), LegalForm: NaturalPerson, FirstName: "Mario", LastName: "Rossi"}
	verdi := Party{ID: uuid.New(), LegalForm: LegalEntity, CompanyName: "Verdi Spa"}
	issued := []IssuedInvoice{
		openInvoice(acme.ID, "2024-01-31", 1000), // 90 days
		openInvoice(rossi.ID, "2024-02-25", 300), // 65 days
		openInvoice(verdi.ID, "2024-04-20", 50),  // 10 days
		openInvoice(verdi.ID, "2024-01-20", 20),  // 101 days
	}

	report := ComputeAging(issued, []Party{acme, rossi, verdi}, "2024-04-30", 2)
	require.Len(t, report.Delinquents, 2)
	require.Equal(t, "Acme Srl", report.Delinquents[0].ClientName)
	require.Equal(t, SeverityHigh, report.Delinquents[0].Severity)
	require.Equal(t, "Rossi Mario", report.Delinquents[1].ClientName)
	require.Equal(t, SeverityHigh, report.Delinquents[1].Severity)

	all := ComputeAging(issued, []Party{acme, rossi, verdi}, "2024-04-30", 10)
	require.Len(t, all.Delinquents, 3)
	require.Equal(t, SeverityCritical, all.Delinquents[2].Severity)
	require.Equal(t, 101, all.Delinquents[2].MaxDaysLate)
	require.Equal(t, 2, all.Delinquents[2].InvoiceCount)
}

func TestSeverityFor(t *testing.T) {
	require.Equal(t, SeverityMedium, SeverityFor(60))
	require.Equal(t, SeverityHigh, SeverityFor(61))
	require.Equal(t, SeverityHigh, SeverityFor(90))
	require.Equal(t, SeverityCritical, SeverityFor(91))
}

func TestPayablesAging(t *testing.T) {
	due := Date("2024-04-10")
	received := []ReceivedInvoice{
		{SupplierID: uuid.New(), DueDate: &due, TotalAmount: Amount(400), PaymentStatus: ReceivedUnpaid},
		{SupplierID: uuid.New(), DueDate: &due, TotalAmount: Amount(900), PaymentStatus: ReceivedPaid},
	}
	report := ComputePayablesAging(received, "2024-04-30")
	require.Equal(t, 400.0, report.TotalOpen)
	require.Equal(t, 20.0, report.DaysOutstanding)
	require.Empty(t, report.Delinquents)
}
