package finance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeSummaryScenario(t *testing.T) {
	issued := []IssuedInvoice{{NetAmount: Amount(1000), TaxAmount: Amount(220), TotalAmount: Amount(1220), PaymentStatus: IssuedAwaitingCollection}}
	received := []ReceivedInvoice{{NetAmount: Amount(400), TaxAmount: Amount(88), TotalAmount: Amount(488), PaymentStatus: ReceivedPaid}}
	payroll := []PayrollAllocation{{AllocatedAmount: Amount(200)}}
	notes := []ExpenseNote{{Amount: Amount(50), Status: ExpenseApproved}}

	s := ComputeSummary(issued, received, payroll, nil, notes)
	require.Equal(t, 1000.0, s.RevenueNet)
	require.Equal(t, 400.0, s.CostNet)
	require.Equal(t, 200.0, s.PersonnelCost)
	require.Equal(t, 50.0, s.ExpenseNoteCost)
	require.Equal(t, 350.0, s.GrossMargin)
	require.Equal(t, 132.0, s.VATBalance)
	require.Equal(t, 650.0, s.TotalCost)
	require.Equal(t, VATPayable, s.VATPosition())
}

func TestComputeSummaryEmpty(t *testing.T) {
	s := ComputeSummary(nil, nil, nil, nil, nil)
	require.Equal(t, Summary{}, s)
	require.Equal(t, VATBalanced, s.VATPosition())
}

func TestComputeSummaryNilAmountsCountAsZero(t *testing.T) {
	issued := []IssuedInvoice{{NetAmount: nil}, {NetAmount: Amount(10)}}
	s := ComputeSummary(issued, nil, nil, nil, nil)
	require.Equal(t, 10.0, s.RevenueNet)
	require.Equal(t, 10.0, s.GrossMargin)
}

func TestExpenseNoteStatusesInCost(t *testing.T) {
	notes := []ExpenseNote{
		{Amount: Amount(10), Status: ExpenseApproved},
		{Amount: Amount(20), Status: ExpensePendingApproval},
		{Amount: Amount(40), Status: ExpenseRejected},
		{Amount: Amount(80), Status: ExpenseDraft},
	}
	s := ComputeSummary(nil, nil, nil, nil, notes)
	require.Equal(t, 30.0, s.ExpenseNoteCost)
	require.Equal(t, -30.0, s.GrossMargin)
}

func TestVATBalanceSign(t *testing.T) {
	payable := ComputeSummary(
		[]IssuedInvoice{{TaxAmount: Amount(100)}},
		[]ReceivedInvoice{{TaxAmount: Amount(40)}},
		nil, nil, nil)
	require.Equal(t, 60.0, payable.VATBalance)
	require.Equal(t, VATPayable, payable.VATPosition())

	credit := ComputeSummary(
		[]IssuedInvoice{{TaxAmount: Amount(40)}},
		[]ReceivedInvoice{{TaxAmount: Amount(100)}},
		nil, nil, nil)
	require.Equal(t, -60.0, credit.VATBalance)
	require.Equal(t, VATCredit, credit.VATPosition())
}

func TestSummaryAdditivity(t *testing.T) {
	a := RecordSet{
		Issued:       []IssuedInvoice{{NetAmount: Amount(500), TaxAmount: Amount(110), TotalAmount: Amount(610)}},
		Payroll:      []PayrollAllocation{{AllocatedAmount: Amount(100)}},
		ExpenseNotes: []ExpenseNote{{Amount: Amount(25), Status: ExpensePendingApproval}},
	}
	b := RecordSet{
		Issued:     []IssuedInvoice{{NetAmount: Amount(250), TaxAmount: Amount(55), TotalAmount: Amount(305)}},
		Received:   []ReceivedInvoice{{NetAmount: Amount(120), TaxAmount: Amount(26.4), TotalAmount: Amount(146.4)}},
		TaxFilings: []TaxFilingAllocation{{AllocatedAmount: Amount(75)}},
	}
	union := RecordSet{
		Issued:       append(append([]IssuedInvoice{}, a.Issued...), b.Issued...),
		Received:     b.Received,
		Payroll:      a.Payroll,
		TaxFilings:   b.TaxFilings,
		ExpenseNotes: a.ExpenseNotes,
	}
	require.Equal(t, SummaryOf(union), SummaryOf(a).Combine(SummaryOf(b)))
}

func TestComputeInvoiceBreakdown(t *testing.T) {
	issued := []IssuedInvoice{
		{NetAmount: Amount(100), TaxAmount: Amount(22), TotalAmount: Amount(122), PaymentStatus: IssuedPaid},
		{NetAmount: Amount(200), TaxAmount: Amount(44), TotalAmount: Amount(244), PaymentStatus: IssuedAwaitingCollection},
	}
	received := []ReceivedInvoice{
		{NetAmount: Amount(50), TaxAmount: Amount(11), TotalAmount: Amount(61), PaymentStatus: ReceivedUnpaid},
	}
	b := ComputeInvoiceBreakdown(issued, received)
	require.Equal(t, 1, b.Collected.Count)
	require.Equal(t, 244.0, b.AwaitingCollection.Total)
	require.Equal(t, 61.0, b.Unpaid.Total)
	require.Equal(t, 0, b.Paid.Count)
	require.Equal(t, 250.0, b.MarginNet)
}

func TestRecomputeAmounts(t *testing.T) {
	tax, total := RecomputeAmounts(1000, 22)
	require.Equal(t, 220.0, tax)
	require.Equal(t, 1220.0, total)

	tax, total = RecomputeAmounts(10.05, 22)
	require.Equal(t, 2.21, tax)
	require.Equal(t, 12.26, total)

	require.True(t, AmountsConsistent(1000, 22, 220, 1220))
	require.True(t, AmountsConsistent(10.05, 22, 2.21, 12.26))
	require.False(t, AmountsConsistent(1000, 22, 200, 1200))
}

func TestInvoiceVariant(t *testing.T) {
	issued := IssuedInvoice{NetAmount: Amount(100), TotalAmount: Amount(122), PaymentStatus: IssuedAwaitingCollection}
	received := ReceivedInvoice{NetAmount: Amount(40), TotalAmount: Amount(48.8), PaymentStatus: ReceivedPaid}
	all := Invoices([]IssuedInvoice{issued}, []ReceivedInvoice{received})
	require.Len(t, all, 2)
	require.Equal(t, KindIssued, all[0].Kind)
	require.Equal(t, KindReceived, all[1].Kind)
	require.Equal(t, 100.0, all[0].Net())
	require.True(t, all[0].IsOpen())
	require.False(t, all[1].IsOpen())
}
