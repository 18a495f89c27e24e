package finance

// Summary holds the headline financial aggregates for a filtered period.
type Summary struct {
	RevenueNet      float64 `json:"revenue_net"`
	RevenueTax      float64 `json:"revenue_tax"`
	RevenueTotal    float64 `json:"revenue_total"`
	CostNet         float64 `json:"cost_net"`
	CostTax         float64 `json:"cost_tax"`
	CostTotal       float64 `json:"cost_total"`
	PayrollCost     float64 `json:"payroll_cost"`
	TaxFilingCost   float64 `json:"tax_filing_cost"`
	ExpenseNoteCost float64 `json:"expense_note_cost"`
	PersonnelCost   float64 `json:"personnel_cost"`
	TotalCost       float64 `json:"total_cost"`
	GrossMargin     float64 `json:"gross_margin"`
	VATBalance      float64 `json:"vat_balance"`
}

// VATPosition describes the sign of the VAT balance.
type VATPosition string

const (
	VATPayable  VATPosition = "payable"
	VATCredit   VATPosition = "credit"
	VATBalanced VATPosition = "balanced"
)

// ComputeSummary sums every collection and derives margin and VAT balance.
// Draft and rejected expense notes are excluded from cost.
func ComputeSummary(issued []IssuedInvoice, received []ReceivedInvoice, payroll []PayrollAllocation, taxFilings []TaxFilingAllocation, notes []ExpenseNote) Summary {
	var s Summary
	for _, inv := range issued {
		s.RevenueNet += val(inv.NetAmount)
		s.RevenueTax += val(inv.TaxAmount)
		s.RevenueTotal += val(inv.TotalAmount)
	}
	for _, inv := range received {
		s.CostNet += val(inv.NetAmount)
		s.CostTax += val(inv.TaxAmount)
		s.CostTotal += val(inv.TotalAmount)
	}
	for _, a := range payroll {
		s.PayrollCost += val(a.AllocatedAmount)
	}
	for _, a := range taxFilings {
		s.TaxFilingCost += val(a.AllocatedAmount)
	}
	for _, n := range notes {
		if n.Status.CountsAsCost() {
			s.ExpenseNoteCost += val(n.Amount)
		}
	}
	return s.derive()
}

// SummaryOf computes the summary of a whole record set.
func SummaryOf(set RecordSet) Summary {
	return ComputeSummary(set.Issued, set.Received, set.Payroll, set.TaxFilings, set.ExpenseNotes)
}

func (s Summary) derive() Summary {
	s.PersonnelCost = s.PayrollCost + s.TaxFilingCost
	s.TotalCost = s.CostNet + s.PersonnelCost + s.ExpenseNoteCost
	s.GrossMargin = s.RevenueNet - s.CostNet - s.PersonnelCost - s.ExpenseNoteCost
	s.VATBalance = s.RevenueTax - s.CostTax
	return s
}

// Combine adds the base sums of two summaries computed over disjoint sets.
func (s Summary) Combine(other Summary) Summary {
	out := Summary{
		RevenueNet:      s.RevenueNet + other.RevenueNet,
		RevenueTax:      s.RevenueTax + other.RevenueTax,
		RevenueTotal:    s.RevenueTotal + other.RevenueTotal,
		CostNet:         s.CostNet + other.CostNet,
		CostTax:         s.CostTax + other.CostTax,
		CostTotal:       s.CostTotal + other.CostTotal,
		PayrollCost:     s.PayrollCost + other.PayrollCost,
		TaxFilingCost:   s.TaxFilingCost + other.TaxFilingCost,
		ExpenseNoteCost: s.ExpenseNoteCost + other.ExpenseNoteCost,
	}
	return out.derive()
}

// VATPosition classifies the VAT balance: positive is payable, negative is credit.
func (s Summary) VATPosition() VATPosition {
	switch {
	case s.VATBalance > 0:
		return VATPayable
	case s.VATBalance < 0:
		return VATCredit
	default:
		return VATBalanced
	}
}

// AmountTotals sums one side of the invoice breakdown.
type AmountTotals struct {
	Net   float64 `json:"net"`
	Tax   float64 `json:"tax"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

func (a *AmountTotals) add(net, tax, total *float64) {
	a.Net += val(net)
	a.Tax += val(tax)
	a.Total += val(total)
	a.Count++
}

// Breakdown splits invoices by payment status.
type Breakdown struct {
	Issued             AmountTotals `json:"issued"`
	Collected          AmountTotals `json:"collected"`
	AwaitingCollection AmountTotals `json:"awaiting_collection"`
	Received           AmountTotals `json:"received"`
	Paid               AmountTotals `json:"paid"`
	Unpaid             AmountTotals `json:"unpaid"`
	// MarginNet ignores personnel and expense costs, unlike Summary.GrossMargin.
	MarginNet float64 `json:"margin_net"`
}

// ComputeInvoiceBreakdown groups issued and received invoices by status.
func ComputeInvoiceBreakdown(issued []IssuedInvoice, received []ReceivedInvoice) Breakdown {
	var b Breakdown
	for _, inv := range issued {
		b.Issued.add(inv.NetAmount, inv.TaxAmount, inv.TotalAmount)
		switch inv.PaymentStatus {
		case IssuedPaid:
			b.Collected.add(inv.NetAmount, inv.TaxAmount, inv.TotalAmount)
		case IssuedAwaitingCollection:
			b.AwaitingCollection.add(inv.NetAmount, inv.TaxAmount, inv.TotalAmount)
		}
	}
	for _, inv := range received {
		b.Received.add(inv.NetAmount, inv.TaxAmount, inv.TotalAmount)
		switch inv.PaymentStatus {
		case ReceivedPaid:
			b.Paid.add(inv.NetAmount, inv.TaxAmount, inv.TotalAmount)
		case ReceivedUnpaid:
			b.Unpaid.add(inv.NetAmount, inv.TaxAmount, inv.TotalAmount)
		}
	}
	b.MarginNet = b.Issued.Net - b.Received.Net
	return b
}
