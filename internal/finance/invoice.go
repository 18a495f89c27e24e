package finance

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceKind tags the Invoice variant.
type InvoiceKind string

const (
	KindIssued   InvoiceKind = "issued"
	KindReceived InvoiceKind = "received"
)

// Invoice is either an issued or a received invoice, discriminated by Kind.
type Invoice struct {
	Kind     InvoiceKind      `json:"kind"`
	Issued   *IssuedInvoice   `json:"issued,omitempty"`
	Received *ReceivedInvoice `json:"received,omitempty"`
}

// NewIssued wraps an issued invoice.
func NewIssued(inv IssuedInvoice) Invoice {
	return Invoice{Kind: KindIssued, Issued: &inv}
}

// NewReceived wraps a received invoice.
func NewReceived(inv ReceivedInvoice) Invoice {
	return Invoice{Kind: KindReceived, Received: &inv}
}

// Counterparty returns the client ID for issued invoices and the supplier ID
// for received ones.
func (i Invoice) Counterparty() uuid.UUID {
	switch i.Kind {
	case KindIssued:
		if i.Issued != nil {
			return i.Issued.ClientID
		}
	case KindReceived:
		if i.Received != nil {
			return i.Received.SupplierID
		}
	}
	return uuid.Nil
}

// Net returns the net amount of either variant.
func (i Invoice) Net() float64 {
	switch i.Kind {
	case KindIssued:
		if i.Issued != nil {
			return val(i.Issued.NetAmount)
		}
	case KindReceived:
		if i.Received != nil {
			return val(i.Received.NetAmount)
		}
	}
	return 0
}

// Total returns the gross amount of either variant.
func (i Invoice) Total() float64 {
	switch i.Kind {
	case KindIssued:
		if i.Issued != nil {
			return val(i.Issued.TotalAmount)
		}
	case KindReceived:
		if i.Received != nil {
			return val(i.Received.TotalAmount)
		}
	}
	return 0
}

// IsOpen reports whether the invoice is still awaiting settlement.
func (i Invoice) IsOpen() bool {
	switch i.Kind {
	case KindIssued:
		return i.Issued != nil && i.Issued.PaymentStatus == IssuedAwaitingCollection
	case KindReceived:
		return i.Received != nil && i.Received.PaymentStatus == ReceivedUnpaid
	}
	return false
}

// Invoices merges both sides into a single tagged list.
func Invoices(issued []IssuedInvoice, received []ReceivedInvoice) []Invoice {
	out := make([]Invoice, 0, len(issued)+len(received))
	for _, inv := range issued {
		out = append(out, NewIssued(inv))
	}
	for _, inv := range received {
		out = append(out, NewReceived(inv))
	}
	return out
}

// RecomputeAmounts derives tax and total from net and rate, rounding half-up
// to cents.
func RecomputeAmounts(net, rate float64) (tax, total float64) {
	n := decimal.NewFromFloat(net)
	t := n.Mul(decimal.NewFromFloat(rate)).Div(decimal.NewFromInt(100)).Round(2)
	tax, _ = t.Float64()
	total, _ = n.Add(t).Round(2).Float64()
	return tax, total
}

// AmountsConsistent checks total = net + tax and tax = net*rate/100 within a
// cent of tolerance.
func AmountsConsistent(net, rate, tax, total float64) bool {
	expectedTax, _ := RecomputeAmounts(net, rate)
	cent := decimal.New(1, -2)
	if decimal.NewFromFloat(expectedTax).Sub(decimal.NewFromFloat(tax)).Abs().GreaterThan(cent) {
		return false
	}
	sum := decimal.NewFromFloat(net).Add(decimal.NewFromFloat(tax))
	return sum.Sub(decimal.NewFromFloat(total)).Abs().LessThanOrEqual(cent)
}
