package finance

import (
	"sort"

	"github.com/google/uuid"
)

// Aging bucket labels, lower bound inclusive.
const (
	Bucket0To30   = "0-30"
	Bucket30To60  = "30-60"
	Bucket60To90  = "60-90"
	BucketOver90  = "90+"
	defaultTopN   = 5
	bucketsLength = 4
)

// DelinquencySeverity grades how late a client's worst invoice is.
type DelinquencySeverity string

const (
	SeverityCritical DelinquencySeverity = "Critical"
	SeverityHigh     DelinquencySeverity = "High"
	SeverityMedium   DelinquencySeverity = "Medium"
)

// AgingBucket aggregates overdue invoices inside a day range.
type AgingBucket struct {
	Label        string  `json:"label"`
	MinDays      int     `json:"min_days"`
	MaxDays      int     `json:"max_days"` // exclusive; -1 for the open-ended bucket
	Amount       float64 `json:"amount"`
	InvoiceCount int     `json:"invoice_count"`
}

// Delinquent summarises a client's overdue exposure.
type Delinquent struct {
	ClientID      uuid.UUID           `json:"client_id"`
	ClientName    string              `json:"client_name"`
	AmountOverdue float64             `json:"amount_overdue"`
	MaxDaysLate   int                 `json:"max_days_late"`
	InvoiceCount  int                 `json:"invoice_count"`
	Severity      DelinquencySeverity `json:"severity"`
}

// AgingReport is the receivables (or payables) aging as of a date.
type AgingReport struct {
	AsOf             Date          `json:"as_of"`
	Buckets          []AgingBucket `json:"buckets"`
	TotalOpen        float64       `json:"total_open"`
	OverdueAmount    float64       `json:"overdue_amount"`
	OverdueCount     int           `json:"overdue_count"`
	DaysOutstanding  float64       `json:"days_outstanding"`
	Delinquents      []Delinquent  `json:"delinquents,omitempty"`
	delinquentsIndex map[uuid.UUID]*Delinquent
}

// Bucket returns the bucket with the given label.
func (r AgingReport) Bucket(label string) AgingBucket {
	for _, b := range r.Buckets {
		if b.Label == label {
			return b
		}
	}
	return AgingBucket{Label: label}
}

// SevereShare is the fraction of open receivables aged 60 days or more.
func (r AgingReport) SevereShare() float64 {
	if r.TotalOpen == 0 {
		return 0
	}
	return (r.Bucket(Bucket60To90).Amount + r.Bucket(BucketOver90).Amount) / r.TotalOpen
}

func newBuckets() []AgingBucket {
	return []AgingBucket{
		{Label: Bucket0To30, MinDays: 0, MaxDays: 30},
		{Label: Bucket30To60, MinDays: 30, MaxDays: 60},
		{Label: Bucket60To90, MinDays: 60, MaxDays: 90},
		{Label: BucketOver90, MinDays: 90, MaxDays: -1},
	}
}

// bucketIndex maps a non-negative day count onto its bucket.
func bucketIndex(daysLate int) int {
	switch {
	case daysLate < 30:
		return 0
	case daysLate < 60:
		return 1
	case daysLate < 90:
		return 2
	default:
		return bucketsLength - 1
	}
}

// SeverityFor grades a delinquency by days late.
func SeverityFor(daysLate int) DelinquencySeverity {
	switch {
	case daysLate > 90:
		return SeverityCritical
	case daysLate > 60:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

type openItem struct {
	party   uuid.UUID
	dueDate *Date
	total   float64
}

// ComputeAging classifies unpaid issued invoices into aging buckets as of asOf.
// Invoices not yet due count toward TotalOpen only. DaysOutstanding (DSO) is
// the amount-weighted mean of days late across overdue invoices.
func ComputeAging(issued []IssuedInvoice, clients []Party, asOf Date, topN int) AgingReport {
	items := make([]openItem, 0, len(issued))
	for _, inv := range issued {
		if inv.PaymentStatus != IssuedAwaitingCollection {
			continue
		}
		items = append(items, openItem{party: inv.ClientID, dueDate: inv.DueDate, total: val(inv.TotalAmount)})
	}
	report := computeAging(items, asOf)
	names := make(map[uuid.UUID]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.DisplayName()
	}
	report.Delinquents = rankDelinquents(report.delinquentsIndex, names, topN)
	report.delinquentsIndex = nil
	return report
}

// ComputePayablesAging classifies unpaid received invoices; DaysOutstanding is DPO.
func ComputePayablesAging(received []ReceivedInvoice, asOf Date) AgingReport {
	items := make([]openItem, 0, len(received))
	for _, inv := range received {
		if inv.PaymentStatus != ReceivedUnpaid {
			continue
		}
		items = append(items, openItem{party: inv.SupplierID, dueDate: inv.DueDate, total: val(inv.TotalAmount)})
	}
	report := computeAging(items, asOf)
	report.delinquentsIndex = nil
	return report
}

func computeAging(items []openItem, asOf Date) AgingReport {
	report := AgingReport{AsOf: asOf, Buckets: newBuckets(), delinquentsIndex: make(map[uuid.UUID]*Delinquent)}
	var weightedDays, weight, plainDays float64
	for _, item := range items {
		report.TotalOpen += item.total
		if item.dueDate == nil || item.dueDate.IsZero() {
			continue
		}
		daysLate, ok := DaysBetween(*item.dueDate, asOf)
		if !ok || daysLate < 0 {
			continue
		}
		idx := bucketIndex(daysLate)
		report.Buckets[idx].Amount += item.total
		report.Buckets[idx].InvoiceCount++
		report.OverdueAmount += item.total
		report.OverdueCount++
		weightedDays += float64(daysLate) * item.total
		weight += item.total
		plainDays += float64(daysLate)

		d := report.delinquentsIndex[item.party]
		if d == nil {
			d = &Delinquent{ClientID: item.party}
			report.delinquentsIndex[item.party] = d
		}
		d.AmountOverdue += item.total
		d.InvoiceCount++
		if daysLate > d.MaxDaysLate {
			d.MaxDaysLate = daysLate
		}
	}
	switch {
	case weight != 0:
		report.DaysOutstanding = round2(weightedDays / weight)
	case report.OverdueCount > 0:
		// zero-amount overdue items carry no weight; use the plain mean
		report.DaysOutstanding = round2(plainDays / float64(report.OverdueCount))
	}
	return report
}

func rankDelinquents(index map[uuid.UUID]*Delinquent, names map[uuid.UUID]string, topN int) []Delinquent {
	if topN <= 0 {
		topN = defaultTopN
	}
	out := make([]Delinquent, 0, len(index))
	for id, d := range index {
		d.ClientName = names[id]
		d.Severity = SeverityFor(d.MaxDaysLate)
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AmountOverdue != out[j].AmountOverdue {
			return out[i].AmountOverdue > out[j].AmountOverdue
		}
		if out[i].ClientName != out[j].ClientName {
			return out[i].ClientName < out[j].ClientName
		}
		return out[i].ClientID.String() < out[j].ClientID.String()
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}
