package finance

// ForecastPeriods is the number of 30-day windows covered by the forecast.
const ForecastPeriods = 3

const forecastWindowDays = 30

// CashFlowWarning flags the first period whose balance turns negative.
type CashFlowWarning struct {
	Period  int     `json:"period"`
	Balance float64 `json:"balance"`
}

// CashFlowForecast is the projected running balance.
type CashFlowForecast struct {
	OpeningBalance float64                  `json:"opening_balance"`
	Inflow         [ForecastPeriods]float64 `json:"inflow"`
	Outflow        [ForecastPeriods]float64 `json:"outflow"`
	Balances       [ForecastPeriods]float64 `json:"balances"`
	Warning        *CashFlowWarning         `json:"warning,omitempty"`
}

// ComputeCashFlowForecast rolls the opening balance forward period by period.
func ComputeCashFlowForecast(opening float64, inflow, outflow [ForecastPeriods]float64) CashFlowForecast {
	f := CashFlowForecast{OpeningBalance: opening, Inflow: inflow, Outflow: outflow}
	balance := opening
	for i := 0; i < ForecastPeriods; i++ {
		balance = balance + inflow[i] - outflow[i]
		f.Balances[i] = round2(balance)
		if balance < 0 && f.Warning == nil {
			f.Warning = &CashFlowWarning{Period: i, Balance: f.Balances[i]}
		}
	}
	return f
}

// ProjectCashFlow spreads open receivables and payables over the forecast
// windows following asOf by due date. Overdue items fall in the first window;
// items without a due date or beyond the horizon are left out.
func ProjectCashFlow(issued []IssuedInvoice, received []ReceivedInvoice, asOf Date) (inflow, outflow [ForecastPeriods]float64) {
	for _, inv := range issued {
		if inv.PaymentStatus != IssuedAwaitingCollection {
			continue
		}
		if idx, ok := forecastWindow(inv.DueDate, asOf); ok {
			inflow[idx] += val(inv.TotalAmount)
		}
	}
	for _, inv := range received {
		if inv.PaymentStatus != ReceivedUnpaid {
			continue
		}
		if idx, ok := forecastWindow(inv.DueDate, asOf); ok {
			outflow[idx] += val(inv.TotalAmount)
		}
	}
	return inflow, outflow
}

func forecastWindow(due *Date, asOf Date) (int, bool) {
	if due == nil || due.IsZero() {
		return 0, false
	}
	days, ok := DaysBetween(asOf, *due)
	if !ok {
		return 0, false
	}
	if days < 0 {
		return 0, true
	}
	idx := days / forecastWindowDays
	if idx >= ForecastPeriods {
		return 0, false
	}
	return idx, true
}
