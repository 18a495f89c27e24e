package finance

// healthyCurrentRatio is the minimum ratio for a healthy position.
const healthyCurrentRatio = 1.5

// CapitalHealth grades the working capital position.
type CapitalHealth string

const (
	CapitalHealthy  CapitalHealth = "healthy"
	CapitalWarning  CapitalHealth = "warning"
	CapitalCritical CapitalHealth = "critical"
)

// WorkingCapitalInput carries the balances the metrics derive from.
type WorkingCapitalInput struct {
	Receivables float64 `json:"receivables"`
	CashOnHand  float64 `json:"cash_on_hand"`
	Payables    float64 `json:"payables"`
	DSO         float64 `json:"dso"`
	DPO         float64 `json:"dpo"`
}

// WorkingCapital summarises liquidity.
type WorkingCapital struct {
	NetWorkingCapital float64 `json:"net_working_capital"`
	CurrentRatio      float64 `json:"current_ratio"`
	// RatioUnbounded is set when there are no payables; CurrentRatio is then 0.
	RatioUnbounded      bool          `json:"ratio_unbounded"`
	DSO                 float64       `json:"dso"`
	DPO                 float64       `json:"dpo"`
	CashConversionCycle float64       `json:"cash_conversion_cycle"`
	Health              CapitalHealth `json:"health"`
}

// ComputeWorkingCapital derives the current ratio, cash conversion cycle and
// health grade.
func ComputeWorkingCapital(in WorkingCapitalInput) WorkingCapital {
	wc := WorkingCapital{
		NetWorkingCapital:   round2(in.Receivables + in.CashOnHand - in.Payables),
		DSO:                 in.DSO,
		DPO:                 in.DPO,
		CashConversionCycle: round2(in.DSO - in.DPO),
	}
	if in.Payables == 0 {
		wc.RatioUnbounded = true
	} else {
		wc.CurrentRatio = round2((in.Receivables + in.CashOnHand) / in.Payables)
	}
	switch {
	case wc.NetWorkingCapital <= 0:
		wc.Health = CapitalCritical
	case wc.RatioUnbounded || wc.CurrentRatio >= healthyCurrentRatio:
		wc.Health = CapitalHealthy
	default:
		wc.Health = CapitalWarning
	}
	return wc
}
