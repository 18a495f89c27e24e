package finance

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// AlertSeverity grades an alert.
type AlertSeverity string

const (
	AlertError   AlertSeverity = "error"
	AlertWarning AlertSeverity = "warning"
	AlertSuccess AlertSeverity = "success"
	AlertInfo    AlertSeverity = "info"
)

// severeAgingShare is the share of receivables aged 60+ days that raises an alert.
const severeAgingShare = 0.20

// Alert is a threshold breach with suggested follow-ups.
type Alert struct {
	Severity         AlertSeverity `json:"severity"`
	Title            string        `json:"title"`
	Message          string        `json:"message"`
	SuggestedActions []string      `json:"suggested_actions"`
}

// AlertInput gathers the metrics alerts are derived from. CashFlow and
// WorkingCapital are optional.
type AlertInput struct {
	Summary        Summary
	Aging          AgingReport
	Utilization    []Utilization
	Variance       []ProjectVariance
	CashFlow       *CashFlowForecast
	WorkingCapital *WorkingCapital
}

// DeriveAlerts evaluates every rule in a fixed order. When no rule raises an
// error or warning, a single success alert is appended.
func DeriveAlerts(in AlertInput) []Alert {
	alerts := make([]Alert, 0, 4)

	if in.Aging.TotalOpen > 0 && in.Aging.SevereShare() > severeAgingShare {
		alerts = append(alerts, Alert{
			Severity: AlertError,
			Title:    "Crediti scaduti critici",
			Message: fmt.Sprintf("Il %.1f%% dei crediti aperti è scaduto da oltre 60 giorni (%s).",
				in.Aging.SevereShare()*100, formatEuro(in.Aging.Bucket(Bucket60To90).Amount+in.Aging.Bucket(BucketOver90).Amount)),
			SuggestedActions: []string{
				"Sollecitare i clienti con fatture scadute da oltre 60 giorni",
				"Valutare il blocco di nuove forniture ai clienti insolventi",
			},
		})
	}

	overrun := make([]string, 0)
	for _, v := range in.Variance {
		if v.Status == OverBudget {
			overrun = append(overrun, fmt.Sprintf("%s (%.1f%%)", v.Title, v.VariancePercentage))
		}
	}
	if len(overrun) > 0 {
		alerts = append(alerts, Alert{
			Severity: AlertWarning,
			Title:    "Commesse fuori budget",
			Message:  "Costi oltre il budget previsto: " + strings.Join(overrun, ", ") + ".",
			SuggestedActions: []string{
				"Rivedere i costi delle commesse indicate",
				"Concordare con il cliente un'eventuale variazione di budget",
			},
		})
	}

	if in.CashFlow != nil && in.CashFlow.Warning != nil {
		w := in.CashFlow.Warning
		alerts = append(alerts, Alert{
			Severity: AlertError,
			Title:    "Liquidità negativa prevista",
			Message: fmt.Sprintf("Il saldo di cassa diventa negativo nel periodo %d (%s).",
				w.Period+1, formatEuro(w.Balance)),
			SuggestedActions: []string{
				"Anticipare l'incasso dei crediti in scadenza",
				"Rinegoziare le scadenze dei pagamenti ai fornitori",
			},
		})
	}

	if in.Summary.GrossMargin < 0 {
		alerts = append(alerts, Alert{
			Severity: AlertError,
			Title:    "Margine lordo negativo",
			Message:  fmt.Sprintf("I costi superano i ricavi di %s nel periodo selezionato.", formatEuro(-in.Summary.GrossMargin)),
			SuggestedActions: []string{
				"Analizzare le voci di costo principali",
				"Verificare la marginalità delle commesse attive",
			},
		})
	}

	if wc := in.WorkingCapital; wc != nil {
		switch wc.Health {
		case CapitalCritical:
			alerts = append(alerts, Alert{
				Severity:         AlertError,
				Title:            "Capitale circolante critico",
				Message:          fmt.Sprintf("Il capitale circolante netto è %s.", formatEuro(wc.NetWorkingCapital)),
				SuggestedActions: []string{"Ridurre i debiti a breve termine", "Accelerare gli incassi"},
			})
		case CapitalWarning:
			alerts = append(alerts, Alert{
				Severity:         AlertWarning,
				Title:            "Indice di liquidità basso",
				Message:          fmt.Sprintf("L'indice di liquidità corrente è %.2f, sotto la soglia di %.1f.", wc.CurrentRatio, healthyCurrentRatio),
				SuggestedActions: []string{"Monitorare le scadenze dei debiti"},
			})
		}
	}

	over, under := make([]string, 0), make([]string, 0)
	for _, u := range in.Utilization {
		name := u.EmployeeName
		if name == "" {
			name = u.EmployeeID.String()
		}
		switch u.Band {
		case Overutilized:
			over = append(over, name)
		case Underutilized:
			under = append(under, name)
		}
	}
	if len(over) > 0 {
		alerts = append(alerts, Alert{
			Severity:         AlertWarning,
			Title:            "Personale sovraccarico",
			Message:          "Ore lavorate oltre la capacità disponibile: " + strings.Join(over, ", ") + ".",
			SuggestedActions: []string{"Redistribuire le attività tra il personale"},
		})
	}
	if len(under) > 0 {
		alerts = append(alerts, Alert{
			Severity:         AlertInfo,
			Title:            "Personale sottoutilizzato",
			Message:          "Utilizzo inferiore al 70%: " + strings.Join(under, ", ") + ".",
			SuggestedActions: []string{"Assegnare nuove attività o commesse"},
		})
	}

	if in.Summary.VATPosition() == VATPayable {
		alerts = append(alerts, Alert{
			Severity:         AlertInfo,
			Title:            "IVA a debito",
			Message:          fmt.Sprintf("Saldo IVA da versare: %s.", formatEuro(in.Summary.VATBalance)),
			SuggestedActions: []string{"Pianificare il versamento IVA"},
		})
	}

	for _, a := range alerts {
		if a.Severity == AlertError || a.Severity == AlertWarning {
			return alerts
		}
	}
	return append(alerts, Alert{
		Severity:         AlertSuccess,
		Title:            "Situazione regolare",
		Message:          "Nessuna criticità rilevata nel periodo selezionato.",
		SuggestedActions: []string{},
	})
}

var itPrinter = message.NewPrinter(language.Italian)

// formatEuro renders an amount the Italian way, e.g. "€ 1.234,50".
func formatEuro(v float64) string {
	return itPrinter.Sprintf("€ %.2f", round2(v))
}
