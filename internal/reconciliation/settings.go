package reconciliation

import "strings"

// Default tolerances. The status tolerance absorbs display rounding; the
// overpayment tolerance guards against real overpayment and is stricter.
const (
	DefaultStatusEpsilon      = 0.1
	DefaultOverpaymentEpsilon = 0.01
)

// Settings carries the reconciliation configuration explicitly. There is no
// package-level mutable state.
type Settings struct {
	StatusEpsilon      float64
	OverpaymentEpsilon float64
	CustomsOffices     []string
}

// DefaultSettings returns the stock tolerances with no customs office restriction
func DefaultSettings() Settings {
	return Settings{
		StatusEpsilon:      DefaultStatusEpsilon,
		OverpaymentEpsilon: DefaultOverpaymentEpsilon,
	}
}

// AllowsCustomsOffice reports whether office is configured. An empty list allows any office.
func (s Settings) AllowsCustomsOffice(office string) bool {
	if len(s.CustomsOffices) == 0 {
		return true
	}
	for _, o := range s.CustomsOffices {
		if strings.EqualFold(strings.TrimSpace(o), strings.TrimSpace(office)) {
			return true
		}
	}
	return false
}
