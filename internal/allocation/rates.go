package allocation

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pasar/internal/settings"
)

// SettingsRates adapts the settings provider to TaxRateSource.
type SettingsRates struct {
	Settings *settings.Provider
}

// TaxRate returns the current global tax rate percentage.
func (s SettingsRates) TaxRate(ctx context.Context) decimal.Decimal {
	return s.Settings.Decimal(ctx, settings.KeyTaxRate, settings.DefaultTaxRate)
}

// StaticRate is a fixed-rate TaxRateSource used by tests and callers that
// already resolved the rate.
type StaticRate decimal.Decimal

// TaxRate implements TaxRateSource.
func (r StaticRate) TaxRate(context.Context) decimal.Decimal {
	return decimal.Decimal(r)
}
