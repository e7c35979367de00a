package settings

import "github.com/shopspring/decimal"

// Documented setting keys. Values are written by administrative tooling and
// read-only to the engine.
const (
	KeyTaxRate               = "tax_rate"
	KeyPlatformFeeCard       = "platform_fee_card"
	KeyPlatformFeeNetBanking = "platform_fee_netbanking"
	KeyPlatformFeeUPI        = "platform_fee_upi"
	KeyPlatformFeeCOD        = "platform_fee_cod"
	KeyCODEnabled            = "cod_enabled"
	KeyRazorpayEnabled       = "razorpay_enabled"
	KeyCouponsEnabled        = "coupons_enabled"
	KeyLowStockThreshold     = "low_stock_threshold"
)

// System defaults matching the reference deployment.
var (
	DefaultTaxRate               = decimal.RequireFromString("5.00")
	DefaultPlatformFeeCard       = decimal.RequireFromString("2.36")
	DefaultPlatformFeeNetBanking = decimal.RequireFromString("2.36")
	DefaultPlatformFeeUPI        = decimal.Zero
	DefaultPlatformFeeCOD        = decimal.Zero
)
