package domain

import "github.com/shopspring/decimal"

// DefaultPlatformRate is the platform's cut of a released escrow.
var DefaultPlatformRate = decimal.NewFromFloat(0.20)

// Split divides amount into a beneficiary share and a platform share.
// The platform share is rounded to two decimals and the beneficiary
// receives the remainder, so the two shares always sum exactly to amount.
func Split(amount, platformRate decimal.Decimal) (beneficiary, platform decimal.Decimal) {
	platform = amount.Mul(platformRate).Round(2)
	beneficiary = amount.Sub(platform)
	return beneficiary, platform
}
