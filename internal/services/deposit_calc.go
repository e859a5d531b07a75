package services

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxTenureYears is the longest fixed deposit the bank offers.
const MaxTenureYears = 100

var (
	hundred = decimal.NewFromInt(100)

	// Annual rates in percent by tenure band.
	rateShortTerm  = decimal.NewFromInt(5)
	rateMediumTerm = decimal.RequireFromString("6.5")
	rateLongTerm   = decimal.RequireFromString("7.5")

	// Percentage points forfeited on early withdrawal.
	prematurePenalty = decimal.RequireFromString("0.2")

	yearMillis = decimal.NewFromInt((365 * 24 * time.Hour).Milliseconds())
)

// InterestRateForTenure returns the annual rate, in percent, for a deposit
// of tenure whole years.
func InterestRateForTenure(tenure int) decimal.Decimal {
	switch {
	case tenure <= 5:
		return rateShortTerm
	case tenure <= 10:
		return rateMediumTerm
	default:
		return rateLongTerm
	}
}

// MaturityAmount compounds principal annually at rate percent for tenure
// years, rounded to paise.
func MaturityAmount(principal, rate decimal.Decimal, tenure int) decimal.Decimal {
	factor, err := decimal.NewFromInt(1).Add(rate.Div(hundred)).PowInt32(int32(tenure))
	if err != nil {
		// Only 0**0 fails and the base is always at least 1.
		return principal
	}
	return principal.Mul(factor).Round(2)
}

// MaturityDate is the deposit date moved forward by tenure calendar years.
func MaturityDate(depositDate time.Time, tenure int) time.Time {
	return depositDate.AddDate(tenure, 0, 0)
}

// PrematureAmount is what an unmatured deposit pays out at now: simple
// interest at the deposit rate less the penalty, pro rata for the time held.
func PrematureAmount(principal, rate decimal.Decimal, depositDate, now time.Time) decimal.Decimal {
	elapsed := now.Sub(depositDate)
	if elapsed < 0 {
		elapsed = 0
	}
	years := decimal.NewFromInt(elapsed.Milliseconds()).Div(yearMillis)
	interest := principal.Mul(rate.Sub(prematurePenalty)).Div(hundred).Mul(years)
	return principal.Add(interest).Round(2)
}

// WithdrawalAmount returns the payout of a deposit closed at now and whether
// it had matured.
func WithdrawalAmount(principal, rate, maturityAmount decimal.Decimal, depositDate, maturityDate, now time.Time) (decimal.Decimal, bool) {
	if !now.Before(maturityDate) {
		return maturityAmount, true
	}
	return PrematureAmount(principal, rate, depositDate, now), false
}
