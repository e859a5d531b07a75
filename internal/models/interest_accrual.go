package models

import "github.com/shopspring/decimal"

// InterestAccrual records the monthly interest credited to one account.
// (account_id, period) is unique so a period is never credited twice.
type InterestAccrual struct {
	Base
	AccountID    string          `gorm:"type:uuid;not null;uniqueIndex:idx_accrual_account_period" json:"accountId"`
	Period       string          `gorm:"size:7;not null;uniqueIndex:idx_accrual_account_period" json:"period"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	BalanceAfter decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"balanceAfter"`
}
