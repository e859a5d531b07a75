package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FixedDeposit is a time-locked principal debited from a savings account.
// The record is deleted when the deposit is withdrawn.
type FixedDeposit struct {
	Base
	FDID            string          `gorm:"column:fd_id;uniqueIndex;not null" json:"fdId"`
	Email           string          `gorm:"not null;index" json:"email"`
	PrincipalAmount decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"principalAmount"`
	Tenure          int             `gorm:"not null" json:"tenure"`
	DepositDate     time.Time       `gorm:"not null" json:"depositDate"`
	MaturityDate    time.Time       `gorm:"not null" json:"maturityDate"`
	MaturityAmount  decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"maturityAmount"`
	InterestRate    decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"interestRate"`
}

