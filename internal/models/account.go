package models

import "github.com/shopspring/decimal"

// AccountType represents the type of bank account
type AccountType string

const (
	AccountTypeSavings AccountType = "Savings"
	AccountTypeCurrent AccountType = "Current"
)

// Account is a ledger entry: one balance owned by one user.
type Account struct {
	Base
	UserID         string          `gorm:"type:uuid;not null;index;uniqueIndex:idx_accounts_user_type,where:deleted_at IS NULL" json:"userId"`
	IFSC           string          `gorm:"column:ifsc;not null" json:"IFSC"`
	AccountNumber  string          `gorm:"uniqueIndex;not null" json:"accountNumber"`
	CustomerID     string          `gorm:"not null;index" json:"customerId"`
	Email          string          `gorm:"not null;index" json:"email"`
	Balance        decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"currentBalance"`
	Type           AccountType     `gorm:"column:account_type;not null;default:'Savings';uniqueIndex:idx_accounts_user_type,where:deleted_at IS NULL" json:"accountType"`
	OverdraftLimit decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"overdraftLimit"`

	// Current accounts only
	PANNumber       string `gorm:"column:pan_number" json:"panNumber,omitempty"`
	NomineeName     string `json:"nomineeName,omitempty"`
	NomineeAge      int    `json:"nomineeAge,omitempty"`
	NomineeRelation string `json:"nomineeRelation,omitempty"`
}

// AccountDetails are the generated identifiers shown to a user at signup
// and echoed back when the savings account is confirmed.
type AccountDetails struct {
	IFSC          string `json:"IFSC"`
	AccountNumber string `json:"accountNumber"`
	CustomerID    string `json:"customerId"`
}

// CurrentAccountDetails holds the extra KYC fields of a current account.
type CurrentAccountDetails struct {
	InitialDeposit  decimal.Decimal
	PANNumber       string
	NomineeName     string
	NomineeAge      int
	NomineeRelation string
}
