package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the lifecycle state of a transfer record.
type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "Pending"
	TransactionStatusSuccess TransactionStatus = "Success"
)

// Direction of a transaction relative to the account it is listed for.
const (
	DirectionDebit  = "debit"
	DirectionCredit = "credit"
)

// Transaction is the immutable record of a completed transfer.
type Transaction struct {
	Base
	TransactionID         string            `gorm:"uniqueIndex;size:9;not null" json:"transactionId"`
	SenderAccountNumber   string            `gorm:"not null;index" json:"senderAccountNumber"`
	ReceiverAccountNumber string            `gorm:"not null;index" json:"receiverAccountNumber"`
	Amount                decimal.Decimal   `gorm:"type:decimal(20,2);not null" json:"amount"`
	Remarks               string            `json:"remarks"`
	Status                TransactionStatus `gorm:"not null;default:'Pending'" json:"status"`
	TransactionTime       time.Time         `gorm:"not null" json:"transactionTime"`
}

// Direction reports whether the transaction debits or credits accountNumber.
func (t *Transaction) Direction(accountNumber string) string {
	if t.SenderAccountNumber == accountNumber {
		return DirectionDebit
	}
	return DirectionCredit
}

// TransactionView is a Transaction annotated with its direction.
type TransactionView struct {
	Transaction
	Type string `json:"type"`
}
