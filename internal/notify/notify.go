// Package notify sends customer receipts for completed money movements.
package notify

import (
	"context"

	"github.com/shopspring/decimal"

	"esarbank/internal/logger"
	"esarbank/internal/models"
)

// Notifier delivers receipts. Implementations must be safe for concurrent use.
type Notifier interface {
	TransferCompleted(ctx context.Context, receipt TransferReceipt) error
	DepositWithdrawn(ctx context.Context, receipt WithdrawalReceipt) error
}

// TransferReceipt is sent to both parties of a transfer.
type TransferReceipt struct {
	Transaction   *models.Transaction
	SenderEmail   string
	ReceiverEmail string
}

// WithdrawalReceipt is sent to the owner of a closed fixed deposit.
type WithdrawalReceipt struct {
	FDID          string
	Email         string
	AccountNumber string
	Amount        decimal.Decimal
	Matured       bool
}

// Nop discards every receipt. Used when SMTP is not configured.
type Nop struct{}

// TransferCompleted implements Notifier.
func (Nop) TransferCompleted(context.Context, TransferReceipt) error { return nil }

// DepositWithdrawn implements Notifier.
func (Nop) DepositWithdrawn(context.Context, WithdrawalReceipt) error { return nil }

// Async runs fn in its own goroutine with a detached context. A failure is
// logged, never returned.
func Async(name string, fn func(ctx context.Context) error) {
	go func() {
		if err := fn(context.Background()); err != nil {
			logger.Named("notify").Warnw("notification failed", "kind", name, "error", err)
		}
	}()
}
