package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"

	"esarbank/internal/config"
	"esarbank/internal/logger"
)

const timeLayout = "2006-01-02 15:04:05 MST"

// SMTPNotifier emails receipts through a plain-auth SMTP relay.
type SMTPNotifier struct {
	from string
	send func(e *email.Email) error
}

// New returns an SMTPNotifier for cfg, or Nop when no SMTP host is set.
func New(cfg *config.Config) Notifier {
	if cfg.SMTPHost == "" {
		return Nop{}
	}
	addr := net.JoinHostPort(cfg.SMTPHost, cfg.SMTPPort)
	auth := smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	return &SMTPNotifier{
		from: cfg.SenderEmail,
		send: func(e *email.Email) error { return e.Send(addr, auth) },
	}
}

// TransferCompleted sends the debit side to the sender and the credit side
// to the receiver. Both are attempted; the first error is returned.
func (n *SMTPNotifier) TransferCompleted(ctx context.Context, receipt TransferReceipt) error {
	txn := receipt.Transaction
	if txn == nil {
		return fmt.Errorf("transfer receipt without transaction")
	}

	var firstErr error
	if receipt.SenderEmail != "" {
		body := fmt.Sprintf(
			"Your account %s has been debited with %s.\n"+
				"Transferred to: %s\n"+
				"Transaction ID: %s\n"+
				"Remarks: %s\n"+
				"Time: %s\n",
			txn.SenderAccountNumber, txn.Amount.StringFixed(2), txn.ReceiverAccountNumber,
			txn.TransactionID, txn.Remarks, txn.TransactionTime.Format(timeLayout),
		)
		firstErr = n.deliver(ctx, receipt.SenderEmail, "Transfer "+txn.TransactionID+" debited", body)
	}
	if receipt.ReceiverEmail != "" {
		body := fmt.Sprintf(
			"Your account %s has been credited with %s.\n"+
				"Received from: %s\n"+
				"Transaction ID: %s\n"+
				"Time: %s\n",
			txn.ReceiverAccountNumber, txn.Amount.StringFixed(2), txn.SenderAccountNumber,
			txn.TransactionID, txn.TransactionTime.Format(timeLayout),
		)
		if err := n.deliver(ctx, receipt.ReceiverEmail, "Transfer "+txn.TransactionID+" credited", body); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DepositWithdrawn confirms the amount credited for a closed fixed deposit.
func (n *SMTPNotifier) DepositWithdrawn(ctx context.Context, receipt WithdrawalReceipt) error {
	closure := "before maturity at the reduced premature rate"
	if receipt.Matured {
		closure = "at maturity"
	}
	body := fmt.Sprintf(
		"Your fixed deposit %s was closed %s.\n"+
			"%s has been credited to savings account %s.\n",
		receipt.FDID, closure, receipt.Amount.StringFixed(2), receipt.AccountNumber,
	)
	return n.deliver(ctx, receipt.Email, "Fixed deposit "+receipt.FDID+" withdrawn", body)
}

func (n *SMTPNotifier) deliver(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = n.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte("Dear customer,\n\n" + body + "\nRegards,\nESAR Bank\n")

	if err := n.send(e); err != nil {
		return fmt.Errorf("send %q to %s: %w", subject, to, err)
	}
	logger.Named("notify").Infow("email sent", "to", maskEmail(to), "subject", subject)
	return nil
}

// maskEmail keeps the first character of the local part so logs stay useful
// without recording full addresses.
func maskEmail(addr string) string {
	local, domain, ok := strings.Cut(addr, "@")
	if !ok || local == "" {
		return "***"
	}
	return local[:1] + "***@" + domain
}
