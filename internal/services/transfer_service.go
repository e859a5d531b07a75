package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "esarbank/internal/errors"
	"esarbank/internal/ids"
	"esarbank/internal/models"
	"esarbank/internal/pagination"
)

// transferService moves money between accounts.
type transferService struct {
	db             *gorm.DB
	accountService AccountServicer
	now            func() time.Time
}

// NewTransferService creates a new TransferServicer.
func NewTransferService(db *gorm.DB, accountService AccountServicer) TransferServicer {
	return &transferService{
		db:             db,
		accountService: accountService,
		now:            time.Now,
	}
}

// Transfer debits the sender and credits the receiver in one database
// transaction and records the movement. The receiver must be registered to
// req.ReceiverEmail. The sender account is not checked against the caller.
func (s *transferService) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	if req.SenderAccountNumber == "" || req.ReceiverAccountNumber == "" || req.ReceiverEmail == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Missing required fields")
	}
	if !req.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if req.SenderAccountNumber == req.ReceiverAccountNumber {
		return nil, apperrors.ErrSameAccountTransfer
	}

	db := s.db.WithContext(ctx)

	var sender models.Account
	if err := db.Where("account_number = ?", req.SenderAccountNumber).First(&sender).Error; err != nil {
		return nil, accountLookupError(err, "Sender account not found.")
	}
	var receiver models.Account
	if err := db.Where("account_number = ? AND email = ?", req.ReceiverAccountNumber, strings.ToLower(req.ReceiverEmail)).
		First(&receiver).Error; err != nil {
		return nil, accountLookupError(err, "Receiver account not found.")
	}

	var result *TransferResult
	err := db.Transaction(func(tx *gorm.DB) error {
		locked, err := s.accountService.LockAccounts(tx, sender.ID, receiver.ID)
		if err != nil {
			return err
		}
		from, to := locked[0], locked[1]

		if err := s.accountService.Debit(tx, from, req.Amount); err != nil {
			return err
		}
		if err := s.accountService.Credit(tx, to, req.Amount); err != nil {
			return err
		}

		transactionID, err := ids.Unique(ids.DefaultAttempts, ids.TransactionID, func(candidate string) (bool, error) {
			return exists(tx, &models.Transaction{}, "transaction_id = ?", candidate)
		})
		if err != nil {
			return idError(err)
		}

		transaction := &models.Transaction{
			TransactionID:         transactionID,
			SenderAccountNumber:   from.AccountNumber,
			ReceiverAccountNumber: to.AccountNumber,
			Amount:                req.Amount,
			Remarks:               req.Remarks,
			Status:                models.TransactionStatusSuccess,
			TransactionTime:       s.now().UTC(),
		}
		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		result = &TransferResult{Transaction: transaction, SenderEmail: from.Email, ReceiverEmail: to.Email}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetAccountTransactions lists the transfers touching an account, newest
// first, each tagged as a debit or credit of that account.
func (s *transferService) GetAccountTransactions(ctx context.Context, accountNumber string, page pagination.PageRequest) (*pagination.Page[models.TransactionView], error) {
	if accountNumber == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account number is required")
	}
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("sender_account_number = ? OR receiver_account_number = ?", accountNumber, accountNumber)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("transaction_time DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	views := make([]models.TransactionView, len(transactions))
	for i := range transactions {
		views[i] = models.TransactionView{
			Transaction: transactions[i],
			Type:        transactions[i].Direction(accountNumber),
		}
	}

	result := pagination.NewPage(views, page, totalItems)
	return &result, nil
}

// GetTransactionByID retrieves a transaction by its public id.
func (s *transferService) GetTransactionByID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

func accountLookupError(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.WithMessage(apperrors.ErrAccountNotFound, message)
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
