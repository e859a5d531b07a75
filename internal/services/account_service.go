package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "esarbank/internal/errors"
	"esarbank/internal/ids"
	"esarbank/internal/models"
)

// accountService handles account-related business logic.
type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

// ConfirmSavingsAccount opens the savings account proposed at signup with a
// zero balance.
func (s *accountService) ConfirmSavingsAccount(ctx context.Context, userID string, details models.AccountDetails) (*models.Account, error) {
	if details.IFSC == "" || details.AccountNumber == "" || details.CustomerID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account details are required")
	}

	user, err := s.loadUser(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		UserID:         user.ID,
		IFSC:           details.IFSC,
		AccountNumber:  details.AccountNumber,
		CustomerID:     details.CustomerID,
		Email:          user.Email,
		Balance:        decimal.Zero,
		Type:           models.AccountTypeSavings,
		OverdraftLimit: decimal.Zero,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if taken, err := exists(tx, &models.Account{}, "user_id = ? AND account_type = ?", user.ID, models.AccountTypeSavings); err != nil {
			return err
		} else if taken {
			return apperrors.ErrAccountExists
		}
		if taken, err := exists(tx, &models.Account{}, "account_number = ?", details.AccountNumber); err != nil {
			return err
		} else if taken {
			return apperrors.ErrDuplicateAccountNumber
		}
		return createAccount(tx, account)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// CreateCurrentAccount opens a current account funded from the user's
// savings account. It shares the savings account's IFSC and customer id.
func (s *accountService) CreateCurrentAccount(ctx context.Context, userID string, details models.CurrentAccountDetails) (*models.Account, error) {
	if details.InitialDeposit.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "initial deposit cannot be negative")
	}

	user, err := s.loadUser(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}

	var account *models.Account
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if taken, err := exists(tx, &models.Account{}, "user_id = ? AND account_type = ?", user.ID, models.AccountTypeCurrent); err != nil {
			return err
		} else if taken {
			return apperrors.WithMessage(apperrors.ErrAccountExists, "Current account already exists")
		}

		var savings models.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND account_type = ?", user.ID, models.AccountTypeSavings).
			First(&savings).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.WithMessage(apperrors.ErrAccountNotFound, "Savings account not found")
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := s.Debit(tx, &savings, details.InitialDeposit); err != nil {
			return err
		}

		accountNumber, err := ids.Unique(ids.DefaultAttempts, ids.AccountNumber, func(candidate string) (bool, error) {
			return exists(tx, &models.Account{}, "account_number = ?", candidate)
		})
		if err != nil {
			return idError(err)
		}

		account = &models.Account{
			UserID:          user.ID,
			IFSC:            savings.IFSC,
			AccountNumber:   accountNumber,
			CustomerID:      savings.CustomerID,
			Email:           user.Email,
			Balance:         details.InitialDeposit,
			Type:            models.AccountTypeCurrent,
			OverdraftLimit:  decimal.Zero,
			PANNumber:       strings.ToUpper(details.PANNumber),
			NomineeName:     details.NomineeName,
			NomineeAge:      details.NomineeAge,
			NomineeRelation: details.NomineeRelation,
		}
		return createAccount(tx, account)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// GetAccountsByUserID lists every account a user owns.
func (s *accountService) GetAccountsByUserID(ctx context.Context, userID string) ([]models.Account, error) {
	if !ids.IsValid(userID) {
		return nil, apperrors.ErrAccountNotFound
	}
	return s.findAccounts(ctx, "user_id = ?", userID)
}

// GetAccountsByCustomerID lists the accounts sharing a customer id.
func (s *accountService) GetAccountsByCustomerID(ctx context.Context, customerID string) ([]models.Account, error) {
	return s.findAccounts(ctx, "customer_id = ?", customerID)
}

// GetAccountsByEmail lists the accounts registered to an email.
func (s *accountService) GetAccountsByEmail(ctx context.Context, email string) ([]models.Account, error) {
	return s.findAccounts(ctx, "email = ?", strings.ToLower(email))
}

// GetSavingsAccountByEmail returns the savings account registered to an email.
func (s *accountService) GetSavingsAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).
		Where("email = ? AND account_type = ?", strings.ToLower(email), models.AccountTypeSavings).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WithMessage(apperrors.ErrAccountNotFound, "Savings account not found")
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// AccountExists reports whether accountNumber is registered to email.
func (s *accountService) AccountExists(ctx context.Context, accountNumber, email string) (bool, error) {
	if accountNumber == "" || email == "" {
		return false, apperrors.WithMessage(apperrors.ErrInvalidInput, "account number and email are required")
	}
	return exists(s.db.WithContext(ctx), &models.Account{}, "account_number = ? AND email = ?", accountNumber, strings.ToLower(email))
}

// LockAccounts loads the given accounts with row locks held until tx ends.
// Rows are locked in id order so concurrent callers cannot deadlock; the
// result follows the order of accountIDs.
func (s *accountService) LockAccounts(tx *gorm.DB, accountIDs ...string) ([]*models.Account, error) {
	sorted := append([]string(nil), accountIDs...)
	sort.Strings(sorted)

	locked := make(map[string]*models.Account, len(sorted))
	for _, id := range sorted {
		if _, ok := locked[id]; ok {
			continue
		}
		var account models.Account
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&account, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrAccountNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		locked[id] = &account
	}

	result := make([]*models.Account, len(accountIDs))
	for i, id := range accountIDs {
		result[i] = locked[id]
	}
	return result, nil
}

// Debit subtracts amount from a locked account. The update only applies
// while the stored balance still covers amount; otherwise nothing changes
// and ErrInsufficientBalance is returned.
func (s *accountService) Debit(tx *gorm.DB, account *models.Account, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount cannot be negative")
	}
	if account.Balance.LessThan(amount) {
		return apperrors.ErrInsufficientBalance
	}

	newBalance := account.Balance.Sub(amount)
	res := tx.Model(&models.Account{}).
		Where("id = ? AND balance >= ?", account.ID, amount).
		Update("balance", newBalance)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrInsufficientBalance
	}

	account.Balance = newBalance
	return nil
}

// Credit adds amount to a locked account.
func (s *accountService) Credit(tx *gorm.DB, account *models.Account, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount cannot be negative")
	}

	newBalance := account.Balance.Add(amount)
	res := tx.Model(&models.Account{}).
		Where("id = ?", account.ID).
		Update("balance", newBalance)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrAccountNotFound
	}

	account.Balance = newBalance
	return nil
}

func (s *accountService) findAccounts(ctx context.Context, query string, args ...interface{}) ([]models.Account, error) {
	var accounts []models.Account
	if err := s.db.WithContext(ctx).Where(query, args...).Order("created_at ASC").Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(accounts) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrAccountNotFound, "No accounts found")
	}
	return accounts, nil
}

func (s *accountService) loadUser(db *gorm.DB, userID string) (*models.User, error) {
	if !ids.IsValid(userID) {
		return nil, apperrors.ErrUserNotFound
	}
	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// createAccount inserts account under a savepoint. A unique violation means a
// concurrent writer won a race the pre-checks could not see; the savepoint
// keeps the transaction usable so the constraint that fired can be told apart.
func createAccount(tx *gorm.DB, account *models.Account) error {
	if err := tx.SavePoint("create_account").Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	err := tx.Create(account).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := tx.RollbackTo("create_account").Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	taken, err := exists(tx, &models.Account{}, "user_id = ? AND account_type = ? AND deleted_at IS NULL", account.UserID, account.Type)
	if err != nil {
		return err
	}
	if !taken {
		return apperrors.ErrDuplicateAccountNumber
	}
	if account.Type == models.AccountTypeCurrent {
		return apperrors.WithMessage(apperrors.ErrAccountExists, "Current account already exists")
	}
	return apperrors.ErrAccountExists
}

// exists reports whether any row of model matches the condition, soft
// deleted rows included since they still hold their unique keys.
func exists(db *gorm.DB, model interface{}, query string, args ...interface{}) (bool, error) {
	var count int64
	if err := db.Unscoped().Model(model).Where(query, args...).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// idError maps a failed identifier allocation to an AppError.
func idError(err error) error {
	if errors.Is(err, ids.ErrExhausted) {
		return apperrors.Wrap(apperrors.ErrIDExhausted, err)
	}
	return err
}
