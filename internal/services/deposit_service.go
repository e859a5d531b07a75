package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "esarbank/internal/errors"
	"esarbank/internal/ids"
	"esarbank/internal/models"
)

// depositService handles the fixed deposit lifecycle.
type depositService struct {
	db             *gorm.DB
	accountService AccountServicer
	now            func() time.Time
}

// NewDepositService creates a new DepositServicer.
func NewDepositService(db *gorm.DB, accountService AccountServicer) DepositServicer {
	return &depositService{
		db:             db,
		accountService: accountService,
		now:            time.Now,
	}
}

// CreateDeposit moves principal out of the savings account of email into a
// new fixed deposit of tenure years.
func (s *depositService) CreateDeposit(ctx context.Context, email string, principal decimal.Decimal, tenure int) (*models.FixedDeposit, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !principal.IsPositive() || tenure < 1 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Missing required fields")
	}
	if tenure > MaxTenureYears {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("tenure cannot exceed %d years", MaxTenureYears))
	}

	savings, err := s.accountService.GetSavingsAccountByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	depositDate := s.now().UTC()
	rate := InterestRateForTenure(tenure)

	var fd *models.FixedDeposit
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.accountService.LockAccounts(tx, savings.ID)
		if err != nil {
			return err
		}
		if err := s.accountService.Debit(tx, locked[0], principal); err != nil {
			return err
		}

		fdID, err := ids.Unique(ids.DefaultAttempts, ids.FDNumber, func(candidate string) (bool, error) {
			return exists(tx, &models.FixedDeposit{}, "fd_id = ?", candidate)
		})
		if err != nil {
			return idError(err)
		}

		fd = &models.FixedDeposit{
			FDID:            fdID,
			Email:           email,
			PrincipalAmount: principal,
			Tenure:          tenure,
			DepositDate:     depositDate,
			MaturityDate:    MaturityDate(depositDate, tenure),
			MaturityAmount:  MaturityAmount(principal, rate, tenure),
			InterestRate:    rate,
		}
		if err := tx.Create(fd).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fd, nil
}

// GetDepositsByEmail lists the open deposits of email, oldest first.
func (s *depositService) GetDepositsByEmail(ctx context.Context, email string) ([]models.FixedDeposit, error) {
	if email == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email is required")
	}

	deposits := []models.FixedDeposit{}
	if err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(email)).
		Order("deposit_date ASC").
		Find(&deposits).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return deposits, nil
}

// WithdrawDeposit closes a deposit and credits its payout to the owner's
// savings account. The deposit row is removed first so that two concurrent
// withdrawals of the same deposit pay out once.
func (s *depositService) WithdrawDeposit(ctx context.Context, fdID string) (*Withdrawal, error) {
	if fdID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "FD id is required")
	}

	db := s.db.WithContext(ctx)

	var fd models.FixedDeposit
	if err := db.Where("fd_id = ?", fdID).First(&fd).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDepositNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	savings, err := s.accountService.GetSavingsAccountByEmail(ctx, fd.Email)
	if err != nil {
		return nil, err
	}

	amount, matured := WithdrawalAmount(fd.PrincipalAmount, fd.InterestRate, fd.MaturityAmount, fd.DepositDate, fd.MaturityDate, s.now())

	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Unscoped().Where("id = ?", fd.ID).Delete(&models.FixedDeposit{})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected != 1 {
			return apperrors.ErrDepositNotFound
		}

		locked, err := s.accountService.LockAccounts(tx, savings.ID)
		if err != nil {
			return err
		}
		return s.accountService.Credit(tx, locked[0], amount)
	})
	if err != nil {
		return nil, err
	}

	return &Withdrawal{
		FDID:           fd.FDID,
		AmountCredited: amount,
		Matured:        matured,
		AccountNumber:  savings.AccountNumber,
		Email:          fd.Email,
	}, nil
}
