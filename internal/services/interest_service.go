package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "esarbank/internal/errors"
	"esarbank/internal/logger"
	"esarbank/internal/models"
)

var (
	monthlyInterestRate = decimal.RequireFromString("0.02")
	monthlyInterestCap  = decimal.NewFromInt(100)
)

// errAlreadyAccrued and errNotEligible end an account's transaction
// without crediting it.
var (
	errAlreadyAccrued = errors.New("interest already accrued for period")
	errNotEligible    = errors.New("balance not eligible for interest")
)

// MonthlyInterest is 2% of balance, capped at 100 and rounded to paise.
func MonthlyInterest(balance decimal.Decimal) decimal.Decimal {
	return decimal.Min(balance.Mul(monthlyInterestRate), monthlyInterestCap).Round(2)
}

// interestService credits monthly interest to savings accounts.
type interestService struct {
	db             *gorm.DB
	accountService AccountServicer
	now            func() time.Time
}

// NewInterestService creates a new InterestServicer.
func NewInterestService(db *gorm.DB, accountService AccountServicer) InterestServicer {
	return &interestService{
		db:             db,
		accountService: accountService,
		now:            time.Now,
	}
}

// ApplyMonthlyInterest credits every savings account with a positive balance
// once per calendar month. Each account is credited in its own transaction
// so one failure does not hold back the rest; failures are counted and
// logged. Running it again in the same month credits nothing.
func (s *interestService) ApplyMonthlyInterest(ctx context.Context) (*AccrualResult, error) {
	start := time.Now()
	log := logger.Named("interest")

	result := &AccrualResult{
		Period:        s.now().UTC().Format("2006-01"),
		TotalInterest: decimal.Zero,
	}

	var accountIDs []string
	if err := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("account_type = ?", models.AccountTypeSavings).
		Order("id ASC").
		Pluck("id", &accountIDs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	result.Scanned = len(accountIDs)

	for _, id := range accountIDs {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}

		interest, err := s.accrue(ctx, id, result.Period)
		switch {
		case errors.Is(err, errAlreadyAccrued), errors.Is(err, errNotEligible):
			result.Skipped++
		case err != nil:
			result.Failed++
			result.Errors = append(result.Errors, AccrualError{AccountID: id, Err: err})
			log.Errorw("failed to credit monthly interest", "error", err, "account_id", id, "period", result.Period)
		default:
			result.Credited++
			result.TotalInterest = result.TotalInterest.Add(interest)
		}
	}

	result.Duration = time.Since(start)
	log.Infow("monthly interest applied",
		"period", result.Period,
		"scanned", result.Scanned,
		"credited", result.Credited,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"total_interest", result.TotalInterest.String(),
		"duration", result.Duration.String(),
	)
	return result, nil
}

func (s *interestService) accrue(ctx context.Context, accountID, period string) (decimal.Decimal, error) {
	var interest decimal.Decimal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.accountService.LockAccounts(tx, accountID)
		if err != nil {
			return err
		}
		account := locked[0]

		if done, err := exists(tx, &models.InterestAccrual{}, "account_id = ? AND period = ?", accountID, period); err != nil {
			return err
		} else if done {
			return errAlreadyAccrued
		}
		if !account.Balance.IsPositive() {
			return errNotEligible
		}

		interest = MonthlyInterest(account.Balance)
		if err := s.accountService.Credit(tx, account, interest); err != nil {
			return err
		}

		accrual := &models.InterestAccrual{
			AccountID:    accountID,
			Period:       period,
			Amount:       interest,
			BalanceAfter: account.Balance,
		}
		if err := tx.Create(accrual).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errAlreadyAccrued
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	return interest, err
}
