package services

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"esarbank/internal/models"
	"esarbank/internal/testutil"
)

func newDepositServiceAt(db *gorm.DB, now time.Time) *depositService {
	svc := NewDepositService(db, NewAccountService(db)).(*depositService)
	svc.now = func() time.Time { return now }
	return svc
}

func TestCreateDeposit(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 10, 11, 0, 0, 0, time.UTC)

	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDepositServiceAt(db, now)
		user := testutil.CreateTestUser(t, db)
		savings := testutil.CreateTestSavingsAccount(t, db, user, "5000")

		fd, err := svc.CreateDeposit(ctx, user.Email, testutil.Money(t, "1000"), 5)
		testutil.AssertNoError(t, err)

		if !regexp.MustCompile(`^27191\d{5}$`).MatchString(fd.FDID) {
			t.Errorf("unexpected FD id %q", fd.FDID)
		}
		testutil.AssertMoney(t, fd.InterestRate, "5")
		testutil.AssertMoney(t, fd.MaturityAmount, "1276.28")
		if !fd.MaturityDate.Equal(now.AddDate(5, 0, 0)) {
			t.Errorf("expected maturity %v, got %v", now.AddDate(5, 0, 0), fd.MaturityDate)
		}
		if !fd.DepositDate.Equal(now) {
			t.Errorf("expected deposit date %v, got %v", now, fd.DepositDate)
		}
		testutil.AssertMoney(t, testutil.ReloadAccount(t, db, savings.ID).Balance, "4000")
	})

	t.Run("rate_tiers", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDepositServiceAt(db, now)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestSavingsAccount(t, db, user, "5000")

		fd10, err := svc.CreateDeposit(ctx, user.Email, testutil.Money(t, "1000"), 10)
		testutil.AssertNoError(t, err)
		testutil.AssertMoney(t, fd10.InterestRate, "6.5")

		fd11, err := svc.CreateDeposit(ctx, user.Email, testutil.Money(t, "1000"), 11)
		testutil.AssertNoError(t, err)
		testutil.AssertMoney(t, fd11.InterestRate, "7.5")
	})

	t.Run("insufficient_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDepositServiceAt(db, now)
		user := testutil.CreateTestUser(t, db)
		savings := testutil.CreateTestSavingsAccount(t, db, user, "999.99")

		_, err := svc.CreateDeposit(ctx, user.Email, testutil.Money(t, "1000"), 5)
		testutil.AssertAppError(t, err, "INSUFFICIENT_BALANCE")

		testutil.AssertMoney(t, testutil.ReloadAccount(t, db, savings.ID).Balance, "999.99")
		if n := testutil.CountRows(t, db, &models.FixedDeposit{}); n != 0 {
			t.Errorf("expected no deposits, got %d", n)
		}
	})

	t.Run("no_savings_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDepositServiceAt(db, now)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestCurrentAccount(t, db, user, "5000")

		_, err := svc.CreateDeposit(ctx, user.Email, testutil.Money(t, "1000"), 5)
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})

	t.Run("missing_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDepositServiceAt(db, now)

		_, err := svc.CreateDeposit(ctx, "", testutil.Money(t, "1000"), 5)
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.CreateDeposit(ctx, "a@example.com", testutil.Money(t, "0"), 5)
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.CreateDeposit(ctx, "a@example.com", testutil.Money(t, "1000"), 0)
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.CreateDeposit(ctx, "a@example.com", testutil.Money(t, "1000"), MaxTenureYears+1)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetDepositsByEmail(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewDepositService(db, NewAccountService(db))

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	testutil.CreateTestFixedDeposit(t, db, "fd@example.com", "2000", older.AddDate(0, 6, 0))
	testutil.CreateTestFixedDeposit(t, db, "fd@example.com", "1000", older)
	testutil.CreateTestFixedDeposit(t, db, "other@example.com", "500", older)

	t.Run("oldest_first", func(t *testing.T) {
		deposits, err := svc.GetDepositsByEmail(ctx, "FD@example.com")
		testutil.AssertNoError(t, err)

		if len(deposits) != 2 {
			t.Fatalf("expected 2 deposits, got %d", len(deposits))
		}
		testutil.AssertMoney(t, deposits[0].PrincipalAmount, "1000")
		testutil.AssertMoney(t, deposits[1].PrincipalAmount, "2000")
	})

	t.Run("none", func(t *testing.T) {
		deposits, err := svc.GetDepositsByEmail(ctx, "nobody@example.com")
		testutil.AssertNoError(t, err)
		if deposits == nil || len(deposits) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", deposits)
		}
	})
}

func TestWithdrawDeposit(t *testing.T) {
	ctx := context.Background()
	opened := time.Date(2020, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("after_maturity", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDepositServiceAt(db, opened.AddDate(6, 0, 0))
		user := testutil.CreateTestUser(t, db)
		savings := testutil.CreateTestSavingsAccount(t, db, user, "0")
		fd := testutil.CreateTestFixedDeposit(t, db, user.Email, "1000", opened)

		w, err := svc.WithdrawDeposit(ctx, fd.FDID)
		testutil.AssertNoError(t, err)

		if !w.Matured {
			t.Error("expected deposit to have matured")
		}
		testutil.AssertMoney(t, w.AmountCredited, "1276.28")
		testutil.AssertMoney(t, testutil.ReloadAccount(t, db, savings.ID).Balance, "1276.28")
		if n := testutil.CountRows(t, db, &models.FixedDeposit{}); n != 0 {
			t.Errorf("expected deposit to be removed, got %d", n)
		}
	})

	t.Run("at_maturity", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDepositServiceAt(db, opened.AddDate(5, 0, 0))
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestSavingsAccount(t, db, user, "0")
		fd := testutil.CreateTestFixedDeposit(t, db, user.Email, "1000", opened)

		w, err := svc.WithdrawDeposit(ctx, fd.FDID)
		testutil.AssertNoError(t, err)
		testutil.AssertMoney(t, w.AmountCredited, "1276.28")
	})

	t.Run("before_maturity", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDepositServiceAt(db, opened.Add(365*24*time.Hour))
		user := testutil.CreateTestUser(t, db)
		savings := testutil.CreateTestSavingsAccount(t, db, user, "10")
		fd := testutil.CreateTestFixedDeposit(t, db, user.Email, "1000", opened)

		w, err := svc.WithdrawDeposit(ctx, fd.FDID)
		testutil.AssertNoError(t, err)

		if w.Matured {
			t.Error("expected an early withdrawal")
		}
		testutil.AssertMoney(t, w.AmountCredited, "1048")
		testutil.AssertMoney(t, testutil.ReloadAccount(t, db, savings.ID).Balance, "1058")
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDepositServiceAt(db, opened)

		_, err := svc.WithdrawDeposit(ctx, "2719199999")
		testutil.AssertAppError(t, err, "FD_NOT_FOUND")
	})

	t.Run("owner_without_savings", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDepositServiceAt(db, opened)
		fd := testutil.CreateTestFixedDeposit(t, db, "orphan@example.com", "1000", opened)

		_, err := svc.WithdrawDeposit(ctx, fd.FDID)
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
		if n := testutil.CountRows(t, db, &models.FixedDeposit{}); n != 1 {
			t.Errorf("expected deposit to remain, got %d", n)
		}
	})

	t.Run("second_withdrawal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDepositServiceAt(db, opened.AddDate(6, 0, 0))
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestSavingsAccount(t, db, user, "0")
		fd := testutil.CreateTestFixedDeposit(t, db, user.Email, "1000", opened)

		_, err := svc.WithdrawDeposit(ctx, fd.FDID)
		testutil.AssertNoError(t, err)

		_, err = svc.WithdrawDeposit(ctx, fd.FDID)
		testutil.AssertAppError(t, err, "FD_NOT_FOUND")
	})

	t.Run("concurrent_withdrawals_pay_once", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDepositServiceAt(db, opened.AddDate(6, 0, 0))
		user := testutil.CreateTestUser(t, db)
		savings := testutil.CreateTestSavingsAccount(t, db, user, "0")
		fd := testutil.CreateTestFixedDeposit(t, db, user.Email, "1000", opened)

		var wg sync.WaitGroup
		errs := make([]error, 3)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = svc.WithdrawDeposit(ctx, fd.FDID)
			}(i)
		}
		wg.Wait()

		paid := 0
		for _, err := range errs {
			if err == nil {
				paid++
			}
		}
		if paid != 1 {
			t.Fatalf("expected exactly one payout, got %d", paid)
		}
		testutil.AssertMoney(t, testutil.ReloadAccount(t, db, savings.ID).Balance, "1276.28")
	})
}
