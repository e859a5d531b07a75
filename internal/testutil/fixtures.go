package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"esarbank/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Money parses a decimal literal, failing the test on bad input.
func Money(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  string(hash),
		City:      "Mumbai",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestSavingsAccount creates a savings account with the given balance.
func CreateTestSavingsAccount(t *testing.T, db *gorm.DB, user *models.User, balance string) *models.Account {
	t.Helper()
	return createTestAccount(t, db, user, models.AccountTypeSavings, balance)
}

// CreateTestCurrentAccount creates a current account with the given balance.
func CreateTestCurrentAccount(t *testing.T, db *gorm.DB, user *models.User, balance string) *models.Account {
	t.Helper()
	return createTestAccount(t, db, user, models.AccountTypeCurrent, balance)
}

func createTestAccount(t *testing.T, db *gorm.DB, user *models.User, accountType models.AccountType, balance string) *models.Account {
	t.Helper()

	n := nextID()
	account := &models.Account{
		UserID:         user.ID,
		IFSC:           "ESARMUM123",
		AccountNumber:  fmt.Sprintf("22710%09d", n),
		CustomerID:     fmt.Sprintf("%d", 500000+n),
		Email:          user.Email,
		Balance:        Money(t, balance),
		Type:           accountType,
		OverdraftLimit: decimal.Zero,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test %s account: %v", accountType, err)
	}
	return account
}

// CreateTestFixedDeposit creates a 5 year, 5% deposit of principal for email
// that was opened at depositDate. The savings balance is not touched.
func CreateTestFixedDeposit(t *testing.T, db *gorm.DB, email, principal string, depositDate time.Time) *models.FixedDeposit {
	t.Helper()

	p := Money(t, principal)
	fd := &models.FixedDeposit{
		FDID:            fmt.Sprintf("27191%05d", 10000+nextID()%90000),
		Email:           email,
		PrincipalAmount: p,
		Tenure:          5,
		DepositDate:     depositDate,
		MaturityDate:    depositDate.AddDate(5, 0, 0),
		MaturityAmount:  p.Mul(Money(t, "1.2762815625")).Round(2),
		InterestRate:    Money(t, "5"),
	}
	if err := db.Create(fd).Error; err != nil {
		t.Fatalf("failed to create test fixed deposit: %v", err)
	}
	return fd
}

// ReloadAccount fetches the current state of an account.
func ReloadAccount(t *testing.T, db *gorm.DB, id string) *models.Account {
	t.Helper()

	var account models.Account
	if err := db.First(&account, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to reload account %s: %v", id, err)
	}
	return &account
}

// CountRows returns the number of live rows of model.
func CountRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()

	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return n
}
