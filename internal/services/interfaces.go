package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"esarbank/internal/models"
	"esarbank/internal/pagination"
)

// SignupInput carries the profile captured at signup.
type SignupInput struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	Address1    string
	City        string
	State       string
	PostalCode  string
	DateOfBirth string
	Aadhar      string
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	Signup(ctx context.Context, input SignupInput) (*models.User, *models.AccountDetails, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

// LoginServicer records successful sign-ins.
type LoginServicer interface {
	RecordLogin(ctx context.Context, email string) (*models.LoginDetail, error)
	GetLastLogin(ctx context.Context, email string) (time.Time, error)
}

// AccountServicer defines the contract for account-related business logic.
// LockAccounts, Debit and Credit must be called with an open transaction.
type AccountServicer interface {
	ConfirmSavingsAccount(ctx context.Context, userID string, details models.AccountDetails) (*models.Account, error)
	CreateCurrentAccount(ctx context.Context, userID string, details models.CurrentAccountDetails) (*models.Account, error)
	GetAccountsByUserID(ctx context.Context, userID string) ([]models.Account, error)
	GetAccountsByCustomerID(ctx context.Context, customerID string) ([]models.Account, error)
	GetAccountsByEmail(ctx context.Context, email string) ([]models.Account, error)
	GetSavingsAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	AccountExists(ctx context.Context, accountNumber, email string) (bool, error)

	LockAccounts(tx *gorm.DB, accountIDs ...string) ([]*models.Account, error)
	Debit(tx *gorm.DB, account *models.Account, amount decimal.Decimal) error
	Credit(tx *gorm.DB, account *models.Account, amount decimal.Decimal) error
}

// TransferRequest is a money movement between two accounts of the bank.
type TransferRequest struct {
	SenderAccountNumber   string
	ReceiverAccountNumber string
	ReceiverEmail         string
	Amount                decimal.Decimal
	Remarks               string
}

// TransferResult is a completed transfer with the owners of both accounts,
// read from the rows the transfer locked.
type TransferResult struct {
	Transaction   *models.Transaction
	SenderEmail   string
	ReceiverEmail string
}

// TransferServicer moves money between accounts and reports history.
type TransferServicer interface {
	Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
	GetAccountTransactions(ctx context.Context, accountNumber string, page pagination.PageRequest) (*pagination.Page[models.TransactionView], error)
	GetTransactionByID(ctx context.Context, transactionID string) (*models.Transaction, error)
}

// Withdrawal is the outcome of closing a fixed deposit.
type Withdrawal struct {
	FDID           string          `json:"fdId"`
	AmountCredited decimal.Decimal `json:"amountAdded"`
	Matured        bool            `json:"matured"`
	AccountNumber  string          `json:"accountNumber"`
	Email          string          `json:"email"`
}

// DepositServicer manages the fixed deposit lifecycle.
type DepositServicer interface {
	CreateDeposit(ctx context.Context, email string, principal decimal.Decimal, tenure int) (*models.FixedDeposit, error)
	GetDepositsByEmail(ctx context.Context, email string) ([]models.FixedDeposit, error)
	WithdrawDeposit(ctx context.Context, fdID string) (*Withdrawal, error)
}

// AccrualError records an account the monthly job could not credit.
type AccrualError struct {
	AccountID string `json:"accountId"`
	Err       error  `json:"-"`
}

// AccrualResult summarises one run of the monthly interest job.
type AccrualResult struct {
	Period        string          `json:"period"`
	Scanned       int             `json:"scanned"`
	Credited      int             `json:"credited"`
	Skipped       int             `json:"skipped"`
	Failed        int             `json:"failed"`
	TotalInterest decimal.Decimal `json:"totalInterest"`
	Errors        []AccrualError  `json:"errors,omitempty"`
	Duration      time.Duration   `json:"duration"`
}

// InterestServicer credits monthly interest to savings accounts.
type InterestServicer interface {
	ApplyMonthlyInterest(ctx context.Context) (*AccrualResult, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
