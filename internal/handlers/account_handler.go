package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "esarbank/internal/errors"
	"esarbank/internal/models"
	"esarbank/internal/services"
)

// AccountHandler handles account-related requests.
type AccountHandler struct {
	accountService services.AccountServicer
	loginService   services.LoginServicer
	auditService   services.AuditServicer
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService services.AccountServicer, loginService services.LoginServicer, auditService services.AuditServicer) *AccountHandler {
	return &AccountHandler{accountService: accountService, loginService: loginService, auditService: auditService}
}

// CurrentAccountDetailsRequest holds the KYC fields of a current account.
type CurrentAccountDetailsRequest struct {
	InitialDeposit  decimal.Decimal `json:"initialDeposit" swaggertype:"number" binding:"gte=0,money"`
	PANNumber       string          `json:"panNumber" binding:"required,pan"`
	NomineeName     string          `json:"nomineeName" binding:"required,max=100"`
	NomineeAge      int             `json:"nomineeAge" binding:"required,gte=1,lte=120"`
	NomineeRelation string          `json:"nomineeRelation" binding:"required,max=50"`
}

// CreateAccountRequest represents the request payload for opening a current account.
type CreateAccountRequest struct {
	AccountDetail CurrentAccountDetailsRequest `json:"accountdetail" binding:"required"`
}

// CheckAccountResponse reports whether an account number belongs to an email.
type CheckAccountResponse struct {
	Exists bool `json:"exists"`
}

// LastLoginResponse carries the previous sign-in time.
type LastLoginResponse struct {
	LastLogin string `json:"lastLogin" example:"2026-03-01T10:00:00Z"`
}

// CreateAccount opens a current account funded from the caller's savings
// @Summary     Create a current account
// @Description Open a current account for the authenticated user, debiting the initial deposit from savings
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateAccountRequest true "Current account details"
// @Success     201 {object} models.Account "Account created"
// @Failure     400 {object} ErrorResponse "Invalid input or insufficient savings balance"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User or savings account not found"
// @Failure     409 {object} ErrorResponse "Current account already exists"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /create-account [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateAccountRequest
	if !bindJSON(c, &req) {
		return
	}

	d := req.AccountDetail
	account, err := h.accountService.CreateCurrentAccount(c.Request.Context(), userID, models.CurrentAccountDetails{
		InitialDeposit:  d.InitialDeposit,
		PANNumber:       d.PANNumber,
		NomineeName:     d.NomineeName,
		NomineeAge:      d.NomineeAge,
		NomineeRelation: d.NomineeRelation,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionOpenAccount, "account", account.ID, c.ClientIP(),
		map[string]interface{}{"type": account.Type, "initialDeposit": d.InitialDeposit.String()})

	c.JSON(http.StatusCreated, gin.H{"message": "Current bank account created successfully", "account": account})
}

// GetAccountsByUserID lists a user's accounts
// @Summary     List accounts by user
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       userId path string true "User ID"
// @Success     200 {object} map[string][]models.Account "Accounts"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No accounts found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts/{userId} [get]
func (h *AccountHandler) GetAccountsByUserID(c *gin.Context) {
	accounts, err := h.accountService.GetAccountsByUserID(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// GetAccountsByCustomerID lists the accounts sharing a customer id
// @Summary     List accounts by customer id
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       customerId path string true "Customer ID"
// @Success     200 {array}  models.Account "Accounts"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No accounts found"
// @Router      /accounts/customer/{customerId} [get]
func (h *AccountHandler) GetAccountsByCustomerID(c *gin.Context) {
	accounts, err := h.accountService.GetAccountsByCustomerID(c.Request.Context(), c.Param("customerId"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

// GetAccountsByEmail lists the accounts registered to an email
// @Summary     List accounts by email
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       email query string true "Email"
// @Success     200 {array}  models.Account "Accounts"
// @Failure     400 {object} ErrorResponse "Email is required"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No accounts found"
// @Router      /accountsByEmail [get]
func (h *AccountHandler) GetAccountsByEmail(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "email is required"))
		return
	}

	accounts, err := h.accountService.GetAccountsByEmail(c.Request.Context(), email)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

// CheckAccount reports whether an account number is registered to an email
// @Summary     Check an account
// @Description Used before a transfer to confirm the receiver
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       accountNumber query string true "Account number"
// @Param       email         query string true "Email"
// @Success     200 {object} CheckAccountResponse "Result"
// @Failure     400 {object} ErrorResponse "Account number and email are required"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /checkAccount [get]
func (h *AccountHandler) CheckAccount(c *gin.Context) {
	accountNumber := strings.TrimSpace(c.Query("accountNumber"))
	email := strings.TrimSpace(c.Query("email"))
	if accountNumber == "" || email == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Account number and email are required."))
		return
	}

	exists, err := h.accountService.AccountExists(c.Request.Context(), accountNumber, email)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, CheckAccountResponse{Exists: exists})
}

// GetLastLogin returns the previous sign-in of an email
// @Summary     Last login
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       email path string true "Email"
// @Success     200 {object} LastLoginResponse "Last login"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Login details not found"
// @Router      /loginDetails/{email} [get]
func (h *AccountHandler) GetLastLogin(c *gin.Context) {
	lastLogin, err := h.loginService.GetLastLogin(c.Request.Context(), c.Param("email"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lastLogin": lastLogin})
}
