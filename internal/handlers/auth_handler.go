package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "esarbank/internal/errors"
	"esarbank/internal/logger"
	"esarbank/internal/middleware"
	"esarbank/internal/models"
	"esarbank/internal/services"
)

// AuthHandler handles signup, signin and savings account confirmation.
type AuthHandler struct {
	userService    services.UserServicer
	accountService services.AccountServicer
	loginService   services.LoginServicer
	auditService   services.AuditServicer
	tokens         *middleware.TokenManager
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(
	userService services.UserServicer,
	accountService services.AccountServicer,
	loginService services.LoginServicer,
	auditService services.AuditServicer,
	tokens *middleware.TokenManager,
) *AuthHandler {
	return &AuthHandler{
		userService:    userService,
		accountService: accountService,
		loginService:   loginService,
		auditService:   auditService,
		tokens:         tokens,
	}
}

// SignupRequest represents the registration request payload
type SignupRequest struct {
	FirstName   string `json:"firstName" binding:"max=100"`
	LastName    string `json:"lastName" binding:"max=100"`
	Email       string `json:"email" binding:"required,email,max=255"`
	Password    string `json:"password" binding:"required,min=8,max=128"`
	Address1    string `json:"address1" binding:"max=255"`
	City        string `json:"city" binding:"max=100"`
	State       string `json:"state" binding:"max=100"`
	PostalCode  string `json:"postalCode" binding:"max=20"`
	DateOfBirth string `json:"dateOfBirth" binding:"omitempty,datetime=2006-01-02"`
	Aadhar      string `json:"aadhar" binding:"omitempty,numeric,len=12"`
}

// SignupResponse carries the proposed savings account identifiers.
type SignupResponse struct {
	Message        string                `json:"message"`
	UserID         string                `json:"userId"`
	AccountDetails models.AccountDetails `json:"accountDetails"`
}

// SigninRequest represents the login request payload
type SigninRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SigninResponse carries the session token.
type SigninResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AccountDetailsRequest mirrors the identifiers returned by signup.
type AccountDetailsRequest struct {
	IFSC          string `json:"IFSC" binding:"required,ifsc"`
	AccountNumber string `json:"accountNumber" binding:"required,account_number"`
	CustomerID    string `json:"customerId" binding:"required,customer_id"`
}

// ConfirmAccountRequest opens the savings account proposed at signup.
type ConfirmAccountRequest struct {
	UserID         string                `json:"userId" binding:"required,uuid"`
	AccountDetails AccountDetailsRequest `json:"accountDetails" binding:"required"`
}

// Signup handles user registration
// @Summary     Register a new user
// @Description Register a user and receive the identifiers of their savings account
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body SignupRequest true "User registration data"
// @Success     201 {object} SignupResponse "User registered"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Email already in use"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	user, details, err := h.userService.Signup(c.Request.Context(), services.SignupInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Password:    req.Password,
		Address1:    req.Address1,
		City:        req.City,
		State:       req.State,
		PostalCode:  req.PostalCode,
		DateOfBirth: req.DateOfBirth,
		Aadhar:      req.Aadhar,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, services.AuditActionSignup, "user", user.ID, c.ClientIP(), nil)

	c.JSON(http.StatusCreated, SignupResponse{
		Message:        "User registered successfully",
		UserID:         user.ID,
		AccountDetails: *details,
	})
}

// Signin handles user login
// @Summary     Sign in
// @Description Authenticate a user, record the login and get a token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body SigninRequest true "User login credentials"
// @Success     200 {object} SigninResponse "User authenticated and token generated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /signin [post]
func (h *AuthHandler) Signin(c *gin.Context) {
	var req SigninRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	user, err := h.userService.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	token, expiresAt, err := h.tokens.Generate(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	if _, err := h.loginService.RecordLogin(ctx, user.Email); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, services.AuditActionSignin, "user", user.ID, c.ClientIP(), nil)
	logger.Named("auth").Infow("signin", "user_id", user.ID, "request_id", middleware.RequestID(c))

	c.JSON(http.StatusOK, SigninResponse{
		Message:   "Sign in successful",
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// ConfirmAccount opens the savings account proposed at signup
// @Summary     Confirm savings account
// @Description Create the savings account with the details returned by signup
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body ConfirmAccountRequest true "User id and account details"
// @Success     201 {object} models.Account "Bank account created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     409 {object} ErrorResponse "Savings account exists or number taken"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /confirm-account [post]
func (h *AuthHandler) ConfirmAccount(c *gin.Context) {
	var req ConfirmAccountRequest
	if !bindJSON(c, &req) {
		return
	}

	account, err := h.accountService.ConfirmSavingsAccount(c.Request.Context(), req.UserID, models.AccountDetails{
		IFSC:          req.AccountDetails.IFSC,
		AccountNumber: req.AccountDetails.AccountNumber,
		CustomerID:    req.AccountDetails.CustomerID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(req.UserID, services.AuditActionOpenAccount, "account", account.ID, c.ClientIP(),
		map[string]interface{}{"type": account.Type, "accountNumber": account.AccountNumber})

	c.JSON(http.StatusCreated, gin.H{"message": "Bank account created successfully", "account": account})
}
